package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleValidateRejectsShortBackstop(t *testing.T) {
	cfg := LifecycleConfig{SLAHighHours: 24, SLAMediumHours: 48, SLALowHours: 72, AutoApprovalDays: 2}
	require.Error(t, cfg.Validate(), "backstop shorter than the longest sla window")

	cfg.AutoApprovalDays = 3
	require.NoError(t, cfg.Validate())
}

func TestLifecycleValidateRejectsNonPositiveWindows(t *testing.T) {
	cfg := LifecycleConfig{SLAHighHours: 0, SLAMediumHours: 48, SLALowHours: 72, AutoApprovalDays: 30}
	require.Error(t, cfg.Validate())
}

func TestSLAWindowByPriority(t *testing.T) {
	cfg := LifecycleConfig{SLAHighHours: 24, SLAMediumHours: 48, SLALowHours: 72, AutoApprovalDays: 30}

	assert.Equal(t, 24*time.Hour, cfg.SLAWindow("HIGH"))
	assert.Equal(t, 48*time.Hour, cfg.SLAWindow("MEDIUM"))
	assert.Equal(t, 72*time.Hour, cfg.SLAWindow("LOW"))
	assert.Equal(t, 72*time.Hour, cfg.SLAWindow("whatever"), "unknown priorities fall back to the low window")
	assert.Equal(t, 30*24*time.Hour, cfg.AutoApprovalWindow())
}

func TestSchedulerIntervalDefaults(t *testing.T) {
	var s SchedulerConfig
	assert.Equal(t, 15*time.Minute, s.EscalationInterval())
	assert.Equal(t, 30*time.Minute, s.FinalizationInterval())

	s = SchedulerConfig{EscalationIntervalMinutes: 5, FinalizationIntervalMinutes: 10}
	assert.Equal(t, 5*time.Minute, s.EscalationInterval())
	assert.Equal(t, 10*time.Minute, s.FinalizationInterval())
}
