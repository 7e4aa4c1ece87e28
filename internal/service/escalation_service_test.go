package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
)

func newEscalationFixture(t *testing.T) (*lifecycleFixture, *EscalationService) {
	t.Helper()
	fx := newLifecycleFixture()
	selector := NewAssignmentService(fx.officers, fx.apps)
	svc := NewEscalationService(fx.apps, fx.officers, fx.lifecycle, selector, zap.NewNop())
	svc.now = func() time.Time { return fx.now }
	return fx, svc
}

func TestEscalationRunOnceReroutesBreachedApplication(t *testing.T) {
	fx, svc := newEscalationFixture(t)
	officerID := "off-tier1"
	seedOfficer(fx.officers, officerID, "Health", func(o *domain.Officer) { o.HierarchyLevel = 1 })
	seedOfficer(fx.officers, "off-tier2", "Health", func(o *domain.Officer) { o.HierarchyLevel = 2 })
	seedApplication(fx, "app-1", domain.ApplicationStatusAssigned, func(a *domain.Application) {
		a.OfficerID = &officerID
		a.SLADueAt = fx.now.Add(-time.Hour)
	})

	require.NoError(t, svc.RunOnce(context.Background()))

	stored, err := fx.apps.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.EscalationLevel)
	assert.Equal(t, "off-tier2", *stored.OfficerID)
	assert.True(t, stored.SLADueAt.After(fx.now), "fresh SLA window set")

	// The refreshed deadline keeps the same breach from firing twice.
	require.NoError(t, svc.RunOnce(context.Background()))
	stored, _ = fx.apps.GetByID(context.Background(), "app-1")
	assert.Equal(t, 1, stored.EscalationLevel)
}

func TestEscalationRunOnceFlagsWhenNoHigherTier(t *testing.T) {
	fx, svc := newEscalationFixture(t)
	officerID := "off-top"
	seedOfficer(fx.officers, officerID, "Health", func(o *domain.Officer) { o.HierarchyLevel = 3 })
	seedApplication(fx, "app-1", domain.ApplicationStatusInProgress, func(a *domain.Application) {
		a.OfficerID = &officerID
		a.SLADueAt = fx.now.Add(-time.Hour)
	})

	require.NoError(t, svc.RunOnce(context.Background()))

	stored, err := fx.apps.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.EscalationLevel)
	assert.Equal(t, officerID, *stored.OfficerID, "officer unchanged at the top of the hierarchy")

	entries := fx.history.byType(domain.ChangeTypeEscalation)
	require.Len(t, entries, 1)
	assert.Equal(t, noHigherTierComment, entries[0].Comment)
}

func TestEscalationRunOnceUnassignedApplicationStartsAtTierOne(t *testing.T) {
	fx, svc := newEscalationFixture(t)
	seedOfficer(fx.officers, "off-tier2", "Health", func(o *domain.Officer) { o.HierarchyLevel = 2 })
	seedApplication(fx, "app-1", domain.ApplicationStatusSubmitted, func(a *domain.Application) {
		a.SLADueAt = fx.now.Add(-time.Hour)
	})

	require.NoError(t, svc.RunOnce(context.Background()))

	stored, err := fx.apps.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "off-tier2", *stored.OfficerID)
	assert.Equal(t, domain.ApplicationStatusAssigned, stored.Status)
}

func TestEscalationRunOncePerItemFailureIsolation(t *testing.T) {
	fx, svc := newEscalationFixture(t)
	missing := "off-gone"
	healthy := "off-tier1"
	seedOfficer(fx.officers, healthy, "Health", func(o *domain.Officer) { o.HierarchyLevel = 1 })
	seedOfficer(fx.officers, "off-tier2", "Health", func(o *domain.Officer) { o.HierarchyLevel = 2 })

	// First item references an officer the repo no longer knows; its failure
	// must not stop the second item.
	seedApplication(fx, "app-bad", domain.ApplicationStatusAssigned, func(a *domain.Application) {
		a.OfficerID = &missing
		a.SLADueAt = fx.now.Add(-2 * time.Hour)
	})
	seedApplication(fx, "app-good", domain.ApplicationStatusAssigned, func(a *domain.Application) {
		a.OfficerID = &healthy
		a.SLADueAt = fx.now.Add(-time.Hour)
	})

	require.NoError(t, svc.RunOnce(context.Background()))

	bad, _ := fx.apps.GetByID(context.Background(), "app-bad")
	assert.Equal(t, 0, bad.EscalationLevel)

	good, _ := fx.apps.GetByID(context.Background(), "app-good")
	assert.Equal(t, 1, good.EscalationLevel)
	assert.Equal(t, "off-tier2", *good.OfficerID)
}
