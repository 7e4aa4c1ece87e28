package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

func seedApplication(fx *lifecycleFixture, id string, status domain.ApplicationStatus, opts ...func(*domain.Application)) {
	app := domain.Application{
		ID:                   id,
		TrackingID:           "GSR-2026-000001",
		CitizenID:            "cit-1",
		Department:           "Health - Public Health Directorate",
		Title:                "Renew license",
		Status:               status,
		Priority:             domain.ApplicationPriorityMedium,
		SubmittedAt:          fx.now.Add(-time.Hour),
		UpdatedAt:            fx.now.Add(-time.Hour),
		SLADueAt:             fx.now.Add(47 * time.Hour),
		AutoApprovalDeadline: fx.now.Add(30 * 24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&app)
	}
	fx.apps.add(app)
}

func TestApplyTransitionValid(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusAssigned)

	app, err := fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatusInProgress, domain.OfficerActor("off-1"), "review started")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusInProgress, app.Status)
	assert.Equal(t, fx.now, app.UpdatedAt)

	entries := fx.history.byType(domain.ChangeTypeStatus)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActorTypeOfficer, entries[0].ChangedByType)
	assert.Equal(t, "review started", entries[0].Comment)
	assert.Equal(t, map[string]any{"status": domain.ApplicationStatusAssigned}, entries[0].OldValue)

	published := fx.dispatcher.byType(events.EventStatusChanged)
	require.Len(t, published, 1)
}

func TestApplyTransitionRejectsInvalidEdge(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusSubmitted)

	_, err := fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatusApproved, domain.OfficerActor("off-1"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	stored, _ := fx.apps.GetByID(context.Background(), "app-1")
	assert.Equal(t, domain.ApplicationStatusSubmitted, stored.Status, "failed transition must not mutate the record")
	assert.Empty(t, fx.history.byType(domain.ChangeTypeStatus))
}

func TestApplyTransitionTerminalIsAbsorbing(t *testing.T) {
	fx := newLifecycleFixture()
	for _, status := range []domain.ApplicationStatus{
		domain.ApplicationStatusApproved,
		domain.ApplicationStatusRejected,
		domain.ApplicationStatusAutoApproved,
	} {
		id := "app-" + string(status)
		seedApplication(fx, id, status)
		_, err := fx.lifecycle.ApplyTransition(context.Background(), id,
			domain.ApplicationStatusAssigned, domain.SystemActor(), "")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"), "terminal status %s must absorb", status)
	}
}

func TestApplyTransitionUnknownStatus(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusSubmitted)

	_, err := fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatus("FROZEN"), domain.SystemActor(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestAssignSetsOfficerAndCounter(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusSubmitted)
	seedOfficer(fx.officers, "off-1", "Health")

	app, err := fx.lifecycle.Assign(context.Background(), "app-1", "off-1", domain.SystemActor())
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusAssigned, app.Status)
	require.NotNil(t, app.OfficerID)
	assert.Equal(t, "off-1", *app.OfficerID)
	require.NotNil(t, app.AssignedAt)
	assert.Equal(t, fx.now, *app.AssignedAt)

	assert.Equal(t, int64(1), fx.officers.counter("off-1"), "lifetime counter moves with the assignment")
	assert.Equal(t, 1, fx.apps.assignCalls)

	entries := fx.history.byType(domain.ChangeTypeAssignment)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActorTypeSystem, entries[0].ChangedByType)
}

func TestAssignRejectsInactiveOfficer(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusSubmitted)
	seedOfficer(fx.officers, "off-1", "Health", func(o *domain.Officer) { o.Active = false })

	_, err := fx.lifecycle.Assign(context.Background(), "app-1", "off-1", domain.SystemActor())
	require.Error(t, err)
	assert.Equal(t, int64(0), fx.officers.counter("off-1"))
}

func TestApproveStampsArtifactOnce(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusInProgress)

	app, err := fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatusApproved, domain.OfficerActor("off-1"), "granted")
	require.NoError(t, err)
	require.NotNil(t, app.ApprovedAt)
	require.NotNil(t, app.FinalizationArtifact)
	assert.Equal(t, "artifact-1", *app.FinalizationArtifact)
	assert.Equal(t, 1, fx.stamper.callCount())

	finalized := fx.dispatcher.byType(events.EventApplicationFinalized)
	require.Len(t, finalized, 1)
}

func TestFinalizeSkipsWhenArtifactExists(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusInProgress, func(a *domain.Application) {
		a.FinalizationArtifact = strPtr("existing")
	})

	app, err := fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatusApproved, domain.OfficerActor("off-1"), "")
	require.NoError(t, err)
	assert.Equal(t, "existing", *app.FinalizationArtifact)
	assert.Equal(t, 0, fx.stamper.callCount(), "a prior artifact blocks re-stamping")
}

func TestRejectDoesNotStamp(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusInProgress)

	app, err := fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatusRejected, domain.OfficerActor("off-1"), "incomplete documents")
	require.NoError(t, err)
	assert.Nil(t, app.FinalizationArtifact)
	assert.Equal(t, 0, fx.stamper.callCount())
	assert.Empty(t, fx.dispatcher.byType(events.EventApplicationFinalized))
}

func TestEscalateRequiresHigherLevel(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusAssigned, func(a *domain.Application) {
		a.EscalationLevel = 2
	})

	_, err := fx.lifecycle.Escalate(context.Background(), "app-1", 2, nil, domain.SystemActor(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestEscalateReassignsAndRefreshesSLA(t *testing.T) {
	fx := newLifecycleFixture()
	original := "off-1"
	seedApplication(fx, "app-1", domain.ApplicationStatusAssigned, func(a *domain.Application) {
		a.Priority = domain.ApplicationPriorityHigh
		a.OfficerID = &original
		a.SLADueAt = fx.now.Add(-time.Minute)
	})
	seedOfficer(fx.officers, "off-1", "Health")
	seedOfficer(fx.officers, "off-2", "Health", func(o *domain.Officer) { o.HierarchyLevel = 2 })

	app, err := fx.lifecycle.Escalate(context.Background(), "app-1", 1, strPtr("off-2"), domain.SystemActor(), "sla breach")
	require.NoError(t, err)
	assert.Equal(t, 1, app.EscalationLevel)
	assert.Equal(t, "off-2", *app.OfficerID)
	assert.Equal(t, domain.ApplicationStatusAssigned, app.Status)
	assert.Equal(t, fx.now.Add(24*time.Hour), app.SLADueAt, "fresh SLA window from the HIGH priority")
	assert.Equal(t, int64(1), fx.officers.counter("off-2"))

	entries := fx.history.byType(domain.ChangeTypeEscalation)
	require.Len(t, entries, 1)
	assert.Equal(t, "sla breach", entries[0].Comment)

	published := fx.dispatcher.byType(events.EventApplicationEscalated)
	require.Len(t, published, 1)
	payload := published[0].Payload.(events.ApplicationEscalatedPayload)
	assert.False(t, payload.FlaggedOnly)
}

func TestEscalateFlagOnlyKeepsOfficer(t *testing.T) {
	fx := newLifecycleFixture()
	original := "off-1"
	seedApplication(fx, "app-1", domain.ApplicationStatusInProgress, func(a *domain.Application) {
		a.OfficerID = &original
	})
	seedOfficer(fx.officers, "off-1", "Health")

	app, err := fx.lifecycle.Escalate(context.Background(), "app-1", 1, nil, domain.SystemActor(), "no higher tier")
	require.NoError(t, err)
	assert.Equal(t, 1, app.EscalationLevel)
	assert.Equal(t, "off-1", *app.OfficerID)
	assert.Equal(t, domain.ApplicationStatusInProgress, app.Status, "flag-only escalation keeps the working status")
	assert.Equal(t, int64(0), fx.officers.counter("off-1"), "no reassignment, no counter bump")

	published := fx.dispatcher.byType(events.EventApplicationEscalated)
	require.Len(t, published, 1)
	payload := published[0].Payload.(events.ApplicationEscalatedPayload)
	assert.True(t, payload.FlaggedOnly)
}

func TestMarkSolvedOwnershipAndAudit(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusApproved)

	_, err := fx.lifecycle.MarkSolved(context.Background(), "app-1", "someone-else", true)
	require.Error(t, err)

	app, err := fx.lifecycle.MarkSolved(context.Background(), "app-1", "cit-1", true)
	require.NoError(t, err)
	assert.True(t, app.IsSolved)
	require.Len(t, fx.history.byType(domain.ChangeTypeSolvedFlag), 1)

	// Setting the same value again is a no-op.
	_, err = fx.lifecycle.MarkSolved(context.Background(), "app-1", "cit-1", true)
	require.NoError(t, err)
	assert.Len(t, fx.history.byType(domain.ChangeTypeSolvedFlag), 1)
}

func TestEscalateCapsSLAAtAutoApprovalDeadline(t *testing.T) {
	fx := newLifecycleFixture()
	current := "off-tier1"
	target := "off-tier2"
	seedOfficer(fx.officers, current, "Health")
	seedOfficer(fx.officers, target, "Health", func(o *domain.Officer) { o.HierarchyLevel = 2 })

	// One hour of life left: a full low-priority window would land past the
	// unconditional backstop.
	backstop := fx.now.Add(time.Hour)
	seedApplication(fx, "app-1", domain.ApplicationStatusAssigned, func(a *domain.Application) {
		a.OfficerID = &current
		a.Priority = domain.ApplicationPriorityLow
		a.SLADueAt = fx.now.Add(-time.Minute)
		a.AutoApprovalDeadline = backstop
	})

	app, err := fx.lifecycle.Escalate(context.Background(), "app-1", 1, &target, domain.SystemActor(), "sla breached")
	require.NoError(t, err)
	assert.True(t, app.SLADueAt.Equal(backstop), "refreshed deadline %v must be capped at the backstop %v", app.SLADueAt, backstop)
	assert.False(t, app.SLADueAt.After(app.AutoApprovalDeadline))

	stored, err := fx.apps.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.False(t, stored.SLADueAt.After(stored.AutoApprovalDeadline))
}

func TestApplyTransitionReservesSchedulerStatuses(t *testing.T) {
	fx := newLifecycleFixture()
	seedApplication(fx, "app-1", domain.ApplicationStatusInProgress)

	_, err := fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatusAutoApproved, domain.OfficerActor("off-1"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	_, err = fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatusEscalated, domain.CitizenActor("cit-1"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	stored, err := fx.apps.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusInProgress, stored.Status)

	app, err := fx.lifecycle.ApplyTransition(context.Background(), "app-1",
		domain.ApplicationStatusAutoApproved, domain.SystemActor(), AutoApprovalComment)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusAutoApproved, app.Status)
}
