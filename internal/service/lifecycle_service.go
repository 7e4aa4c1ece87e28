package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// AutoApprovalComment is the fixed audit comment recorded when the
// finalization timer forces a terminal decision.
const AutoApprovalComment = "auto-approved: decision deadline elapsed without a terminal decision"

// allowedTransitions defines status reachability. Terminal statuses map to
// nothing: they are absorbing. ESCALATED is a pass-through marker; escalation
// itself is applied as an atomic reassign that never persists it.
var allowedTransitions = map[domain.ApplicationStatus][]domain.ApplicationStatus{
	domain.ApplicationStatusSubmitted:    {domain.ApplicationStatusAssigned, domain.ApplicationStatusEscalated, domain.ApplicationStatusAutoApproved},
	domain.ApplicationStatusAssigned:     {domain.ApplicationStatusInProgress, domain.ApplicationStatusEscalated, domain.ApplicationStatusAutoApproved},
	domain.ApplicationStatusInProgress:   {domain.ApplicationStatusApproved, domain.ApplicationStatusRejected, domain.ApplicationStatusEscalated, domain.ApplicationStatusAutoApproved},
	domain.ApplicationStatusEscalated:    {domain.ApplicationStatusAssigned, domain.ApplicationStatusAutoApproved},
	domain.ApplicationStatusApproved:     {},
	domain.ApplicationStatusRejected:     {},
	domain.ApplicationStatusAutoApproved: {},
}

func isValidTransition(current, next domain.ApplicationStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// LifecycleService is the single choke point for application mutations.
// Every status change, whether user-triggered or scheduler-triggered, goes
// through it; concurrent writers to the same application are serialized by a
// per-id lock.
type LifecycleService struct {
	applications repository.ApplicationRepository
	officers     repository.OfficerRepository
	history      repository.ApplicationHistoryRepository
	dispatcher   events.Dispatcher
	stamper      FinalizationStamper
	lifecycle    config.LifecycleConfig
	logger       *zap.Logger
	locks        *applicationLocks
	now          func() time.Time
}

// LifecycleDependencies bundles repositories and collaborators.
type LifecycleDependencies struct {
	ApplicationRepo repository.ApplicationRepository
	OfficerRepo     repository.OfficerRepository
	HistoryRepo     repository.ApplicationHistoryRepository
	Dispatcher      events.Dispatcher
	Stamper         FinalizationStamper
	Logger          *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(cfg config.LifecycleConfig, deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		applications: deps.ApplicationRepo,
		officers:     deps.OfficerRepo,
		history:      deps.HistoryRepo,
		dispatcher:   deps.Dispatcher,
		stamper:      deps.Stamper,
		lifecycle:    cfg,
		logger:       deps.Logger,
		locks:        newApplicationLocks(),
		now:          time.Now,
	}
}

// ApplyTransition validates and applies a status transition, appends the
// audit entry, and triggers finalization side effects on terminal approval.
func (s *LifecycleService) ApplyTransition(ctx context.Context, applicationID string, newStatus domain.ApplicationStatus, actor domain.Actor, comment string) (*domain.Application, error) {
	if !domain.IsValidStatus(newStatus) {
		return nil, apperrors.NewInvalidTransition("unknown status", map[string]any{"status": newStatus})
	}
	// AUTO_APPROVED belongs to the finalization timer and ESCALATED to the
	// escalation path; neither may be forced by a citizen or officer.
	if (newStatus == domain.ApplicationStatusAutoApproved || newStatus == domain.ApplicationStatusEscalated) &&
		actor.Type != domain.ActorTypeSystem {
		return nil, apperrors.NewInvalidTransition("status is reserved for the system", map[string]any{"status": newStatus})
	}

	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("application", map[string]any{"application_id": applicationID})
		}
		return nil, apperrors.MapError(err)
	}
	if app.Status.IsTerminal() {
		return nil, apperrors.NewInvalidTransition("application is closed", map[string]any{
			"application_id": applicationID,
			"status":         app.Status,
		})
	}
	if !isValidTransition(app.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition("transition not allowed", map[string]any{
			"from": app.Status,
			"to":   newStatus,
		})
	}

	now := s.now()
	oldStatus := app.Status
	app.Status = newStatus
	app.UpdatedAt = now
	if newStatus == domain.ApplicationStatusApproved || newStatus == domain.ApplicationStatusAutoApproved {
		app.ApprovedAt = &now
	}

	if err := s.applications.Update(ctx, app); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, actor, app.ID, oldStatus, newStatus, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:          events.EventStatusChanged,
		ApplicationID: app.ID,
		Actor:         eventActor(actor),
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			CitizenID: app.CitizenID,
			Comment:   comment,
		},
	})

	if newStatus == domain.ApplicationStatusApproved || newStatus == domain.ApplicationStatusAutoApproved {
		s.finalize(ctx, app, actor)
	}
	return app, nil
}

// Assign routes the application to the given officer, transitions it to
// ASSIGNED, and increments the officer's lifetime counter in the same atomic
// unit as the application write.
func (s *LifecycleService) Assign(ctx context.Context, applicationID, officerID string, actor domain.Actor) (*domain.Application, error) {
	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("application", map[string]any{"application_id": applicationID})
		}
		return nil, apperrors.MapError(err)
	}
	if app.Status.IsTerminal() {
		return nil, apperrors.NewInvalidTransition("application is closed", map[string]any{
			"application_id": applicationID,
			"status":         app.Status,
		})
	}

	officer, err := s.officers.GetByID(ctx, officerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("officer", map[string]any{"officer_id": officerID})
		}
		return nil, apperrors.MapError(err)
	}
	if !officer.Active {
		return nil, apperrors.NewConflict("officer inactive", map[string]any{"officer_id": officerID})
	}

	now := s.now()
	oldStatus := app.Status
	oldOfficer := app.OfficerID
	app.OfficerID = &officer.ID
	app.Status = domain.ApplicationStatusAssigned
	app.AssignedAt = &now
	app.UpdatedAt = now

	if err := s.applications.Assign(ctx, app); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssignment(ctx, actor, app.ID, oldStatus, oldOfficer, &officer.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:          events.EventApplicationAssigned,
		ApplicationID: app.ID,
		Actor:         eventActor(actor),
		Payload: events.ApplicationAssignedPayload{
			OfficerID:  officer.ID,
			CitizenID:  app.CitizenID,
			TrackingID: app.TrackingID,
		},
	})
	return app, nil
}

// Escalate bumps the escalation level, recomputes the SLA deadline from the
// priority, and, when a new officer is given, reassigns in the same write.
// A nil newOfficerID records a flag-only escalation: the level still moves,
// the officer stays. The level is strictly monotonic.
func (s *LifecycleService) Escalate(ctx context.Context, applicationID string, newLevel int, newOfficerID *string, actor domain.Actor, reason string) (*domain.Application, error) {
	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("application", map[string]any{"application_id": applicationID})
		}
		return nil, apperrors.MapError(err)
	}
	if app.Status.IsTerminal() {
		return nil, apperrors.NewInvalidTransition("application is closed", map[string]any{
			"application_id": applicationID,
			"status":         app.Status,
		})
	}
	if newLevel <= app.EscalationLevel {
		return nil, apperrors.NewInvalidTransition("escalation level must increase", map[string]any{
			"current": app.EscalationLevel,
			"new":     newLevel,
		})
	}

	now := s.now()
	oldLevel := app.EscalationLevel
	oldOfficer := app.OfficerID
	app.EscalationLevel = newLevel
	// The refreshed SLA deadline never outlives the unconditional backstop.
	due := now.Add(s.lifecycle.SLAWindow(string(app.Priority)))
	if due.After(app.AutoApprovalDeadline) {
		due = app.AutoApprovalDeadline
	}
	app.SLADueAt = due
	app.UpdatedAt = now

	if newOfficerID != nil {
		officer, err := s.officers.GetByID(ctx, *newOfficerID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewNotFound("officer", map[string]any{"officer_id": *newOfficerID})
			}
			return nil, apperrors.MapError(err)
		}
		if !officer.Active {
			return nil, apperrors.NewConflict("officer inactive", map[string]any{"officer_id": *newOfficerID})
		}
		app.OfficerID = &officer.ID
		app.Status = domain.ApplicationStatusAssigned
		app.AssignedAt = &now
		if err := s.applications.Assign(ctx, app); err != nil {
			return nil, apperrors.MapError(err)
		}
	} else {
		if err := s.applications.Update(ctx, app); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	if err := s.recordEscalation(ctx, actor, app.ID, oldLevel, newLevel, oldOfficer, app.OfficerID, reason); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:          events.EventApplicationEscalated,
		ApplicationID: app.ID,
		Actor:         eventActor(actor),
		Payload: events.ApplicationEscalatedPayload{
			OldLevel:     oldLevel,
			NewLevel:     newLevel,
			OldOfficerID: oldOfficer,
			NewOfficerID: app.OfficerID,
			FlaggedOnly:  newOfficerID == nil,
		},
	})
	return app, nil
}

// MarkSolved records the citizen's satisfaction flag. It is orthogonal to
// status and allowed on closed applications.
func (s *LifecycleService) MarkSolved(ctx context.Context, applicationID, citizenID string, solved bool) (*domain.Application, error) {
	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("application", map[string]any{"application_id": applicationID})
		}
		return nil, apperrors.MapError(err)
	}
	if app.CitizenID != citizenID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if app.IsSolved == solved {
		return app, nil
	}

	oldValue := app.IsSolved
	app.IsSolved = solved
	app.UpdatedAt = s.now()
	if err := s.applications.Update(ctx, app); err != nil {
		return nil, apperrors.MapError(err)
	}
	entry := &domain.ApplicationHistory{
		ApplicationID: app.ID,
		ChangedByType: domain.ActorTypeCitizen,
		ChangedByID:   &citizenID,
		ChangeType:    domain.ChangeTypeSolvedFlag,
		OldValue:      map[string]any{"is_solved": oldValue},
		NewValue:      map[string]any{"is_solved": solved},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	return app, nil
}

// finalize stamps the finalization artifact exactly once. The guard is the
// absence of a prior artifact; stamping failures are logged and never revert
// the terminal transition.
func (s *LifecycleService) finalize(ctx context.Context, app *domain.Application, actor domain.Actor) {
	if app.FinalizationArtifact == nil && s.stamper != nil {
		artifactID, err := s.stamper.Stamp(ctx, app.ID)
		if err != nil {
			s.logger.Error("finalization stamp failed",
				zap.String("application_id", app.ID), zap.Error(err))
		} else {
			app.FinalizationArtifact = &artifactID
			if err := s.applications.Update(ctx, app); err != nil {
				s.logger.Error("failed to persist finalization artifact",
					zap.String("application_id", app.ID), zap.Error(err))
			}
		}
	}
	s.publishEvent(ctx, events.Event{
		Type:          events.EventApplicationFinalized,
		ApplicationID: app.ID,
		Actor:         eventActor(actor),
		Payload: events.ApplicationFinalizedPayload{
			Status:     app.Status,
			CitizenID:  app.CitizenID,
			TrackingID: app.TrackingID,
			ArtifactID: app.FinalizationArtifact,
		},
	})
}

func (s *LifecycleService) recordStatusChange(ctx context.Context, actor domain.Actor, applicationID string, oldStatus, newStatus domain.ApplicationStatus, comment string) error {
	return s.history.Create(ctx, &domain.ApplicationHistory{
		ApplicationID: applicationID,
		ChangedByType: actor.Type,
		ChangedByID:   actor.ID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": oldStatus},
		NewValue:      map[string]any{"status": newStatus},
		Comment:       comment,
	})
}

func (s *LifecycleService) recordAssignment(ctx context.Context, actor domain.Actor, applicationID string, oldStatus domain.ApplicationStatus, oldOfficer, newOfficer *string) error {
	return s.history.Create(ctx, &domain.ApplicationHistory{
		ApplicationID: applicationID,
		ChangedByType: actor.Type,
		ChangedByID:   actor.ID,
		ChangeType:    domain.ChangeTypeAssignment,
		OldValue: map[string]any{
			"status":     oldStatus,
			"officer_id": oldOfficer,
		},
		NewValue: map[string]any{
			"status":     domain.ApplicationStatusAssigned,
			"officer_id": newOfficer,
		},
	})
}

func (s *LifecycleService) recordEscalation(ctx context.Context, actor domain.Actor, applicationID string, oldLevel, newLevel int, oldOfficer, newOfficer *string, reason string) error {
	return s.history.Create(ctx, &domain.ApplicationHistory{
		ApplicationID: applicationID,
		ChangedByType: actor.Type,
		ChangedByID:   actor.ID,
		ChangeType:    domain.ChangeTypeEscalation,
		OldValue: map[string]any{
			"escalation_level": oldLevel,
			"officer_id":       oldOfficer,
		},
		NewValue: map[string]any{
			"escalation_level": newLevel,
			"officer_id":       newOfficer,
		},
		Comment: reason,
	})
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor domain.Actor) events.Actor {
	out := events.Actor{Type: actor.Type}
	switch actor.Type {
	case domain.ActorTypeCitizen:
		out.CitizenID = actor.ID
	case domain.ActorTypeOfficer:
		out.OfficerID = actor.ID
	}
	return out
}
