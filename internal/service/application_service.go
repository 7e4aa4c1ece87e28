package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// ApplicationService is the request-triggered entry point: it creates
// applications, performs the first assignment attempt, and serves the
// citizen/officer read surfaces.
type ApplicationService struct {
	applications repository.ApplicationRepository
	history      repository.ApplicationHistoryRepository
	lifecycle    *LifecycleService
	selector     *AssignmentService
	dispatcher   events.Dispatcher
	redis        *redis.Client
	windows      config.LifecycleConfig
	logger       *zap.Logger
	now          func() time.Time
}

// ApplicationDependencies bundles collaborators for the application service.
type ApplicationDependencies struct {
	ApplicationRepo repository.ApplicationRepository
	HistoryRepo     repository.ApplicationHistoryRepository
	Lifecycle       *LifecycleService
	Selector        *AssignmentService
	Dispatcher      events.Dispatcher
	Redis           *redis.Client
	Logger          *zap.Logger
}

// SubmitInput describes the submission payload.
type SubmitInput struct {
	Department    string
	SubDepartment *string
	Title         string
	Description   string
	Priority      domain.ApplicationPriority
}

// QueueFilter describes officer queue filters.
type QueueFilter struct {
	Statuses   []domain.ApplicationStatus
	Priorities []domain.ApplicationPriority
	AssignedTo *string
	Limit      int
	Offset     int
}

// NewApplicationService constructs the service.
func NewApplicationService(cfg config.LifecycleConfig, deps ApplicationDependencies) *ApplicationService {
	return &ApplicationService{
		applications: deps.ApplicationRepo,
		history:      deps.HistoryRepo,
		lifecycle:    deps.Lifecycle,
		selector:     deps.Selector,
		dispatcher:   deps.Dispatcher,
		redis:        deps.Redis,
		windows:      cfg,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// Submit creates an application and attempts its first assignment. When the
// department has no eligible officer, the application stays SUBMITTED with
// no officer; that is assignment pending, not a failure.
func (s *ApplicationService) Submit(ctx context.Context, citizenID string, input SubmitInput) (*domain.Application, error) {
	department := strings.TrimSpace(input.Department)
	if department == "" {
		return nil, apperrors.NewValidationError("department required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.ApplicationPriorityLow
	}
	if !domain.IsValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	now := s.now()
	app := &domain.Application{
		TrackingID:           s.nextTrackingID(ctx, now),
		CitizenID:            citizenID,
		Department:           department,
		SubDepartment:        input.SubDepartment,
		Title:                strings.TrimSpace(input.Title),
		Description:          strings.TrimSpace(input.Description),
		Status:               domain.ApplicationStatusSubmitted,
		Priority:             priority,
		SubmittedAt:          now,
		UpdatedAt:            now,
		SLADueAt:             now.Add(s.windows.SLAWindow(string(priority))),
		AutoApprovalDeadline: now.Add(s.windows.AutoApprovalWindow()),
	}

	if err := s.applications.Create(ctx, app); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishSubmitted(ctx, app)

	officer, err := s.selector.SelectOfficer(ctx, department, input.SubDepartment)
	if err != nil {
		// The application exists; surface the selection failure without
		// losing the record.
		s.logger.Error("initial officer selection failed",
			zap.String("application_id", app.ID), zap.Error(err))
		return app, nil
	}
	if officer == nil {
		s.logger.Info("no eligible officer; application left unassigned",
			zap.String("application_id", app.ID),
			zap.String("department", department))
		return app, nil
	}

	assigned, err := s.lifecycle.Assign(ctx, app.ID, officer.ID, domain.SystemActor())
	if err != nil {
		s.logger.Error("initial assignment failed",
			zap.String("application_id", app.ID),
			zap.String("officer_id", officer.ID), zap.Error(err))
		return app, nil
	}
	return assigned, nil
}

// ListForCitizen returns the citizen's applications.
func (s *ApplicationService) ListForCitizen(ctx context.Context, citizenID string, statuses []domain.ApplicationStatus, limit, offset int) ([]domain.Application, error) {
	return s.applications.ListWithFilter(ctx, repository.ApplicationFilter{
		CitizenID: &citizenID,
		Statuses:  statuses,
		Limit:     limit,
		Offset:    offset,
	})
}

// GetForCitizen fetches an application ensuring ownership.
func (s *ApplicationService) GetForCitizen(ctx context.Context, citizenID, applicationID string) (*domain.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.CitizenID != citizenID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return app, nil
}

// ListQueue returns applications visible to the officer: their own
// assignments plus their department's queue. Admins see everything.
func (s *ApplicationService) ListQueue(ctx context.Context, officer *domain.Officer, filter QueueFilter) ([]domain.Application, error) {
	if officer == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	repoFilter := repository.ApplicationFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		OfficerID:  filter.AssignedTo,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	apps, err := s.applications.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	if officer.Role == domain.OfficerRoleAdmin {
		return apps, nil
	}
	// Departments are matched on their short-form prefix, so the scoping
	// happens here rather than in SQL.
	key := departmentKey(officer.Department)
	scoped := apps[:0]
	for _, app := range apps {
		if departmentKey(app.Department) == key {
			scoped = append(scoped, app)
		}
	}
	return scoped, nil
}

// GetForOfficer fetches an application ensuring officer access.
func (s *ApplicationService) GetForOfficer(ctx context.Context, officer *domain.Officer, applicationID string) (*domain.Application, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !officerCanAccess(officer, app) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return app, nil
}

// HistoryForCitizen returns the audit trail for an owned application.
func (s *ApplicationService) HistoryForCitizen(ctx context.Context, citizenID, applicationID string, limit, offset int) ([]domain.ApplicationHistory, error) {
	if _, err := s.GetForCitizen(ctx, citizenID, applicationID); err != nil {
		return nil, err
	}
	return s.history.ListByApplication(ctx, applicationID, limit, offset)
}

// HistoryForOfficer returns the audit trail for an accessible application.
func (s *ApplicationService) HistoryForOfficer(ctx context.Context, officer *domain.Officer, applicationID string, limit, offset int) ([]domain.ApplicationHistory, error) {
	if _, err := s.GetForOfficer(ctx, officer, applicationID); err != nil {
		return nil, err
	}
	return s.history.ListByApplication(ctx, applicationID, limit, offset)
}

func (s *ApplicationService) getApplication(ctx context.Context, applicationID string) (*domain.Application, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("application", map[string]any{"application_id": applicationID})
		}
		return nil, apperrors.MapError(err)
	}
	return app, nil
}

func officerCanAccess(officer *domain.Officer, app *domain.Application) bool {
	if officer == nil {
		return false
	}
	if officer.Role == domain.OfficerRoleAdmin {
		return true
	}
	if app.OfficerID != nil && *app.OfficerID == officer.ID {
		return true
	}
	return departmentKey(officer.Department) == departmentKey(app.Department)
}

// nextTrackingID produces the human-readable yearly-sequential id
// ("GSR-2026-000042"). It is display only: correctness never depends on it,
// so when Redis is unreachable a uuid-derived fallback is used instead of
// failing the submission.
func (s *ApplicationService) nextTrackingID(ctx context.Context, now time.Time) string {
	year := now.Year()
	if s.redis != nil {
		seq, err := s.redis.Incr(ctx, fmt.Sprintf("applications:seq:%d", year)).Result()
		if err == nil {
			return fmt.Sprintf("GSR-%d-%06d", year, seq)
		}
		s.logger.Warn("tracking id sequence unavailable; using fallback", zap.Error(err))
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("GSR-%d-%s", year, suffix)
}

func (s *ApplicationService) publishSubmitted(ctx context.Context, app *domain.Application) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:            uuid.NewString(),
		Type:          events.EventApplicationSubmitted,
		ApplicationID: app.ID,
		Actor:         events.Actor{Type: domain.ActorTypeCitizen, CitizenID: &app.CitizenID},
		Timestamp:     s.now(),
		Payload: events.ApplicationSubmittedPayload{
			TrackingID:    app.TrackingID,
			CitizenID:     app.CitizenID,
			Department:    app.Department,
			SubDepartment: app.SubDepartment,
			Priority:      app.Priority,
			Title:         app.Title,
		},
	})
}
