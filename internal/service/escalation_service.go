package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
)

// noHigherTierComment is recorded when a breach is detected in a department
// that has nobody above the current tier.
const noHigherTierComment = "no higher-tier officer available; escalation flagged only"

const slaBreachComment = "sla deadline breached; re-routed to higher tier"

// EscalationService scans for SLA breaches and re-routes each breached
// application to the lowest sufficient higher tier. A failure on one
// application is logged and never aborts the rest of the scan; the item is
// retried on the next tick.
type EscalationService struct {
	applications repository.ApplicationRepository
	officers     repository.OfficerRepository
	lifecycle    *LifecycleService
	selector     *AssignmentService
	logger       *zap.Logger
	scanLimit    int
	now          func() time.Time
}

// NewEscalationService constructs the service.
func NewEscalationService(applicationRepo repository.ApplicationRepository, officerRepo repository.OfficerRepository, lifecycle *LifecycleService, selector *AssignmentService, logger *zap.Logger) *EscalationService {
	return &EscalationService{
		applications: applicationRepo,
		officers:     officerRepo,
		lifecycle:    lifecycle,
		selector:     selector,
		logger:       logger,
		scanLimit:    500,
		now:          time.Now,
	}
}

// RunOnce performs a single escalation scan. Each breached application is
// escalated at most once per run; the escalation recomputes a fresh SLA
// deadline from the priority, so the same breach cannot fire again until the
// new window lapses.
func (s *EscalationService) RunOnce(ctx context.Context) error {
	overdue, err := s.applications.ListOverdueSLA(ctx, s.now(), s.scanLimit)
	if err != nil {
		return err
	}
	for i := range overdue {
		app := &overdue[i]
		if err := s.escalateOne(ctx, app); err != nil {
			s.logger.Error("escalation failed; will retry next tick",
				zap.String("application_id", app.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *EscalationService) escalateOne(ctx context.Context, app *domain.Application) error {
	currentTier := 1
	if app.OfficerID != nil {
		officer, err := s.officers.GetByID(ctx, *app.OfficerID)
		if err != nil {
			return err
		}
		currentTier = officer.HierarchyLevel
	}

	target, err := s.selector.SelectEscalationOfficer(ctx, app.Department, currentTier)
	if err != nil {
		return err
	}

	newLevel := app.EscalationLevel + 1
	if target == nil {
		// Top of the hierarchy already; flag the breach, keep the officer.
		_, err = s.lifecycle.Escalate(ctx, app.ID, newLevel, nil, domain.SystemActor(), noHigherTierComment)
		if err == nil {
			s.logger.Info("escalation flagged without reassignment",
				zap.String("application_id", app.ID),
				zap.String("department", app.Department),
				zap.Int("level", newLevel))
		}
		return err
	}

	_, err = s.lifecycle.Escalate(ctx, app.ID, newLevel, &target.ID, domain.SystemActor(), slaBreachComment)
	if err == nil {
		s.logger.Info("application escalated",
			zap.String("application_id", app.ID),
			zap.String("officer_id", target.ID),
			zap.Int("tier", target.HierarchyLevel),
			zap.Int("level", newLevel))
	}
	return err
}
