package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// FinalizationService forces a terminal decision on applications past their
// unconditional deadline. It is the backstop: pending escalation state never
// blocks it, and because terminal statuses are absorbing the scan is safe to
// run as often as desired.
type FinalizationService struct {
	applications repository.ApplicationRepository
	lifecycle    *LifecycleService
	logger       *zap.Logger
	scanLimit    int
	now          func() time.Time
}

// NewFinalizationService constructs the service.
func NewFinalizationService(applicationRepo repository.ApplicationRepository, lifecycle *LifecycleService, logger *zap.Logger) *FinalizationService {
	return &FinalizationService{
		applications: applicationRepo,
		lifecycle:    lifecycle,
		logger:       logger,
		scanLimit:    500,
		now:          time.Now,
	}
}

// RunOnce performs a single auto-approval scan. Per-item failures are logged
// and retried on the next tick.
func (s *FinalizationService) RunOnce(ctx context.Context) error {
	overdue, err := s.applications.ListOverdueAutoApproval(ctx, s.now(), s.scanLimit)
	if err != nil {
		return err
	}
	for i := range overdue {
		app := &overdue[i]
		_, err := s.lifecycle.ApplyTransition(ctx, app.ID, domain.ApplicationStatusAutoApproved, domain.SystemActor(), AutoApprovalComment)
		if err != nil {
			// A concurrent terminal transition between the scan and the
			// write is a no-op, not a failure.
			if apperrors.IsCode(err, "INVALID_TRANSITION") {
				continue
			}
			s.logger.Error("auto-approval failed; will retry next tick",
				zap.String("application_id", app.ID), zap.Error(err))
			continue
		}
		s.logger.Info("application auto-approved",
			zap.String("application_id", app.ID),
			zap.String("tracking_id", app.TrackingID))
	}
	return nil
}
