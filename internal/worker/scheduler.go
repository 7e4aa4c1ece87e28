package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/service"
)

// StartEscalationWorker runs the SLA breach scan on a fixed interval until the
// context is cancelled.
func StartEscalationWorker(ctx context.Context, escalations *service.EscalationService, interval time.Duration, logger *zap.Logger) {
	go runLoop(ctx, "escalation", interval, logger, escalations.RunOnce)
}

// StartFinalizationWorker runs the auto-approval scan on a fixed interval
// until the context is cancelled.
func StartFinalizationWorker(ctx context.Context, finalizations *service.FinalizationService, interval time.Duration, logger *zap.Logger) {
	go runLoop(ctx, "finalization", interval, logger, finalizations.RunOnce)
}

func runLoop(ctx context.Context, name string, interval time.Duration, logger *zap.Logger, run func(context.Context) error) {
	if interval <= 0 {
		interval = time.Minute
	}
	logger.Info("worker started", zap.String("worker", name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped", zap.String("worker", name))
			return
		case <-ticker.C:
			if err := run(ctx); err != nil {
				logger.Error("worker scan failed", zap.String("worker", name), zap.Error(err))
			}
		}
	}
}
