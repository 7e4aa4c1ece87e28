package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FinalizationStamper produces a durable finalization artifact for an
// application reaching a terminal-approval status. The real implementation
// lives outside this service; stamping failures are logged and never revert
// the status transition.
type FinalizationStamper interface {
	Stamp(ctx context.Context, applicationID string) (string, error)
}

// HashStamper is the in-process stamper: it derives a deterministic artifact
// id from the application id and stamp time and logs it. It stands in for
// the external artifact store.
type HashStamper struct {
	logger *zap.Logger
}

// NewHashStamper constructs the stamper.
func NewHashStamper(logger *zap.Logger) *HashStamper {
	return &HashStamper{logger: logger}
}

// Stamp returns the artifact id for the application.
func (s *HashStamper) Stamp(_ context.Context, applicationID string) (string, error) {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", applicationID, time.Now().UnixNano())))
	artifactID := hex.EncodeToString(sum[:16])
	if s.logger != nil {
		s.logger.Info("finalization artifact stamped",
			zap.String("application_id", applicationID),
			zap.String("artifact_id", artifactID))
	}
	return artifactID, nil
}
