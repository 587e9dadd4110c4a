package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/club-pata-amiga/backend/internal/notifications"
)

// SweepInterval between expired-notification cleanups.
const SweepInterval = time.Hour

// Sweeper periodically removes expired notifications.
type Sweeper struct {
	repo   *notifications.Repository
	logger *zap.Logger
}

// NewSweeper creates a notification sweeper.
func NewSweeper(repo *notifications.Repository, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{repo: repo, logger: logger}
}

// Run sweeps once at startup and then on a fixed interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Warn("notification sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("expired notifications removed", zap.Int64("count", removed))
	}
}
