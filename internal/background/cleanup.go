package background

import (
	"context"
	"log/slog"
	"time"
)

// IdlePruner closes resources unused for longer than maxIdle.
type IdlePruner interface {
	PruneIdle(maxIdle time.Duration) int
}

// CleanupManager periodically closes idle view sessions
type CleanupManager struct {
	pruner   IdlePruner
	maxIdle  time.Duration
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewCleanupManager(pruner IdlePruner, maxIdle time.Duration, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		pruner:   pruner,
		maxIdle:  maxIdle,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs until Stop is called or ctx is cancelled. Run it in its own goroutine.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.runCleanup()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup() {
	if closed := cm.pruner.PruneIdle(cm.maxIdle); closed > 0 {
		cm.logger.Info("idle view sessions closed",
			slog.Int("sessions_closed", closed),
			slog.Duration("max_idle", cm.maxIdle))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
