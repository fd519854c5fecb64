package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/tastebook/internal/reliability/retry"
)

// Recomputer rebuilds place aggregates; household "" means every household
type Recomputer interface {
	RecomputeAll(ctx context.Context, household string) (int, error)
}

// ReconcileWorker periodically rebuilds every place's aggregates from its visits,
// repairing drift left by writes that bypassed the services
type ReconcileWorker struct {
	recomputer Recomputer
	logger     *slog.Logger
	interval   time.Duration
	retry      *retry.Config
}

// NewReconcileWorker creates a new reconcile worker
func NewReconcileWorker(recomputer Recomputer, logger *slog.Logger, interval time.Duration) *ReconcileWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileWorker{
		recomputer: recomputer,
		logger:     logger,
		interval:   interval,
		retry: &retry.Config{
			MaxAttempts:       3,
			InitialBackoff:    time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2,
		},
	}
}

// Start runs the reconcile loop until ctx is cancelled
func (w *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reconcile worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs one full pass and reports how many places were rebuilt
func (w *ReconcileWorker) RunOnce(ctx context.Context) int {
	start := time.Now()
	n, err := retry.Do(ctx, w.retry, w.logger, "reconcile aggregates", func(ctx context.Context) (int, error) {
		return w.recomputer.RecomputeAll(ctx, "")
	})
	if err != nil {
		w.logger.Error("reconcile pass failed", slog.String("error", err.Error()))
		return n
	}
	w.logger.Info("reconcile pass finished",
		slog.Int("places", n),
		slog.Duration("duration", time.Since(start)),
	)
	return n
}
