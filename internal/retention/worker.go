// Package retention removes recorded sessions that have not been touched
// within the retention window.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/eventplanner/internal/store"
)

// DefaultInterval is how often the worker sweeps.
const DefaultInterval = 15 * time.Minute

// Expirer deletes sessions older than maxAge and reports which.
type Expirer interface {
	DeleteExpiredSessions(ctx context.Context, maxAge time.Duration) ([]store.SessionRef, error)
}

// CleanupCallback is called for every session removed by a sweep.
type CleanupCallback func(ref store.SessionRef)

// Worker periodically sweeps expired sessions.
type Worker struct {
	repo      Expirer
	retention time.Duration
	interval  time.Duration
	onCleanup CleanupCallback
}

// NewWorker creates a worker. A non-positive interval uses DefaultInterval.
func NewWorker(repo Expirer, retention, interval time.Duration, onCleanup CleanupCallback) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{repo: repo, retention: retention, interval: interval, onCleanup: onCleanup}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Retention of zero or less disables the worker.
func (w *Worker) Run(ctx context.Context) error {
	if w.retention <= 0 {
		slog.Info("Retention worker disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	slog.Info("Retention worker started", "interval", w.interval, "retention", w.retention)

	w.Sweep(ctx)
	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)
		case <-ctx.Done():
			slog.Info("Retention worker shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

// Sweep deletes expired sessions once and returns how many were removed.
func (w *Worker) Sweep(ctx context.Context) int {
	deleted, err := w.repo.DeleteExpiredSessions(ctx, w.retention)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("Retention sweep interrupted", "error", err)
			return 0
		}
		slog.Error("Retention worker failed to delete expired sessions", "error", err)
		return 0
	}
	if len(deleted) == 0 {
		return 0
	}

	for _, ref := range deleted {
		if w.onCleanup != nil {
			w.onCleanup(ref)
		}
	}
	slog.Info("Retention worker cleanup completed", "deleted", len(deleted))
	return len(deleted)
}
