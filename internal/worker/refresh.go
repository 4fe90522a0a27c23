package worker

import (
	"context"
	"log/slog"
	"time"
)

// Refresher defines the interface for fetching and storing market data.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshWorker periodically refreshes prices and FX rates.
type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration
}

// NewRefreshWorker creates a new RefreshWorker.
func NewRefreshWorker(refresher Refresher, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		interval:  interval,
	}
}

// Run starts the refresh worker loop. It blocks until the context is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) {
	slog.Info("RefreshWorker: starting")

	// Refresh immediately on startup
	if err := w.refresher.Refresh(ctx); err != nil {
		slog.Error("RefreshWorker: initial refresh failed", "error", err)
	} else {
		slog.Info("RefreshWorker: initial refresh completed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RefreshWorker: shutting down")
			return
		case <-ticker.C:
			if err := w.refresher.Refresh(ctx); err != nil {
				slog.Error("RefreshWorker: refresh failed", "error", err)
			} else {
				slog.Info("RefreshWorker: refresh completed")
			}
		}
	}
}
