package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/portfel/tracker/internal/domain"
)

// SnapshotGenerator defines the interface for generating summary snapshots.
type SnapshotGenerator interface {
	Generate(ctx context.Context, date time.Time) (domain.Summary, error)
}

// AfterSnapshotHook is called after each successful snapshot generation.
type AfterSnapshotHook interface {
	Export(ctx context.Context, summary domain.Summary) error
}

// SnapshotWorker periodically persists the portfolio summary, building the
// net-worth history.
type SnapshotWorker struct {
	generator SnapshotGenerator
	interval  time.Duration
	hook      AfterSnapshotHook // optional
}

// NewSnapshotWorker creates a new SnapshotWorker with an optional post-generation hook.
func NewSnapshotWorker(generator SnapshotGenerator, interval time.Duration, hook AfterSnapshotHook) *SnapshotWorker {
	return &SnapshotWorker{
		generator: generator,
		interval:  interval,
		hook:      hook,
	}
}

// runHook calls the post-generation hook if one is configured.
func (w *SnapshotWorker) runHook(ctx context.Context, summary domain.Summary) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, summary); err != nil {
		slog.Error("SnapshotWorker: export hook failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: export hook completed")
	}
}

// utcDate returns the current date normalized to midnight UTC.
func utcDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// generate runs one snapshot pass.
func (w *SnapshotWorker) generate(ctx context.Context, phase string) {
	summary, err := w.generator.Generate(ctx, utcDate())
	if err != nil {
		slog.Error("SnapshotWorker: "+phase+" generation failed", "error", err)
		return
	}
	slog.Info("SnapshotWorker: "+phase+" generation completed", "netWorth", summary.NetWorth)
	w.runHook(ctx, summary)
}

// Run starts the snapshot worker loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting")

	// Generate immediately on startup
	w.generate(ctx, "initial")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.generate(ctx, "scheduled")
		}
	}
}
