// Package snapshot persists daily portfolio summaries and serves
// the net-worth history built from them.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/portfel/tracker/internal/domain"
)

// SummarySource computes the current portfolio summary.
type SummarySource interface {
	Summary(ctx context.Context) (domain.Summary, error)
}

// Service generates and retrieves summary snapshots.
type Service struct {
	source SummarySource
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new snapshot service.
func NewService(source SummarySource, repo Repository, logger *slog.Logger) *Service {
	if source == nil {
		panic("source is nil")
	}
	if repo == nil {
		panic("repo is nil")
	}
	return &Service{
		source: source,
		repo:   repo,
		logger: logger,
	}
}

// Generate computes the current summary and stores it under the given date.
// An existing snapshot for the same date is overwritten.
func (s *Service) Generate(ctx context.Context, date time.Time) (domain.Summary, error) {
	summary, err := s.source.Summary(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("computing summary: %w", err)
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("marshaling summary: %w", err)
	}

	if err := s.repo.Save(ctx, date, data); err != nil {
		return domain.Summary{}, fmt.Errorf("saving snapshot: %w", err)
	}

	s.logger.Info("snapshot saved",
		"date", date.Format("2006-01-02"),
		"net_worth", summary.NetWorth.String(),
		"degraded", summary.Degraded)

	return summary, nil
}

// GetLatest returns the most recent snapshot.
func (s *Service) GetLatest(ctx context.Context) (*Snapshot, error) {
	return s.repo.GetLatest(ctx)
}

// GetByDate returns the snapshot stored for the given date.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, date)
}

// History returns up to limit recent snapshots, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, limit)
}
