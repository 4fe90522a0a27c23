// Package export pushes portfolio figures to external destinations: a daily
// net-worth row appended to a Google Sheet and on-demand XLSX reports.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/portfel/tracker/internal/domain"
)

// RowAppender appends one dated summary row to a spreadsheet destination.
type RowAppender interface {
	Append(ctx context.Context, date time.Time, summary domain.Summary) error
}

// Service forwards each generated snapshot to the configured spreadsheet.
// Implements worker.AfterSnapshotHook.
type Service struct {
	writer RowAppender
}

// NewService creates a new export Service.
func NewService(writer RowAppender) *Service {
	return &Service{writer: writer}
}

// Export appends today's summary to the spreadsheet.
func (s *Service) Export(ctx context.Context, summary domain.Summary) error {
	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.writer.Append(ctx, date, summary); err != nil {
		return fmt.Errorf("appending summary row: %w", err)
	}
	return nil
}
