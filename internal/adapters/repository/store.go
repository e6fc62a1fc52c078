// Package repository defines the report-history store interface and errors.
package repository

import (
	"context"

	"github.com/okian/bikefit/internal/domain/model"
	"github.com/okian/bikefit/internal/domain/types"
)

// Store provides durable read/write access to completed fit reports.
type Store interface {
	// SaveReport persists a completed report. Saving the same ID twice
	// replaces the stored copy.
	SaveReport(ctx context.Context, report *model.FitReport) error

	// Report returns a stored report by ID.
	// Returns ErrNotFound if the ID is unknown.
	Report(ctx context.Context, id string) (*model.FitReport, error)

	// RecentReports returns up to n report summaries, newest first.
	RecentReports(ctx context.Context, n int) ([]types.ReportSummary, error)

	// Count returns the number of reports stored.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying database handle.
	Close() error
}
