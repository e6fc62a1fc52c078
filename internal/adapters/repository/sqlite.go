package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/bikefit/internal/domain/model"
	"github.com/okian/bikefit/internal/domain/types"
	"github.com/okian/bikefit/pkg/metrics"
)

// SQLiteStore implements Store on an embedded SQLite database. Scalar
// columns carry the fields history listings query on; the full report is
// kept as a JSON document.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the
// schema. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// from fragmenting across pool connections.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	const createTable = `
CREATE TABLE IF NOT EXISTS fit_reports (
  id TEXT PRIMARY KEY,
  created_at TEXT NOT NULL,
  overall_score INTEGER NOT NULL,
  summary TEXT NOT NULL,
  report_json TEXT NOT NULL
);
`
	if _, err := s.db.Exec(createTable); err != nil {
		return fmt.Errorf("create fit_reports table: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_fit_reports_created_at ON fit_reports(created_at);`); err != nil {
		return fmt.Errorf("create created_at index: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// SaveReport persists a completed report, replacing any existing row with
// the same ID.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.FitReport) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO fit_reports (id, created_at, overall_score, summary, report_json)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  created_at = excluded.created_at,
  overall_score = excluded.overall_score,
  summary = excluded.summary,
  report_json = excluded.report_json
`, report.ID, report.CreatedAt.UTC().Format(time.RFC3339Nano), report.OverallScore, report.Summary, string(doc))
	if err != nil {
		return fmt.Errorf("insert report %s: %w", report.ID, err)
	}
	return nil
}

// Report returns a stored report by ID.
func (s *SQLiteStore) Report(ctx context.Context, id string) (*model.FitReport, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM fit_reports WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query report %s: %w", id, err)
	}

	var report model.FitReport
	if err := json.Unmarshal([]byte(doc), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

// RecentReports returns up to n report summaries, newest first.
func (s *SQLiteStore) RecentReports(ctx context.Context, n int) ([]types.ReportSummary, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, overall_score, summary
FROM fit_reports
ORDER BY created_at DESC
LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer rows.Close()

	summaries := make([]types.ReportSummary, 0, n)
	for rows.Next() {
		var (
			summary   types.ReportSummary
			createdAt string
		)
		if err := rows.Scan(&summary.ID, &createdAt, &summary.OverallScore, &summary.Summary); err != nil {
			return nil, fmt.Errorf("scan report summary: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %w", summary.ID, err)
		}
		summary.CreatedAt = ts
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report summaries: %w", err)
	}
	return summaries, nil
}

// Count returns the number of reports stored.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fit_reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}
