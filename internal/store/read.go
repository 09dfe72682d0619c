package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/specrun/internal/report"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, file, started_at, duration_ns, mode, exit_code, passed, failed, errors, pending, updated, removed`

// ListRuns returns runs newest first, without their records.
// An empty file lists every file; limit <= 0 means no limit.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context, file string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE ? = '' OR file = ?
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, file, file, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its records in classification order.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	run.Records, err = s.readRecords(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) readRecords(ctx context.Context, runID string) ([]report.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, outcome, message, trace
		FROM records
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	recs := []report.Record{}
	for rows.Next() {
		var path, outcome, message, trace string
		if err := rows.Scan(&path, &outcome, &message, &trace); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec := report.Record{Message: message}
		if rec.Path, err = unmarshalStrings("path", path); err != nil {
			return nil, err
		}
		if rec.Trace, err = unmarshalStrings("trace", trace); err != nil {
			return nil, err
		}
		if rec.Outcome, err = report.ParseOutcome(outcome); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return recs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var startedAt, durationNs int64
	sum := &run.Summary
	err := row.Scan(
		&run.ID, &run.File, &startedAt, &durationNs, &run.Mode, &run.ExitCode,
		&sum.Passed, &sum.Failed, &sum.Errors, &sum.Pending, &sum.Updated, &sum.Removed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.Duration = time.Duration(durationNs)
	return run, nil
}
