package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/specrun/internal/report"
)

// Run is one file run as kept in the history.
type Run struct {
	ID        string
	File      string
	StartedAt time.Time
	Duration  time.Duration
	Mode      string
	ExitCode  int
	Summary   report.Summary

	// Records is filled by GetRun and written by WriteRun. ListRuns leaves it nil.
	Records []report.Record
}

// WriteRun inserts a run and its records in a single transaction.
// A run ID that already exists is an error: history is append-only.
func (s *Store) WriteRun(ctx context.Context, run Run) (err error) {
	if run.ID == "" {
		return errors.New("write run: missing id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	sum := run.Summary
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, file, started_at, duration_ns, mode, exit_code, passed, failed, errors, pending, updated, removed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.File,
		run.StartedAt.UTC().UnixNano(),
		run.Duration.Nanoseconds(),
		run.Mode,
		run.ExitCode,
		sum.Passed, sum.Failed, sum.Errors, sum.Pending, sum.Updated, sum.Removed,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	for i, rec := range run.Records {
		path, err := marshalStrings("path", rec.Path)
		if err != nil {
			return fmt.Errorf("write run: %w", err)
		}
		trace, err := marshalStrings("trace", rec.Trace)
		if err != nil {
			return fmt.Errorf("write run: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO records (run_id, seq, path, outcome, message, trace)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i+1, path, rec.Outcome.String(), rec.Message, trace)
		if err != nil {
			return fmt.Errorf("write record %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
