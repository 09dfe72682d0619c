// Package runner executes one test file end to end: load, run, flush
// snapshots, report and decide the exit signal.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/specrun/internal/engine"
	"github.com/roach88/specrun/internal/loader"
	"github.com/roach88/specrun/internal/report"
	"github.com/roach88/specrun/internal/snapshot"
	"github.com/roach88/specrun/internal/store"
)

// ErrNoTests is reported when a file loads but declares no suite, spec or
// pending spec.
var ErrNoTests = errors.New("no tests found")

// Runner runs test files. The zero value is not usable: Loader is required.
type Runner struct {
	Loader   loader.Loader
	Reporter report.Reporter

	// Getenv reads the update toggle. Nil means os.Getenv.
	Getenv func(string) string
	// EnvVar names the update toggle. Empty means snapshot.DefaultEnvVar.
	EnvVar string
	// SnapshotDir is the store directory beside each test file.
	SnapshotDir string

	Logger *slog.Logger

	// History, when set, receives one row per run.
	History *store.Store
	IDs     store.IDGenerator
	Now     func() time.Time
}

// Outcome is what one file run produced.
type Outcome struct {
	File    string
	Mode    snapshot.Mode
	Signal  report.Signal
	Summary report.Summary
	Records []report.Record

	// Err is the load failure, or ErrNoTests.
	Err error

	// RunID is the history row written for this run, if any.
	RunID string
}

// Run executes the file at path.
//
// Load failures and empty files are not errors: they are reported and
// produce SignalLoadError. An error is returned only when ctx ends before
// the file has finished running. The body running at that moment is left
// on its goroutine and is not waited for; nothing reads its results.
func (r *Runner) Run(ctx context.Context, path string) (*Outcome, error) {
	logger := r.logger()
	reporter := r.reporter()
	now := r.now()
	started := now()

	envVar := r.EnvVar
	if envVar == "" {
		envVar = snapshot.DefaultEnvVar
	}
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	mode := snapshot.ModeFromEnv(getenv, envVar)
	out := &Outcome{File: path, Mode: mode}

	logger.Debug("running test file", "file", path, "mode", mode)
	reporter.Begin(path)

	unit, err := r.Loader.Load(path)
	if err != nil {
		logger.Debug("test file failed to load", "file", path, "error", err)
		reporter.LoadFailed(path, err)
		out.Signal, out.Err = report.SignalLoadError, err
		r.recordHistory(ctx, out, started, now())
		return out, nil
	}

	session := snapshot.NewSession(snapshot.PathFor(path, r.SnapshotDir), mode, snapshot.WithLogger(logger))
	rc := engine.NewRunContext(ctx,
		engine.WithFile(path),
		engine.WithReporter(reporter),
		engine.WithSnapshots(session),
		engine.WithUpdateEnv(envVar),
		engine.WithLogger(logger),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rc.Run(unit)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("run %s: %w", path, ctx.Err())
	}

	results := rc.Results()
	if results == nil {
		reporter.NoTests(path)
		out.Signal, out.Err = report.SignalLoadError, fmt.Errorf("%s: %w", path, ErrNoTests)
		r.recordHistory(ctx, out, started, now())
		return out, nil
	}

	stats, err := session.Flush()
	if err != nil {
		logger.Error("snapshot flush failed", "file", path, "store", session.Path(), "error", err)
		results.Record(report.Record{
			Path:    []string{filepath.Base(path)},
			Outcome: report.Error,
			Message: fmt.Sprintf("snapshot flush failed: %v", err),
		})
	}
	results.SetSnapshotStats(stats.Updated, stats.Removed)
	if stats.Updated > 0 || stats.Removed > 0 {
		logger.Info("snapshots written", "store", session.Path(), "updated", stats.Updated, "removed", stats.Removed)
	}

	out.Summary = results.Summary()
	out.Records = results.All()
	out.Signal = out.Summary.Signal()
	reporter.End(out.Summary)

	r.recordHistory(ctx, out, started, now())
	return out, nil
}

// recordHistory appends the run to History. A failed write is logged and
// does not change the outcome.
func (r *Runner) recordHistory(ctx context.Context, out *Outcome, started, finished time.Time) {
	if r.History == nil {
		return
	}
	ids := r.IDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	run := store.Run{
		ID:        ids.Generate(),
		File:      out.File,
		StartedAt: started,
		Duration:  finished.Sub(started),
		Mode:      out.Mode.String(),
		ExitCode:  out.Signal.ExitCode(),
		Summary:   out.Summary,
		Records:   out.Records,
	}
	if err := r.History.WriteRun(ctx, run); err != nil {
		r.logger().Warn("failed to record run history", "file", out.File, "error", err)
		return
	}
	out.RunID = run.ID
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (r *Runner) reporter() report.Reporter {
	if r.Reporter != nil {
		return r.Reporter
	}
	return report.NewTextReporter(io.Discard, report.ColorNever)
}

func (r *Runner) now() func() time.Time {
	if r.Now != nil {
		return r.Now
	}
	return time.Now
}
