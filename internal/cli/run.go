package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/specrun/internal/config"
	"github.com/roach88/specrun/internal/loader"
	"github.com/roach88/specrun/internal/report"
	"github.com/roach88/specrun/internal/runner"
	"github.com/roach88/specrun/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Update      bool
	SnapshotDir string
	History     string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Run test files",
		Long: `Run one or more test files and report every spec.

Files are run one after another, each with fresh state. Scenario files
(.yaml, .yml, .cue) are parsed; other names are looked up among the
compiled-in units.

Snapshots are verified against the store beside each file. Pass --update,
or set the configured environment toggle (SPECRUN_UPDATE_SNAPSHOTS=1 by
default), to record them instead.

Example:
  specrun run tests/math.yaml
  specrun run --update tests/render.cue
  specrun run --format json --history .specrun/history.db tests/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Update, "update", "u", false, "record snapshots instead of verifying them")
	cmd.Flags().StringVar(&opts.SnapshotDir, "snapshot-dir", "", "snapshot directory beside each test file")
	cmd.Flags().StringVar(&opts.History, "history", "", "append runs to this SQLite history database")

	return cmd
}

func runFiles(opts *RunOptions, files []string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.SnapshotDir != "" {
		cfg.SnapshotDir = opts.SnapshotDir
	}
	if opts.History != "" {
		cfg.History = opts.History
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	r := &runner.Runner{
		Loader: &loader.Multi{
			Scenarios: &loader.ScenarioLoader{Logger: logger},
			Registry:  opts.Registry,
		},
		Reporter:    newReporter(cfg, cmd.OutOrStdout()),
		Getenv:      updateEnv(opts, cfg),
		EnvVar:      cfg.UpdateEnv,
		SnapshotDir: cfg.SnapshotDir,
		Logger:      logger,
		IDs:         opts.IDs,
		Now:         opts.Now,
	}

	if cfg.History != "" {
		hist, err := store.Open(cfg.History)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer func() {
			if closeErr := hist.Close(); closeErr != nil {
				logger.Error("error closing history database", "error", closeErr)
			}
		}()
		r.History = hist
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	worst := report.SignalSuccess
	for _, file := range files {
		out, err := r.Run(ctx, file)
		if err != nil {
			return WrapExitError(ExitErrors, "run interrupted", err)
		}
		logger.Debug("test file finished", "file", file, "signal", out.Signal, "run_id", out.RunID)
		worst = max(worst, out.Signal)
	}
	return signalError(worst)
}

func newReporter(cfg config.Config, w io.Writer) report.Reporter {
	if cfg.Format == config.FormatJSON {
		return report.NewJSONReporter(w)
	}
	return report.NewTextReporter(w, cfg.Color)
}

// updateEnv returns the getenv used for mode selection. --update forces
// the configured toggle on.
func updateEnv(opts *RunOptions, cfg config.Config) func(string) string {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if !opts.Update {
		return getenv
	}
	return func(key string) string {
		if key == cfg.UpdateEnv {
			return "1"
		}
		return getenv(key)
	}
}
