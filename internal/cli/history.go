package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/specrun/internal/report"
	"github.com/roach88/specrun/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	File  string
	Limit int
	RunID string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "List recorded runs",
		Long: `List runs recorded with "specrun run --history", newest first.

Example:
  specrun history .specrun/history.db
  specrun history .specrun/history.db --file tests/math.yaml --limit 5
  specrun history .specrun/history.db --run 01963b9c-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "only runs of this test file")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run with its records")

	return cmd
}

func showHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	formatter := &OutputFormatter{Format: cfg.Format, Writer: cmd.OutOrStdout()}

	if _, err := os.Stat(dbPath); err != nil {
		formatter.Error("E_NOT_FOUND", fmt.Sprintf("history database not found: %s", dbPath))
		return WrapExitError(ExitCommandError, "history database not found", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID != "" {
		run, err := st.GetRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			formatter.Error("E_NOT_FOUND", err.Error())
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		return formatter.Success(runDetail(run))
	}

	runs, err := st.ListRuns(ctx, opts.File, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	listing := make(runListing, len(runs))
	for i, run := range runs {
		listing[i] = newRunView(run)
	}
	return formatter.Success(listing)
}

// runView is the JSON shape of one run.
type runView struct {
	ID         string          `json:"id"`
	File       string          `json:"file"`
	StartedAt  string          `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
	Mode       string          `json:"mode"`
	ExitCode   int             `json:"exit_code"`
	Summary    report.Summary  `json:"summary"`
	Records    []report.Record `json:"records,omitempty"`
}

func newRunView(run store.Run) runView {
	return runView{
		ID:         run.ID,
		File:       run.File,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: run.Duration.Milliseconds(),
		Mode:       run.Mode,
		ExitCode:   run.ExitCode,
		Summary:    run.Summary,
	}
}

type runListing []runView

func (l runListing) String() string {
	if len(l) == 0 {
		return "No runs recorded.\n"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tMODE\tEXIT\tPASS\tFAIL\tERR\tFILE")
	for _, v := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			v.ID, v.StartedAt, v.Mode, v.ExitCode, v.Summary.Passed, v.Summary.Failed, v.Summary.Errors, v.File)
	}
	tw.Flush()
	return b.String()
}

type runDetailView struct {
	runView
}

func runDetail(run store.Run) runDetailView {
	v := newRunView(run)
	v.Records = run.Records
	return runDetailView{v}
}

func (d runDetailView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:      %s\n", d.ID)
	fmt.Fprintf(&b, "File:     %s\n", d.File)
	fmt.Fprintf(&b, "Started:  %s (%dms, %s)\n", d.StartedAt, d.DurationMS, d.Mode)
	fmt.Fprintf(&b, "Exit:     %d\n", d.ExitCode)
	for _, rec := range d.Records {
		fmt.Fprintf(&b, "  %-7s %s\n", rec.Outcome, rec.Description())
		if rec.Message != "" {
			for _, line := range strings.Split(rec.Message, "\n") {
				fmt.Fprintf(&b, "          %s\n", line)
			}
		}
	}
	return b.String()
}
