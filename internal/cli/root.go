package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/specrun/internal/config"
	"github.com/roach88/specrun/internal/loader"
	"github.com/roach88/specrun/internal/report"
	"github.com/roach88/specrun/internal/store"
)

// RootOptions holds global flags for all commands, plus the hooks a custom
// main or a test can set before building the command tree.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"; empty defers to the config file
	Config  string
	Color   string

	// Registry holds compiled-in units. Nil means scenario files only.
	Registry *loader.Registry
	// ConfigDir is searched for .specrun.toml when --config is not given.
	ConfigDir string

	Getenv func(string) string
	Now    func() time.Time
	IDs    store.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// NewRootCommand creates the root command for the specrun CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{})
}

// NewRootCommandWith creates the root command around opts.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specrun",
		Short: "specrun - nested spec runner with snapshot assertions",
		Long: `Run nested suites of specs from a test file, with before/after hooks,
fault classification and file-backed snapshot assertions.

Exit codes: 0 success, 1 failures, 2 errors, 3 load error or no tests.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "" && !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := report.ParseColorMode(opts.Color); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text), default from config or text")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to config file (default ./"+config.FileName+" when present)")
	cmd.PersistentFlags().StringVar(&opts.Color, "color", "", "color output (auto|always|never)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// resolveConfig loads the config file and applies the global flags over it.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	var cfg config.Config
	var err error
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
	} else {
		dir := opts.ConfigDir
		if dir == "" {
			dir = "."
		}
		cfg, err = config.LoadDefault(dir)
	}
	if err != nil {
		return config.Config{}, err
	}

	if opts.Format != "" {
		cfg.Format = opts.Format
	}
	if opts.Color != "" {
		cfg.Color = report.ColorMode(opts.Color)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger writes diagnostics to w: Info by default, Debug with --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
