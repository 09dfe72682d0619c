package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Separator closes every rendered summary.
const Separator = "========================================"

const detailIndent = "            "

// ColorMode controls ANSI coloring of outcome labels.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color setting. Empty means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways, ColorNever:
		return ColorMode(s), nil
	default:
		return "", fmt.Errorf("invalid color mode %q: must be one of auto, always, never", s)
	}
}

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiMagenta = "\x1b[35m"
)

// TextReporter streams human-readable lines as outcomes arrive.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter writing to w.
// With ColorAuto, color is enabled only when w is a terminal.
func NewTextReporter(w io.Writer, mode ColorMode) *TextReporter {
	return &TextReporter{w: w, color: useColor(w, mode)}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *TextReporter) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + ansiReset
}

// Begin prints the file header.
func (r *TextReporter) Begin(file string) {
	fmt.Fprintf(r.w, "Testing: \t%s\n", file)
}

// Outcome prints one classified record with its message and trace.
func (r *TextReporter) Outcome(rec Record) {
	var label string
	switch rec.Outcome {
	case Pass:
		label = r.paint(ansiGreen, "Success")
	case Fail:
		label = r.paint(ansiRed, "Fail")
	default:
		label = r.paint(ansiMagenta, "Errors")
	}
	fmt.Fprintf(r.w, "%s\t||\t%s\n", label, rec.Description())
	if rec.Outcome == Pass {
		return
	}
	r.details(rec.Message)
	if len(rec.Trace) > 0 {
		fmt.Fprintf(r.w, "%sstack traceback:\n", detailIndent)
		for _, frame := range rec.Trace {
			fmt.Fprintf(r.w, "%s  %s\n", detailIndent, frame)
		}
	}
}

func (r *TextReporter) details(msg string) {
	if msg == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		fmt.Fprintf(r.w, "%s%s\n", detailIndent, line)
	}
}

// Pending prints a pending spec.
func (r *TextReporter) Pending(path []string) {
	fmt.Fprintf(r.w, "%s\t||\t%s\n", r.paint(ansiYellow, "Pending"), strings.Join(path, " "))
}

// End prints counts, then snapshot stats when nonzero, then the separator.
func (r *TextReporter) End(sum Summary) {
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "%s: \t%d\n", r.paint(ansiGreen, "Success"), sum.Passed)
	fmt.Fprintf(r.w, "%s : \t%d\n", r.paint(ansiRed, "Failed"), sum.Failed)
	fmt.Fprintf(r.w, "%s : \t%d\n", r.paint(ansiMagenta, "Errors"), sum.Errors)
	if sum.Updated > 0 {
		fmt.Fprintf(r.w, "Updated: \t%d\n", sum.Updated)
	}
	if sum.Removed > 0 {
		fmt.Fprintf(r.w, "Removed: \t%d\n", sum.Removed)
	}
	fmt.Fprintln(r.w, Separator)
}

// LoadFailed prints why the file could not be loaded.
func (r *TextReporter) LoadFailed(file string, err error) {
	fmt.Fprintf(r.w, "%s\t||\t%s\n", r.paint(ansiMagenta, "Errors"), file)
	r.details(fmt.Sprintf("failed to load test file: %v", err))
}

// NoTests prints that the file declared nothing to run.
func (r *TextReporter) NoTests(file string) {
	fmt.Fprintf(r.w, "No tests found in %s\n", file)
}
