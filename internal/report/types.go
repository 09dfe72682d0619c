package report

import (
	"fmt"
	"strings"
)

// Outcome classifies a record.
type Outcome int

const (
	// Pass means a spec body returned without failing.
	Pass Outcome = iota
	// Fail means a spec body failed an assertion or faulted.
	Fail
	// Error means a suite body (or the file itself) faulted outside any spec.
	Error
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome as its lowercase name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses a lowercase outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "pass":
		return Pass, nil
	case "fail":
		return Fail, nil
	case "error":
		return Error, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// Record is the immutable result of one spec, or of one faulting suite body.
type Record struct {
	Path    []string `json:"path"`
	Outcome Outcome  `json:"outcome"`
	Message string   `json:"message,omitempty"`
	Trace   []string `json:"trace,omitempty"`
}

// Description joins the path the way it is displayed.
func (r Record) Description() string {
	return strings.Join(r.Path, " ")
}

// Summary is a read-only tally of a run.
type Summary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errors  int `json:"errors"`
	Pending int `json:"pending"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Signal is the condition a run reports to its host process.
type Signal int

const (
	// SignalSuccess means every spec passed.
	SignalSuccess Signal = iota
	// SignalFailures means at least one spec failed and nothing errored.
	SignalFailures
	// SignalErrors means at least one suite body or the file faulted.
	SignalErrors
	// SignalLoadError means the file could not be loaded or declared no tests.
	SignalLoadError
)

func (s Signal) String() string {
	switch s {
	case SignalSuccess:
		return "success"
	case SignalFailures:
		return "failures"
	case SignalErrors:
		return "errors"
	case SignalLoadError:
		return "load-error"
	default:
		return "unknown"
	}
}

// ExitCode maps the signal to a process exit status: 0 success, 1 failures,
// 2 errors, 3 load error or no tests.
func (s Signal) ExitCode() int {
	return int(s)
}

// Signal decides the exit condition: errors beat failures beat success.
func (s Summary) Signal() Signal {
	switch {
	case s.Errors > 0:
		return SignalErrors
	case s.Failed > 0:
		return SignalFailures
	default:
		return SignalSuccess
	}
}
