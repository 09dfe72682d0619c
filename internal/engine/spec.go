package engine

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/stretchr/testify/require"

	"github.com/roach88/specrun/internal/report"
)

// T is handed to a spec body. It satisfies require.TestingT, so testify
// assertions can be used directly:
//
//	s.It("adds", func(t *engine.T) {
//		require.Equal(t, 2, 1+1)
//	})
type T struct {
	rc       *RunContext
	name     string
	path     []string
	failed   bool
	messages []string
	origin   string
	trace    []string
}

var _ require.TestingT = (*T)(nil)

// Name returns the spec's own name.
func (t *T) Name() string {
	return t.name
}

// Path returns the names from the outermost suite down to this spec.
func (t *T) Path() []string {
	return slices.Clone(t.path)
}

// Context returns the run's context.
func (t *T) Context() context.Context {
	return t.rc.ctx
}

// Helper is accepted for compatibility; harness and assertion frames are
// filtered from traces regardless.
func (t *T) Helper() {}

// Log writes to the run logger.
func (t *T) Log(args ...any) {
	t.rc.logger.Info(strings.TrimSuffix(fmt.Sprintln(args...), "\n"), "spec", strings.Join(t.path, " "))
}

// Logf writes to the run logger.
func (t *T) Logf(format string, args ...any) {
	t.rc.logger.Info(fmt.Sprintf(format, args...), "spec", strings.Join(t.path, " "))
}

// Error marks the spec failed and continues.
func (t *T) Error(args ...any) {
	t.fail(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

// Errorf marks the spec failed and continues.
func (t *T) Errorf(format string, args ...any) {
	t.fail(fmt.Sprintf(format, args...))
}

// Fail marks the spec failed without a message.
func (t *T) Fail() {
	t.failed = true
}

// FailNow marks the spec failed and stops its body via runtime.Goexit.
// Like testing.T.FailNow it must be called from the body's goroutine.
func (t *T) FailNow() {
	t.failed = true
	runtime.Goexit()
}

// Fatal is Error followed by FailNow.
func (t *T) Fatal(args ...any) {
	t.fail(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
	t.FailNow()
}

// Fatalf is Errorf followed by FailNow.
func (t *T) Fatalf(format string, args ...any) {
	t.fail(fmt.Sprintf(format, args...))
	t.FailNow()
}

// Failed reports whether the spec has failed so far.
func (t *T) Failed() bool {
	return t.failed
}

// Expect evaluates the named predicate and stops the spec if it does not hold.
// expected is passed to the predicate as its remaining arguments.
func (t *T) Expect(predicate string, actual any, expected ...any) {
	t.expect(predicate, false, actual, expected)
}

// ExpectNot is Expect with the predicate negated.
func (t *T) ExpectNot(predicate string, actual any, expected ...any) {
	t.expect(predicate, true, actual, expected)
}

// MatchSnapshot asserts that v matches the stored snapshot for this call
// site, or records it when the run is updating snapshots.
func (t *T) MatchSnapshot(v any) {
	t.expect(matchSnapshot.Name, false, v, nil)
}

func (t *T) expect(name string, negated bool, actual any, args []any) {
	p, ok := t.rc.predicates[name]
	if !ok {
		panic(fmt.Errorf("unknown predicate %q", name))
	}
	if msg, ok := p.evaluate(t, negated, actual, args); !ok {
		t.fail(msg)
		t.FailNow()
	}
}

// fail records a failure message. The first failure fixes the origin and trace.
func (t *T) fail(msg string) {
	t.failed = true
	origin, trace := normalizeTrace(captureStack(1))
	if t.origin == "" && len(t.messages) == 0 {
		t.origin, t.trace = origin, trace
	}
	if origin != "" {
		msg = origin + ": " + msg
	}
	t.messages = append(t.messages, msg)
}

// record classifies the spec once its body has finished.
func (t *T) record(fault *Fault) report.Record {
	rec := report.Record{Path: t.path, Outcome: report.Pass}
	if !t.failed && fault == nil {
		return rec
	}

	rec.Outcome = report.Fail
	msgs := slices.Clone(t.messages)
	rec.Trace = t.trace
	switch {
	case fault != nil && !fault.Goexit:
		msgs = append(msgs, fault.Message())
		if rec.Trace == nil {
			rec.Trace = fault.Trace
		}
	case fault != nil && !t.failed:
		msgs = append(msgs, fault.Message())
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "spec marked as failed")
	}
	rec.Message = strings.Join(msgs, "\n")
	return rec
}
