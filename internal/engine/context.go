package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/roach88/specrun/internal/report"
	"github.com/roach88/specrun/internal/snapshot"
)

// Unit is a loaded test file: it declares suites and specs on s.
type Unit func(s *Suite)

// frame is one level of the description stack.
type frame struct {
	seg   snapshot.Segment
	calls int // snapshot assertions made directly at this level
	spec  bool
}

// hookLevel holds the hooks registered by one suite body.
type hookLevel struct {
	setup    []func()
	teardown []func()
}

// RunContext is the mutable state of one file run.
//
// It is created per run and never shared. Bodies run one at a time (see
// safeCall), so the fields are accessed without locks.
type RunContext struct {
	ctx        context.Context
	file       string
	stack      []frame
	hooks      []hookLevel
	counter    *snapshot.Counter
	snapshots  *snapshot.Session
	updateEnv  string
	reporter   report.Reporter
	results    *report.Aggregator // nil until the first suite or spec is entered
	predicates map[string]Predicate
	logger     *slog.Logger
	root       *Suite
}

// Option configures a RunContext.
type Option func(*RunContext)

// WithFile names the file being run. Top-level faults are attributed to its base name.
func WithFile(path string) Option {
	return func(rc *RunContext) {
		rc.file = path
	}
}

// WithReporter sets the reporter outcomes are streamed to.
func WithReporter(r report.Reporter) Option {
	return func(rc *RunContext) {
		rc.reporter = r
	}
}

// WithSnapshots sets the snapshot session used by match_snapshot.
func WithSnapshots(s *snapshot.Session) Option {
	return func(rc *RunContext) {
		rc.snapshots = s
	}
}

// WithUpdateEnv names the environment toggle quoted in missing-snapshot messages.
func WithUpdateEnv(name string) Option {
	return func(rc *RunContext) {
		rc.updateEnv = name
	}
}

// WithLogger sets the logger for execution diagnostics and T.Logf output.
func WithLogger(l *slog.Logger) Option {
	return func(rc *RunContext) {
		rc.logger = l
	}
}

// NewRunContext creates an empty run: empty stack, no hooks, no results.
// The host predicates and match_snapshot are registered.
func NewRunContext(ctx context.Context, opts ...Option) *RunContext {
	rc := &RunContext{
		ctx:        ctx,
		counter:    snapshot.NewCounter(),
		predicates: make(map[string]Predicate),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(rc)
	}
	for _, p := range hostPredicates() {
		rc.predicates[p.Name] = p
	}
	rc.predicates[matchSnapshot.Name] = matchSnapshot
	rc.root = &Suite{rc: rc}
	return rc
}

// Root returns the builder for depth 0.
func (rc *RunContext) Root() *Suite {
	return rc.root
}

// Results returns the result set, or nil if nothing has been entered yet.
func (rc *RunContext) Results() *report.Aggregator {
	return rc.results
}

// Depth returns the current description stack depth.
func (rc *RunContext) Depth() int {
	return len(rc.stack)
}

// Path returns the current description path.
func (rc *RunContext) Path() []string {
	path := make([]string, len(rc.stack))
	for i, f := range rc.stack {
		path[i] = f.seg.Name
	}
	return path
}

// Run executes unit against the root builder. A fault escaping the unit
// itself is recorded as an Error attributed to the file.
func (rc *RunContext) Run(unit Unit) {
	if fault := safeCall(func() { unit(rc.root) }); fault != nil {
		rc.logger.Warn("test file raised outside any suite", "file", rc.file, "error", fault)
		rc.ensureResults().Record(report.Record{
			Path:    []string{filepath.Base(rc.file)},
			Outcome: report.Error,
			Message: fault.Message(),
			Trace:   fault.Trace,
		})
	}
}

func (rc *RunContext) ensureResults() *report.Aggregator {
	if rc.results == nil {
		rc.results = report.NewAggregator(rc.reporter)
	}
	return rc.results
}

func (rc *RunContext) segments() []snapshot.Segment {
	segs := make([]snapshot.Segment, len(rc.stack))
	for i, f := range rc.stack {
		segs[i] = f.seg
	}
	return segs
}

func (rc *RunContext) push(name string, spec bool) {
	ord := rc.counter.Next(rc.segments(), name)
	rc.stack = append(rc.stack, frame{seg: snapshot.Segment{Name: name, Ordinal: ord}, spec: spec})
}

// truncate restores the stack to depth.
func (rc *RunContext) truncate(depth int) {
	rc.stack = rc.stack[:depth]
}

func (rc *RunContext) inSpec() bool {
	for _, f := range rc.stack {
		if f.spec {
			return true
		}
	}
	return false
}

// runHooks runs each level's setup or teardown list, shallowest first.
func (rc *RunContext) runHooks(teardown bool) {
	for _, level := range rc.hooks {
		fns := level.setup
		if teardown {
			fns = level.teardown
		}
		for _, fn := range fns {
			fn()
		}
	}
}

// snapshotKey computes the key for a snapshot assertion made right now at
// the top of the stack. It advances that level's call counter, so it must
// be called exactly once per assertion, at the point of assertion.
func (rc *RunContext) snapshotKey() string {
	top := &rc.stack[len(rc.stack)-1]
	top.calls++
	return snapshot.Key(rc.segments(), top.calls)
}
