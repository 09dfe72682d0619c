package engine

import (
	"strings"

	"github.com/roach88/specrun/internal/report"
)

// Suite declares suites, specs and hooks at one level of a run.
//
// The builder passed to a suite body registers against that suite; the one
// returned by RunContext.Root registers at depth 0.
type Suite struct {
	rc *RunContext
}

// Describe enters a named suite and runs body in isolation. A fault in body
// is recorded as an Error at the suite's path, and the caller continues
// with its next declaration.
func (s *Suite) Describe(name string, body func(s *Suite)) {
	rc := s.rc
	if rc.inSpec() {
		panic(ErrDeclareInSpec)
	}
	rc.ensureResults()
	if err := rc.ctx.Err(); err != nil {
		rc.logger.Debug("suite skipped", "suite", name, "error", err)
		return
	}

	depth := rc.Depth()
	rc.push(name, false)
	rc.hooks = append(rc.hooks, hookLevel{})
	defer func() {
		rc.truncate(depth)
		rc.hooks = rc.hooks[:depth]
	}()

	path := rc.Path()
	rc.logger.Debug("suite entered", "suite", strings.Join(path, " "))
	fault := safeCall(func() { body(&Suite{rc: rc}) })
	if fault == nil {
		return
	}
	rc.logger.Debug("suite raised", "suite", strings.Join(path, " "), "error", fault)
	rc.results.Record(report.Record{
		Path:    path,
		Outcome: report.Error,
		Message: fault.Message(),
		Trace:   fault.Trace,
	})
}

// It runs one spec: setup hooks shallowest first, then body in isolation,
// then teardown hooks shallowest first. The spec's record is made before
// teardown, so teardown runs whatever the outcome. Hooks run on the
// caller's goroutine, so a panicking hook aborts the enclosing suite body.
func (s *Suite) It(name string, body func(t *T)) {
	rc := s.rc
	if rc.inSpec() {
		panic(ErrDeclareInSpec)
	}
	rc.ensureResults()
	if err := rc.ctx.Err(); err != nil {
		rc.logger.Debug("spec skipped", "spec", name, "error", err)
		return
	}

	rc.runHooks(false)

	depth := rc.Depth()
	rc.push(name, true)
	t := &T{rc: rc, name: name, path: rc.Path()}
	fault := safeCall(func() { body(t) })
	rc.truncate(depth)

	rc.results.Record(t.record(fault))

	rc.runHooks(true)
}

// Pending declares a spec that is reported but never executed.
func (s *Suite) Pending(name string) {
	rc := s.rc
	if rc.inSpec() {
		panic(ErrDeclareInSpec)
	}
	rc.ensureResults().Pending(append(rc.Path(), name))
}

// BeforeEach registers fn to run before every spec in the current suite,
// including specs of nested suites.
func (s *Suite) BeforeEach(fn func()) {
	s.current().setup = append(s.current().setup, fn)
}

// AfterEach registers fn to run after every spec in the current suite,
// including specs of nested suites.
func (s *Suite) AfterEach(fn func()) {
	s.current().teardown = append(s.current().teardown, fn)
}

func (s *Suite) current() *hookLevel {
	rc := s.rc
	if rc.inSpec() {
		panic(ErrDeclareInSpec)
	}
	if len(rc.hooks) == 0 {
		panic(ErrHookOutsideSuite)
	}
	return &rc.hooks[len(rc.hooks)-1]
}
