package loader

import (
	"fmt"
	"log/slog"

	"github.com/roach88/specrun/internal/engine"
)

// Unit compiles the document into a unit. Hook log steps go to logger.
func (d *Document) Unit(logger *slog.Logger) engine.Unit {
	return func(s *engine.Suite) {
		declare(s, d.Tests, logger)
	}
}

func declare(s *engine.Suite, items []Item, logger *slog.Logger) {
	for _, it := range items {
		switch {
		case it.Describe != "":
			body := it.Body
			s.Describe(it.Describe, func(s *engine.Suite) {
				declare(s, body, logger)
			})
		case it.It != "":
			steps := it.Steps
			s.It(it.It, func(t *engine.T) {
				for _, st := range steps {
					runStep(t, st)
				}
			})
		case it.Pending != "":
			s.Pending(it.Pending)
		case len(it.BeforeEach) > 0:
			s.BeforeEach(hook(it.BeforeEach, logger))
		case len(it.AfterEach) > 0:
			s.AfterEach(hook(it.AfterEach, logger))
		}
	}
}

func runStep(t *engine.T, st Step) {
	switch {
	case st.Assert != "":
		var args []any
		if st.Expected != nil {
			args = append(args, st.Expected)
		}
		if st.Not {
			t.ExpectNot(st.Assert, st.Actual, args...)
		} else {
			t.Expect(st.Assert, st.Actual, args...)
		}
	case st.Fail != "":
		t.Fatal(st.Fail)
	case st.Panic != "":
		panic(st.Panic)
	case st.Log != "":
		t.Log(st.Log)
	}
}

// hook runs outside any spec, so a fail step is raised as a fault.
func hook(steps []Step, logger *slog.Logger) func() {
	return func() {
		for _, st := range steps {
			switch {
			case st.Log != "":
				logger.Info(st.Log)
			case st.Panic != "":
				panic(st.Panic)
			case st.Fail != "":
				panic(fmt.Errorf("hook failed: %s", st.Fail))
			}
		}
	}
}
