package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrHookOutsideSuite is raised when BeforeEach or AfterEach is called
	// with no active suite to register against.
	ErrHookOutsideSuite = errors.New("hooks can only be registered inside a suite body")

	// ErrDeclareInSpec is raised when a suite or spec is declared from inside
	// a running spec body.
	ErrDeclareInSpec = errors.New("suites and specs cannot be declared inside a spec body")
)

// Fault is an unexpected panic or early exit captured at an isolation boundary.
type Fault struct {
	// Value is the recovered panic value. It is nil when Goexit is true.
	Value any

	// Goexit reports that the body ended through runtime.Goexit instead of
	// returning or panicking.
	Goexit bool

	// Origin is the "file:line" of the first frame outside the harness and
	// the assertion libraries.
	Origin string

	// Trace holds the frames from Origin outwards, trimmed at the first
	// runtime or harness frame.
	Trace []string
}

// Message renders the fault the way it is reported.
func (f *Fault) Message() string {
	var msg string
	switch {
	case f.Goexit:
		msg = "body exited early (runtime.Goexit)"
	default:
		if err, ok := f.Value.(error); ok {
			msg = "panic: " + err.Error()
		} else {
			msg = fmt.Sprintf("panic: %v", f.Value)
		}
	}
	if f.Origin != "" {
		return f.Origin + ": " + msg
	}
	return msg
}

// Error implements error so a fault can be wrapped and logged.
func (f *Fault) Error() string {
	return strings.SplitN(f.Message(), "\n", 2)[0]
}

// Unwrap exposes a panicked error value.
func (f *Fault) Unwrap() error {
	err, _ := f.Value.(error)
	return err
}
