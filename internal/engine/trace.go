package engine

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	maxCapture = 64 // frames captured per fault
	maxTrace   = 16 // frames kept in a reported trace
)

// assertionPackages are libraries whose frames never count as a fault origin.
var assertionPackages = []string{
	"github.com/stretchr/testify/",
	"github.com/google/go-cmp/",
}

// harnessPrefix is the import path prefix shared by this module's internal
// packages, derived from this package's own symbol name at init.
var harnessPrefix string

func init() {
	pc, _, _, _ := runtime.Caller(0)
	harnessPrefix = internalPrefix(runtime.FuncForPC(pc).Name())
}

// internalPrefix cuts a function name such as ".../internal/engine.init.0"
// down to ".../internal/".
func internalPrefix(name string) string {
	if i := strings.LastIndex(name, "/internal/"); i >= 0 {
		return name[:i+len("/internal/")]
	}
	return name[:strings.LastIndex(name, ".")+1]
}

type frameInfo struct {
	Function string
	File     string
	Line     int
}

func (f frameInfo) location() string {
	return fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

func (f frameInfo) String() string {
	return fmt.Sprintf("%s %s", f.location(), f.Function)
}

// captureStack records the caller's stack. skip=0 starts at the caller of captureStack.
func captureStack(skip int) []frameInfo {
	pcs := make([]uintptr, maxCapture)
	pcs = pcs[:runtime.Callers(skip+2, pcs)]

	var frames []frameInfo
	cf := runtime.CallersFrames(pcs)
	for {
		f, more := cf.Next()
		frames = append(frames, frameInfo{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return frames
}

func isNative(f frameInfo) bool {
	return f.Function == "" ||
		strings.HasPrefix(f.Function, "runtime.") ||
		strings.HasPrefix(f.Function, "reflect.")
}

func isAssertion(f frameInfo) bool {
	for _, p := range assertionPackages {
		if strings.HasPrefix(f.Function, p) {
			return true
		}
	}
	return false
}

// isHarness reports frames from this module's own non-test sources.
// Test files compiled into these packages hold user bodies and are kept.
func isHarness(f frameInfo) bool {
	return strings.HasPrefix(f.Function, harnessPrefix) && !strings.HasSuffix(f.File, "_test.go")
}

// normalizeTrace finds the first frame belonging neither to the harness,
// the runtime, nor an assertion library, and returns its location plus the
// trace from there outwards. The trace stops at the first native or harness
// frame, since frames beyond it carry nothing actionable.
func normalizeTrace(frames []frameInfo) (string, []string) {
	start := -1
	for i, f := range frames {
		if isNative(f) || isAssertion(f) || isHarness(f) {
			continue
		}
		start = i
		break
	}
	if start < 0 {
		return "", nil
	}

	var trace []string
	for _, f := range frames[start:] {
		if isNative(f) || isHarness(f) || len(trace) == maxTrace {
			break
		}
		trace = append(trace, f.String())
	}
	return frames[start].location(), trace
}
