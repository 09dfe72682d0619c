package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/specrun/internal/engine"
)

// Loader loads a test file as a unit ready to run.
type Loader interface {
	Load(path string) (engine.Unit, error)
}

// Error code constants.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeParseFailed = "E004" // YAML or CUE syntax error
	ErrCodeNotFound    = "E005" // File or unit not found
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeInvalid     = "E007" // Scenario structure invalid
	ErrCodeUnsupported = "E008" // No loader for this file
)

// LoadError represents a failure to load a test file.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Multi dispatches scenario extensions to Scenarios and everything else to Registry.
type Multi struct {
	Scenarios *ScenarioLoader
	Registry  *Registry
}

// Load implements Loader.
func (m *Multi) Load(path string) (engine.Unit, error) {
	if IsScenario(path) && m.Scenarios != nil {
		return m.Scenarios.Load(path)
	}
	if m.Registry != nil {
		return m.Registry.Load(path)
	}
	return nil, &LoadError{
		Code:    ErrCodeUnsupported,
		Path:    path,
		Message: fmt.Sprintf("no loader for %q files", filepath.Ext(path)),
	}
}

// IsScenario reports whether path has a scenario file extension.
func IsScenario(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}
