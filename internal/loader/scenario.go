package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/specrun/internal/engine"
)

// Document is a parsed scenario file.
type Document struct {
	Tests []Item `yaml:"tests"`
}

// Item is one declaration. Exactly one of the kind fields is set.
type Item struct {
	Describe string `yaml:"describe,omitempty"`
	Body     []Item `yaml:"body,omitempty"`

	It    string `yaml:"it,omitempty"`
	Steps []Step `yaml:"steps,omitempty"`

	Pending    string `yaml:"pending,omitempty"`
	BeforeEach []Step `yaml:"before_each,omitempty"`
	AfterEach  []Step `yaml:"after_each,omitempty"`
}

// Step is one action inside a spec or hook. Exactly one of Assert, Fail,
// Panic or Log is set.
type Step struct {
	// Assert names the predicate to evaluate against Actual.
	Assert   string `yaml:"assert,omitempty"`
	Actual   any    `yaml:"actual,omitempty"`
	Expected any    `yaml:"expected,omitempty"`
	Not      bool   `yaml:"not,omitempty"`

	// Fail fails the spec with this message.
	Fail string `yaml:"fail,omitempty"`

	// Panic raises a fault with this message.
	Panic string `yaml:"panic,omitempty"`

	// Log writes this message to the run logger.
	Log string `yaml:"log,omitempty"`
}

// ScenarioLoader loads YAML and CUE scenario files.
type ScenarioLoader struct {
	// Logger receives hook log steps. Nil discards them.
	Logger *slog.Logger
}

// Load implements Loader.
func (l *ScenarioLoader) Load(path string) (engine.Unit, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return doc.Unit(logger), nil
}

// LoadDocument reads and validates a scenario file. The format is chosen by
// extension: .cue is evaluated with CUE, anything else is parsed as YAML.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "failed to read scenario file", Err: err}
	}

	if strings.ToLower(filepath.Ext(path)) == ".cue" {
		data, err = evalCUE(path, data)
		if err != nil {
			return nil, err
		}
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Path: path, Message: fmt.Sprintf("failed to parse scenario: %v", err), Err: err}
	}
	if err := doc.validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalid, Path: path, Message: fmt.Sprintf("invalid scenario: %v", err), Err: err}
	}
	return doc, nil
}

// evalCUE evaluates a CUE file and exports it as JSON, which the YAML
// decoder then reads like any other scenario.
func evalCUE(path string, data []byte) ([]byte, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(path, "building CUE value", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(path, "evaluating CUE value", err)
	}
	out, err := value.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(path, "exporting CUE value", err)
	}
	return out, nil
}

func cueLoadError(path, what string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeBuildFailed, Path: path, Message: fmt.Sprintf("%s: %v", what, err), Err: err}
	if pos := cueerrors.Positions(err); len(pos) > 0 {
		le.Pos = pos[0]
	}
	return le
}

// parseDocument decodes with strict field validation, catching typos
// such as "step:" for "steps:". An empty file is an empty document.
func parseDocument(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	return validateItems("tests", d.Tests)
}

func validateItems(where string, items []Item) error {
	for i, it := range items {
		at := fmt.Sprintf("%s[%d]", where, i)
		kinds := 0
		for _, set := range []bool{
			it.Describe != "", it.It != "", it.Pending != "",
			len(it.BeforeEach) > 0, len(it.AfterEach) > 0,
		} {
			if set {
				kinds++
			}
		}
		if kinds != 1 {
			return fmt.Errorf("%s: exactly one of describe, it, pending, before_each, after_each is required", at)
		}
		if it.Body != nil && it.Describe == "" {
			return fmt.Errorf("%s: body is only valid with describe", at)
		}
		if it.Steps != nil && it.It == "" {
			return fmt.Errorf("%s: steps are only valid with it", at)
		}

		switch {
		case it.Describe != "":
			if err := validateItems(at+".body", it.Body); err != nil {
				return err
			}
		case it.It != "":
			if err := validateSteps(at+".steps", it.Steps, false); err != nil {
				return err
			}
		case len(it.BeforeEach) > 0:
			if err := validateSteps(at+".before_each", it.BeforeEach, true); err != nil {
				return err
			}
		case len(it.AfterEach) > 0:
			if err := validateSteps(at+".after_each", it.AfterEach, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSteps(where string, steps []Step, hook bool) error {
	for i, st := range steps {
		at := fmt.Sprintf("%s[%d]", where, i)
		kinds := 0
		for _, set := range []bool{st.Assert != "", st.Fail != "", st.Panic != "", st.Log != ""} {
			if set {
				kinds++
			}
		}
		if kinds != 1 {
			return fmt.Errorf("%s: exactly one of assert, fail, panic, log is required", at)
		}
		if st.Assert == "" && (st.Actual != nil || st.Expected != nil || st.Not) {
			return fmt.Errorf("%s: actual, expected and not are only valid with assert", at)
		}
		if hook && st.Assert != "" {
			return fmt.Errorf("%s: hooks cannot assert", at)
		}
	}
	return nil
}
