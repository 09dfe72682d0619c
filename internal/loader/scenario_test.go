package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/specrun/internal/engine"
	"github.com/roach88/specrun/internal/report"
)

func runUnit(t *testing.T, unit engine.Unit) *report.Aggregator {
	t.Helper()
	rc := engine.NewRunContext(context.Background())
	rc.Run(unit)
	require.NotNil(t, rc.Results(), "unit declared no tests")
	return rc.Results()
}

func descriptions(recs []report.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Description()
	}
	return out
}

func TestLoadDocument_YAML(t *testing.T) {
	doc, err := LoadDocument("testdata/math.yaml")
	require.NoError(t, err)
	require.Len(t, doc.Tests, 2)
	assert.Equal(t, "math", doc.Tests[0].Describe)
	assert.Len(t, doc.Tests[0].Body, 5)
	assert.Equal(t, "crashes", doc.Tests[1].It)
}

func TestScenarioLoader_YAML(t *testing.T) {
	unit, err := (&ScenarioLoader{}).Load("testdata/math.yaml")
	require.NoError(t, err)

	results := runUnit(t, unit)
	sum := results.Summary()
	assert.Equal(t, 2, sum.Passed)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 0, sum.Errors)
	assert.Equal(t, 1, sum.Pending)

	assert.Equal(t, []string{"math adds", "math compares"}, descriptions(results.Records(report.Pass)))
	fails := results.Records(report.Fail)
	assert.Equal(t, []string{"math divides", "crashes"}, descriptions(fails))
	assert.Contains(t, fails[0].Message, "division is not implemented")
	assert.Contains(t, fails[1].Message, "panic: boom")
}

func TestScenarioLoader_CUE(t *testing.T) {
	unit, err := (&ScenarioLoader{}).Load("testdata/math.cue")
	require.NoError(t, err)

	sum := runUnit(t, unit).Summary()
	assert.Equal(t, 2, sum.Passed)
	assert.Equal(t, 0, sum.Failed+sum.Errors)
	assert.Equal(t, 1, sum.Pending)
}

func TestScenarioLoader_HookFailIsSuiteError(t *testing.T) {
	unit, err := (&ScenarioLoader{}).Load("testdata/hook_fail.yaml")
	require.NoError(t, err)

	results := runUnit(t, unit)
	errs := results.Records(report.Error)
	require.Len(t, errs, 1)
	assert.Equal(t, []string{"guarded"}, errs[0].Path)
	assert.Contains(t, errs[0].Message, "hook failed: not ready")
	assert.Equal(t, 0, results.Summary().Passed)
}

func TestScenarioLoader_EmptyFile(t *testing.T) {
	unit, err := (&ScenarioLoader{}).Load("testdata/empty.yaml")
	require.NoError(t, err)

	rc := engine.NewRunContext(context.Background())
	rc.Run(unit)
	assert.Nil(t, rc.Results())
}

func TestLoadDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
		msg  string
	}{
		{"missing file", "testdata/nope.yaml", ErrCodeNotFound, "failed to read"},
		{"unknown field", "testdata/typo.yaml", ErrCodeParseFailed, "field step not found"},
		{"two kinds", "testdata/ambiguous.yaml", ErrCodeInvalid, "tests[0]: exactly one of"},
		{"assert in hook", "testdata/hook_assert.yaml", ErrCodeInvalid, "hooks cannot assert"},
		{"cue conflict", "testdata/broken.cue", ErrCodeBuildFailed, "conflicting values"},
		{"cue incomplete", "testdata/incomplete.cue", ErrCodeBuildFailed, "CUE value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocument(tt.path)
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.code, le.Code)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestValidateSteps(t *testing.T) {
	doc := &Document{Tests: []Item{{It: "x", Steps: []Step{{Log: "a", Actual: 1}}}}}
	require.ErrorContains(t, doc.validate(), "only valid with assert")

	doc = &Document{Tests: []Item{{It: "x", Steps: []Step{{}}}}}
	require.ErrorContains(t, doc.validate(), "tests[0].steps[0]")

	doc = &Document{Tests: []Item{{Pending: "x", Body: []Item{}}}}
	require.ErrorContains(t, doc.validate(), "body is only valid with describe")
}
