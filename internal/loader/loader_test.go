package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/specrun/internal/engine"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("math_spec", func(s *engine.Suite) {
		s.It("adds", func(t *engine.T) {})
	})
	reg.Register("alpha", func(s *engine.Suite) {})

	assert.Equal(t, []string{"alpha", "math_spec"}, reg.Names())

	unit, err := reg.Load("math_spec")
	require.NoError(t, err)
	assert.Equal(t, 1, runUnit(t, unit).Summary().Passed)

	_, err = reg.Load("some/dir/math_spec")
	require.NoError(t, err)

	_, err = reg.Load("other")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestMulti(t *testing.T) {
	reg := NewRegistry()
	reg.Register("compiled", func(s *engine.Suite) {
		s.It("runs", func(t *engine.T) {})
	})
	m := &Multi{Scenarios: &ScenarioLoader{}, Registry: reg}

	unit, err := m.Load("testdata/math.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, runUnit(t, unit).Summary().Passed)

	unit, err = m.Load("compiled")
	require.NoError(t, err)
	assert.Equal(t, 1, runUnit(t, unit).Summary().Passed)

	_, err = (&Multi{}).Load("x.go")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeUnsupported, le.Code)
	assert.Contains(t, err.Error(), `no loader for ".go" files`)
}

func TestIsScenario(t *testing.T) {
	assert.True(t, IsScenario("a.yaml"))
	assert.True(t, IsScenario("a.YML"))
	assert.True(t, IsScenario("dir/a.cue"))
	assert.False(t, IsScenario("a.go"))
	assert.False(t, IsScenario("a"))
}
