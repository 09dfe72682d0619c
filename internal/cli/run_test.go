package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/specrun/internal/engine"
	"github.com/roach88/specrun/internal/loader"
	"github.com/roach88/specrun/internal/report"
	"github.com/roach88/specrun/internal/snapshot"
	"github.com/roach88/specrun/internal/store"
	"github.com/roach88/specrun/internal/testutil"
)

const passingScenario = `tests:
  - describe: math
    body:
      - it: adds
        steps:
          - {assert: equals, actual: 2, expected: 2}
`

const failingScenario = `tests:
  - describe: math
    body:
      - it: adds
        steps:
          - {assert: equals, actual: 3, expected: 2}
`

const snapshotScenario = `tests:
  - describe: render
    body:
      - it: prints
        steps:
          - {assert: match_snapshot, actual: "Success  : 1"}
`

// cliEnv is an isolated working area for one test.
type cliEnv struct {
	dir  string
	opts *RootOptions
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{
		dir: dir,
		opts: &RootOptions{
			ConfigDir: dir,
			Getenv:    testutil.Env{}.Getenv,
		},
	}
}

func (e *cliEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command and returns stdout and the exit code.
func (e *cliEnv) execute(t *testing.T, args ...string) (string, int) {
	t.Helper()
	// Flags bind to opts, so reset them between invocations.
	fresh := *e.opts
	fresh.Verbose, fresh.Format, fresh.Config, fresh.Color = false, "", "", ""

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommandWith(&fresh)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), GetExitCode(err)
}

func TestRun_Passing(t *testing.T) {
	env := newCLIEnv(t)
	file := env.write(t, "math.yaml", passingScenario)

	out, code := env.execute(t, "run", file)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Testing: \t"+file+"\n")
	assert.Contains(t, out, "Success\t||\tmath adds\n")
	assert.Contains(t, out, "Success: \t1\n")
}

func TestRun_Failing(t *testing.T) {
	env := newCLIEnv(t)
	file := env.write(t, "math.yaml", failingScenario)

	out, code := env.execute(t, "run", "--color", "never", file)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "Fail\t||\tmath adds\n")
	assert.Contains(t, out, "Expected objects to be equal.")
}

func TestRun_LoadErrors(t *testing.T) {
	env := newCLIEnv(t)

	_, code := env.execute(t, "run", filepath.Join(env.dir, "missing.yaml"))
	assert.Equal(t, ExitLoadError, code)

	out, code := env.execute(t, "run", filepath.Join(env.dir, "math_spec.go"))
	assert.Equal(t, ExitLoadError, code)
	assert.Contains(t, out, "failed to load test file")

	empty := env.write(t, "empty.yaml", "tests: []\n")
	out, code = env.execute(t, "run", empty)
	assert.Equal(t, ExitLoadError, code)
	assert.Contains(t, out, "No tests found in "+empty)
}

func TestRun_UpdateFlagRecordsSnapshots(t *testing.T) {
	env := newCLIEnv(t)
	file := env.write(t, "render.yaml", snapshotScenario)

	out, code := env.execute(t, "run", file)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "rerun with SPECRUN_UPDATE_SNAPSHOTS=1 to record it")

	out, code = env.execute(t, "run", "--update", file)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Updated: \t1\n")
	assert.FileExists(t, snapshot.PathFor(file, ""))

	_, code = env.execute(t, "run", file)
	assert.Equal(t, ExitSuccess, code)
}

func TestRun_EnvToggleFromConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.write(t, ".specrun.toml", "update_env = \"REC\"\nsnapshot_dir = \"snaps\"\n")
	file := env.write(t, "render.yaml", snapshotScenario)
	env.opts.Getenv = testutil.Env{"REC": "1"}.Getenv

	_, code := env.execute(t, "run", file)
	assert.Equal(t, ExitSuccess, code)
	assert.FileExists(t, filepath.Join(env.dir, "snaps", "render.yaml.snap"))
}

func TestRun_JSONFormat(t *testing.T) {
	env := newCLIEnv(t)
	file := env.write(t, "math.yaml", failingScenario)

	out, code := env.execute(t, "--format", "json", "run", file)
	assert.Equal(t, ExitFailure, code)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "error", doc.Status)
	require.NotNil(t, doc.Error)
	assert.Equal(t, report.CodeTestsFailed, doc.Error.Code)
	require.Len(t, doc.Data.Records, 1)
	assert.Equal(t, report.Fail, doc.Data.Records[0].Outcome)
	assert.Equal(t, &report.Summary{Failed: 1}, doc.Data.Summary)
}

func TestRun_WorstSignalWins(t *testing.T) {
	env := newCLIEnv(t)
	pass := env.write(t, "pass.yaml", passingScenario)
	fail := env.write(t, "fail.yaml", failingScenario)
	missing := filepath.Join(env.dir, "missing.yaml")

	_, code := env.execute(t, "run", pass, fail)
	assert.Equal(t, ExitFailure, code)

	_, code = env.execute(t, "run", pass, missing, fail)
	assert.Equal(t, ExitLoadError, code)
}

func TestRun_CompiledUnit(t *testing.T) {
	env := newCLIEnv(t)
	reg := loader.NewRegistry()
	reg.Register("math_spec.go", func(s *engine.Suite) {
		s.Describe("broken", func(s *engine.Suite) {
			panic("suite exploded")
		})
	})
	env.opts.Registry = reg

	out, code := env.execute(t, "run", filepath.Join(env.dir, "math_spec.go"))
	assert.Equal(t, ExitErrors, code)
	assert.Contains(t, out, "Errors\t||\tbroken\n")
}

func TestRun_InvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.write(t, ".specrun.toml", "format = \"xml\"\n")
	file := env.write(t, "math.yaml", passingScenario)

	_, code := env.execute(t, "run", file)
	assert.Equal(t, ExitCommandError, code)
}

func TestRun_HistoryThenList(t *testing.T) {
	env := newCLIEnv(t)
	file := env.write(t, "math.yaml", passingScenario)
	db := filepath.Join(env.dir, "history.db")
	env.opts.IDs = store.NewFixedGenerator("run-a", "run-b")
	env.opts.Now = testutil.NewDeterministicClock(time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC), time.Second).Now

	_, code := env.execute(t, "run", "--history", db, file)
	require.Equal(t, ExitSuccess, code)
	_, code = env.execute(t, "run", "--history", db, file)
	require.Equal(t, ExitSuccess, code)

	out, code := env.execute(t, "history", db)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "run-a")
	assert.Contains(t, out, "run-b")
	assert.Less(t, bytes.Index([]byte(out), []byte("run-b")), bytes.Index([]byte(out), []byte("run-a")))

	out, code = env.execute(t, "--format", "json", "history", db, "--limit", "1")
	assert.Equal(t, ExitSuccess, code)
	var resp struct {
		Status string    `json:"status"`
		Data   []runView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-b", resp.Data[0].ID)
	assert.Equal(t, "2026-02-03T04:05:08Z", resp.Data[0].StartedAt)
	assert.Equal(t, int64(1000), resp.Data[0].DurationMS)

	out, code = env.execute(t, "history", db, "--run", "run-a")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Run:      run-a\n")
	assert.Contains(t, out, "pass    math adds\n")
}

func TestHistory_Errors(t *testing.T) {
	env := newCLIEnv(t)

	out, code := env.execute(t, "history", filepath.Join(env.dir, "none.db"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "history database not found")

	db := filepath.Join(env.dir, "history.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, code = env.execute(t, "history", db)
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "No runs recorded.\n", out)

	out, code = env.execute(t, "history", db, "--run", "nope")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "run not found")
}
