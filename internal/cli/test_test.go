package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harnessScenarios points at the shared conformance scenarios.
var harnessScenarios = filepath.Join("..", "harness", "testdata", "scenarios")

func TestTestCommand_AllScenariosPass(t *testing.T) {
	cmd, out, _ := newTestCommand("test", harnessScenarios)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "PASS  success_query")
	assert.Contains(t, out.String(), "PASS  stream_batches")
	assert.NotContains(t, out.String(), "FAIL")
}

func TestTestCommand_Filter(t *testing.T) {
	cmd, out, _ := newTestCommand("test", harnessScenarios, "--filter", "stream_*")
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "stream_batches")
	assert.NotContains(t, out.String(), "success_query")
}

func TestTestCommand_JSON(t *testing.T) {
	cmd, out, _ := newTestCommand("--format", "json", "test", harnessScenarios, "--filter", "success_query")
	require.NoError(t, cmd.Execute())

	var result TestResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 0, result.Failed)
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `
name: wrong_expectation
description: A scenario whose expectations cannot hold.
call:
  label: x
  sql: SELECT n FROM t
  mode: query
script:
  rows:
    - [1]
expect:
  values: [99]
  events: [success]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0o644))

	cmd, out, _ := newTestCommand("test", dir)
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "FAIL  wrong_expectation")
	assert.Contains(t, out.String(), "1 failed")
}

func TestTestCommand_MissingDir(t *testing.T) {
	cmd, _, _ := newTestCommand("test", filepath.Join(t.TempDir(), "nope"))
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_EmptyDir(t *testing.T) {
	cmd, out, _ := newTestCommand("test", t.TempDir())
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No scenarios found.")
}
