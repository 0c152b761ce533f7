package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "success_query.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "success_query", s.Name)
	assert.Equal(t, ModeQuery, s.Call.Mode)
	assert.Equal(t, "users.list", s.Call.Label)
	assert.Equal(t, 2, s.Call.ChunkSize)
	assert.Len(t, s.Script.Rows, 3)
	assert.Equal(t, []int{1, 2, 3}, s.Expect.Values)
	assert.Equal(t, []string{"success"}, s.Expect.Events)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: a scenario with a misspelled field
call:
  label: x
  sql: SELECT 1
  mode: query
expect:
  evnets: [success]
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: d
call: {sql: SELECT 1, mode: query}
expect: {events: [success]}
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
call: {sql: SELECT 1, mode: query}
expect: {events: [success]}
`,
			wantErr: "description is required",
		},
		{
			name: "missing sql",
			content: `
name: n
description: d
call: {mode: query}
expect: {events: [success]}
`,
			wantErr: "call.sql is required",
		},
		{
			name: "missing mode",
			content: `
name: n
description: d
call: {sql: SELECT 1}
expect: {events: [success]}
`,
			wantErr: "call.mode is required",
		},
		{
			name: "unknown mode",
			content: `
name: n
description: d
call: {sql: SELECT 1, mode: batch}
expect: {events: [success]}
`,
			wantErr: `unknown call.mode "batch"`,
		},
		{
			name: "fetch error without call index",
			content: `
name: n
description: d
call: {sql: SELECT 1, mode: query}
script: {fetch_error: boom}
expect: {events: [processing_failure]}
`,
			wantErr: "script.fetch_error_on_call must be >= 1",
		},
		{
			name: "empty events",
			content: `
name: n
description: d
call: {sql: SELECT 1, mode: query}
expect: {error_code: CREATION_FAILED}
`,
			wantErr: "expect.events is required",
		},
		{
			name: "unknown event kind",
			content: `
name: n
description: d
call: {sql: SELECT 1, mode: query}
expect: {events: [triumph]}
`,
			wantErr: `unknown event kind "triumph"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
