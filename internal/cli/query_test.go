package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.db")

	cmd, _, _ := newTestCommand("exec", "--dsn", path,
		"CREATE TABLE items (n INTEGER NOT NULL, name TEXT NOT NULL)")
	require.NoError(t, cmd.Execute())

	cmd, _, _ = newTestCommand("exec", "--dsn", path,
		"INSERT INTO items (n, name) VALUES (1, 'ant'), (2, 'bee'), (3, 'cat')")
	require.NoError(t, cmd.Execute())

	return path
}

func TestQueryCommand_Text(t *testing.T) {
	path := newTestDB(t)

	cmd, out, _ := newTestCommand("query", "--dsn", path,
		"SELECT n, name FROM items WHERE n >= ? ORDER BY n", "2")
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "2\tbee\n3\tcat\n", out.String())
}

func TestQueryCommand_JSON(t *testing.T) {
	path := newTestDB(t)

	cmd, out, _ := newTestCommand("--format", "json", "query", "--dsn", path,
		"SELECT n FROM items ORDER BY n")
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	rows, ok := data["rows"].([]any)
	require.True(t, ok)
	assert.Len(t, rows, 3)
}

func TestQueryCommand_ChunkedStream(t *testing.T) {
	path := newTestDB(t)

	cmd, out, _ := newTestCommand("query", "--chunk", "1", "--dsn", path,
		"SELECT name FROM items ORDER BY n")
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "ant\nbee\ncat\n", out.String())
}

func TestQueryCommand_SyntaxError(t *testing.T) {
	path := newTestDB(t)

	cmd, out, _ := newTestCommand("query", "--dsn", path, "SELEC nope")
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "CREATION_FAILED")
}

func TestQueryCommand_NoDSN(t *testing.T) {
	cmd, _, _ := newTestCommand("query", "SELECT 1")
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no connection")
}

func TestQueryCommand_UnknownDriver(t *testing.T) {
	cmd, _, _ := newTestCommand("query", "--driver", "nosuch", "--dsn", "dsn", "SELECT 1")
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecCommand_RowsAffected(t *testing.T) {
	path := newTestDB(t)

	cmd, out, _ := newTestCommand("exec", "--dsn", path,
		"UPDATE items SET name = 'x' WHERE n <= ?", "2")
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "rows affected: 2\n", out.String())
}

func TestExecCommand_JSON(t *testing.T) {
	path := newTestDB(t)

	cmd, out, _ := newTestCommand("--format", "json", "exec", "--dsn", path,
		"DELETE FROM items WHERE n = ?", "1")
	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["rows_affected"])
}

func TestExecCommand_ConstraintFailure(t *testing.T) {
	path := newTestDB(t)

	cmd, out, _ := newTestCommand("exec", "--dsn", path, "INSERT INTO items (n) VALUES (9)")
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "EXECUTION_FAILED")
}

func TestExecCommand_VerboseLogsEvent(t *testing.T) {
	path := newTestDB(t)

	cmd, _, errOut := newTestCommand("--verbose", "exec", "--dsn", path,
		"DELETE FROM items WHERE n = ?", "3")
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errOut.String(), "statement succeeded")
	assert.Contains(t, errOut.String(), "cli.exec")
}
