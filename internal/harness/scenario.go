package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Execution modes selectable per scenario.
const (
	ModeQuery  = "query"  // eager drain into a value slice
	ModeExec   = "exec"   // row-count statement, no cursor branch
	ModeStream = "stream" // lazy chunked batches
)

// Scenario defines one conformance scenario: a single invocation of the
// execution core over a scripted driver, with expectations on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed on it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Call describes the invocation.
	Call Call `yaml:"call"`

	// Script programs the driver double's per-phase outcomes.
	Script Script `yaml:"script,omitempty"`

	// Expect validates the terminal outcome, trace, and handle counters.
	Expect Expect `yaml:"expect"`
}

// Call identifies the invocation: the logical call site plus execution mode.
type Call struct {
	// Label names the call site (e.g. "users.byEmail").
	Label string `yaml:"label"`

	// SQL is the statement text.
	SQL string `yaml:"sql"`

	// Args are the positional parameter values.
	Args []any `yaml:"args,omitempty"`

	// Mode is one of query, exec, stream.
	Mode string `yaml:"mode"`

	// ChunkSize bounds one fetch in query and stream modes.
	ChunkSize int `yaml:"chunk_size,omitempty"`

	// CancelAfterBatches cancels the invocation's context after that many
	// batches were consumed (stream mode), or immediately cancels a
	// blocked execute phase when BlockExecute is scripted.
	CancelAfterBatches *int `yaml:"cancel_after_batches,omitempty"`

	// Redact enables argument redaction on the executor.
	Redact bool `yaml:"redact,omitempty"`
}

// Script programs the scripted driver. Empty error strings mean the phase
// succeeds; Rows is the scripted result set of one-column integer rows.
type Script struct {
	CreateError    string  `yaml:"create_error,omitempty"`
	BindError      string  `yaml:"bind_error,omitempty"`
	ExecuteError   string  `yaml:"execute_error,omitempty"`
	BlockExecute   bool    `yaml:"block_execute,omitempty"`
	Rows           [][]any `yaml:"rows,omitempty"`
	RowsAffected   int64   `yaml:"rows_affected,omitempty"`
	FetchError     string  `yaml:"fetch_error,omitempty"`
	FetchErrOnCall int     `yaml:"fetch_error_on_call,omitempty"`
	StmtCloseError string  `yaml:"stmt_close_error,omitempty"`
	SinkError      string  `yaml:"sink_error,omitempty"`
}

// Expect validates the scenario outcome. Nil/zero fields are not checked,
// except Events and the handle counters, which are always checked.
type Expect struct {
	// ErrorCode is the expected terminal lifecycle code ("" = success).
	ErrorCode string `yaml:"error_code,omitempty"`

	// Values are the expected decoded values in order (query mode).
	Values []int `yaml:"values,omitempty"`

	// Batches are the expected decoded batches (stream mode).
	Batches [][]int `yaml:"batches,omitempty"`

	// RowsAffected is the expected terminal row count (exec mode).
	RowsAffected *int64 `yaml:"rows_affected,omitempty"`

	// Events are the expected event kinds in emission order.
	Events []string `yaml:"events"`

	// StmtCloses, CursorCloses, and Cancels are the expected handle
	// counters after the invocation. StmtCloses and CursorCloses default
	// to requiring exactly-once release when a handle was created.
	StmtCloses   *int `yaml:"stmt_closes,omitempty"`
	CursorCloses *int `yaml:"cursor_closes,omitempty"`
	Cancels      *int `yaml:"cancels,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Call.SQL == "" {
		return fmt.Errorf("call.sql is required")
	}
	switch s.Call.Mode {
	case ModeQuery, ModeExec, ModeStream:
	case "":
		return fmt.Errorf("call.mode is required")
	default:
		return fmt.Errorf("unknown call.mode %q", s.Call.Mode)
	}
	if s.Call.ChunkSize < 0 {
		return fmt.Errorf("call.chunk_size must be non-negative")
	}
	if s.Script.FetchError != "" && s.Script.FetchErrOnCall < 1 {
		return fmt.Errorf("script.fetch_error_on_call must be >= 1 when fetch_error is set")
	}
	if len(s.Expect.Events) == 0 {
		return fmt.Errorf("expect.events is required and must be non-empty")
	}
	for i, kind := range s.Expect.Events {
		switch kind {
		case "success", "exec_failure", "processing_failure":
		default:
			return fmt.Errorf("expect.events[%d]: unknown event kind %q", i, kind)
		}
	}
	return nil
}
