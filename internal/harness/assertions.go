package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PraverBajaj/doobie/internal/exec"
)

// AssertionError is returned when a scenario expectation fails. It carries
// the full trace so a failure message is debuggable on its own.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s label=%s exec=%dms process=%dms code=%s\n",
			i+1, event.Kind, event.Label, event.ExecMs, event.ProcessMs, event.ErrorCode)
	}

	return buf.String()
}

// Check validates a result against its scenario's expect clause and returns
// every failed assertion. Event kinds and handle release/cancel counters are
// always checked; value expectations only when the scenario sets them.
func Check(res *Result) []error {
	var fails []error
	e := res.Scenario.Expect

	fails = append(fails, checkOutcome(res, e)...)
	fails = append(fails, checkEvents(res, e)...)
	fails = append(fails, checkHandles(res, e)...)
	return fails
}

func checkOutcome(res *Result, e Expect) []error {
	var fails []error

	code := string(exec.CodeOf(res.Err))
	switch {
	case e.ErrorCode == "" && res.Err != nil:
		fails = append(fails, &AssertionError{
			Type:     "terminal_outcome",
			Expected: "success",
			Actual:   fmt.Sprintf("error: %v", res.Err),
			Trace:    res.Trace,
		})
	case e.ErrorCode != "" && code != e.ErrorCode:
		fails = append(fails, &AssertionError{
			Type:     "terminal_outcome",
			Expected: fmt.Sprintf("error code %s", e.ErrorCode),
			Actual:   fmt.Sprintf("code %q (err=%v)", code, res.Err),
			Trace:    res.Trace,
		})
	}

	if e.Values != nil && !slices.Equal(res.Values, e.Values) {
		fails = append(fails, &AssertionError{
			Type:     "values",
			Expected: fmt.Sprintf("%v", e.Values),
			Actual:   fmt.Sprintf("%v", res.Values),
			Trace:    res.Trace,
		})
	}

	if e.Batches != nil && !batchesEqual(res.Batches, e.Batches) {
		fails = append(fails, &AssertionError{
			Type:     "batches",
			Expected: fmt.Sprintf("%v", e.Batches),
			Actual:   fmt.Sprintf("%v", res.Batches),
			Trace:    res.Trace,
		})
	}

	if e.RowsAffected != nil && res.RowsAffected != *e.RowsAffected {
		fails = append(fails, &AssertionError{
			Type:     "rows_affected",
			Expected: fmt.Sprintf("%d", *e.RowsAffected),
			Actual:   fmt.Sprintf("%d", res.RowsAffected),
			Trace:    res.Trace,
		})
	}

	return fails
}

func checkEvents(res *Result, e Expect) []error {
	kinds := make([]string, len(res.Trace))
	for i, te := range res.Trace {
		kinds[i] = te.Kind
	}
	if !slices.Equal(kinds, e.Events) {
		return []error{&AssertionError{
			Type:     "events",
			Expected: fmt.Sprintf("%v", e.Events),
			Actual:   fmt.Sprintf("%v", kinds),
			Trace:    res.Trace,
		}}
	}
	return nil
}

func checkHandles(res *Result, e Expect) []error {
	var fails []error

	st := res.Conn.LastStmt()
	if st == nil {
		// Statement creation was scripted to fail; nothing to release.
		if e.StmtCloses != nil && *e.StmtCloses > 0 {
			fails = append(fails, &AssertionError{
				Type:     "stmt_closes",
				Expected: fmt.Sprintf("%d statement closes", *e.StmtCloses),
				Actual:   "no statement was created",
				Trace:    res.Trace,
			})
		}
		return fails
	}

	wantStmt := 1
	if e.StmtCloses != nil {
		wantStmt = *e.StmtCloses
	}
	if st.CloseCalls != wantStmt {
		fails = append(fails, &AssertionError{
			Type:     "stmt_closes",
			Expected: fmt.Sprintf("%d statement closes", wantStmt),
			Actual:   fmt.Sprintf("%d", st.CloseCalls),
			Trace:    res.Trace,
		})
	}

	wantCancel := 0
	if e.Cancels != nil {
		wantCancel = *e.Cancels
	}
	if st.CancelCalls != wantCancel {
		fails = append(fails, &AssertionError{
			Type:     "cancels",
			Expected: fmt.Sprintf("%d cancel calls", wantCancel),
			Actual:   fmt.Sprintf("%d", st.CancelCalls),
			Trace:    res.Trace,
		})
	}

	cur := st.LastCursor()
	if cur == nil {
		if e.CursorCloses != nil && *e.CursorCloses > 0 {
			fails = append(fails, &AssertionError{
				Type:     "cursor_closes",
				Expected: fmt.Sprintf("%d cursor closes", *e.CursorCloses),
				Actual:   "no cursor was opened",
				Trace:    res.Trace,
			})
		}
		return fails
	}

	wantCur := 1
	if e.CursorCloses != nil {
		wantCur = *e.CursorCloses
	}
	if cur.CloseCalls != wantCur {
		fails = append(fails, &AssertionError{
			Type:     "cursor_closes",
			Expected: fmt.Sprintf("%d cursor closes", wantCur),
			Actual:   fmt.Sprintf("%d", cur.CloseCalls),
			Trace:    res.Trace,
		})
	}

	return fails
}

func batchesEqual(got, want [][]int) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !slices.Equal(got[i], want[i]) {
			return false
		}
	}
	return true
}
