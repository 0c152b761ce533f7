package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PraverBajaj/doobie/internal/exec"
	"github.com/PraverBajaj/doobie/internal/testutil"
)

func newStreamExecutor(t *testing.T) (*exec.Executor, *testutil.Recorder) {
	t.Helper()
	rec := &testutil.Recorder{}
	ex := exec.New(
		exec.WithHandler(rec.Handle),
		exec.WithClock(testutil.NewStepClock(time.Millisecond).Now),
	)
	return ex, rec
}

func intRows(vals ...int) [][]any {
	rows := make([][]any, len(vals))
	for i, v := range vals {
		rows[i] = []any{int64(v)}
	}
	return rows
}

func collect(t *testing.T, seq func(func([]int, error) bool)) ([][]int, error) {
	t.Helper()
	var batches [][]int
	for batch, err := range seq {
		if err != nil {
			return batches, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func TestQuery_BatchLaw(t *testing.T) {
	ex, _ := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2, 3, 4, 5)})

	batches, err := collect(t, Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2))

	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, batches)
}

func TestQuery_ExactMultipleYieldsNoEmptyBatch(t *testing.T) {
	ex, _ := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2, 3, 4)})

	batches, err := collect(t, Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2))

	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, batches)
}

func TestQuery_EmptyResultSet(t *testing.T) {
	ex, rec := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{})

	batches, err := collect(t, Query(context.Background(), ex, conn, "t.none", "SELECT n FROM t WHERE 0", nil, testutil.DecodeInt, 2))

	require.NoError(t, err)
	assert.Empty(t, batches)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, exec.KindSuccess, rec.Events()[0].Kind)
}

func TestQuery_EventEmittedOnlyAfterFullDrain(t *testing.T) {
	ex, rec := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2, 3, 4, 5)})

	var midStream []int
	for batch, err := range Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2) {
		require.NoError(t, err)
		midStream = append(midStream, len(rec.Events()))
		_ = batch
	}

	for _, n := range midStream {
		assert.Zero(t, n, "no event before the drain completes")
	}
	events := rec.Events()
	require.Len(t, events, 1, "exactly one terminal event for the whole drain")
	ev := events[0]
	assert.Equal(t, exec.KindSuccess, ev.Kind)
	assert.Greater(t, ev.ProcessDuration, time.Duration(0), "processing duration covers the drain")
}

func TestQuery_HandlesReleasedOnFullDrain(t *testing.T) {
	ex, _ := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2, 3)})

	_, err := collect(t, Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2))

	require.NoError(t, err)
	st := conn.LastStmt()
	assert.Equal(t, 1, st.CloseCalls)
	assert.Equal(t, 1, st.LastCursor().CloseCalls)
}

func TestQuery_EarlyBreakReleasesHandles(t *testing.T) {
	ex, rec := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2, 3, 4, 5, 6)})

	for batch, err := range Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2) {
		require.NoError(t, err)
		require.Equal(t, []int{1, 2}, batch)
		break
	}

	st := conn.LastStmt()
	assert.Equal(t, 1, st.CloseCalls, "statement released on early stop")
	assert.Equal(t, 1, st.LastCursor().CloseCalls, "cursor released on early stop")
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, exec.KindSuccess, rec.Events()[0].Kind)
	assert.Equal(t, 1, st.LastCursor().FetchCalls, "no fetch beyond the consumed batch")
}

func TestQuery_DecodeFailureDiscardsPartialBatch(t *testing.T) {
	ex, rec := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{Rows: [][]any{{int64(1)}, {"bad"}}})

	batches, err := collect(t, Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2))

	require.Error(t, err)
	assert.Equal(t, exec.CodeProcessing, exec.CodeOf(err))
	assert.Empty(t, batches, "the partially decoded batch is never yielded")

	st := conn.LastStmt()
	assert.Equal(t, 1, st.CloseCalls)
	assert.Equal(t, 1, st.LastCursor().CloseCalls)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, exec.KindProcessingFailure, rec.Events()[0].Kind)
}

func TestQuery_FetchFailureTerminatesStream(t *testing.T) {
	ex, rec := newStreamExecutor(t)
	fetchErr := errors.New("connection reset")
	conn := testutil.NewConn(testutil.Script{
		Rows:           intRows(1, 2, 3, 4),
		FetchErr:       fetchErr,
		FetchErrOnCall: 2,
	})

	batches, err := collect(t, Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2))

	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, [][]int{{1, 2}}, batches, "batches before the failure were yielded")
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, exec.KindProcessingFailure, rec.Events()[0].Kind)
	assert.Equal(t, 1, conn.LastStmt().CloseCalls)
}

func TestQuery_AcquisitionFailure(t *testing.T) {
	ex, rec := newStreamExecutor(t)
	boom := errors.New("connection closed")
	conn := testutil.NewConn(testutil.Script{CreateErr: boom})

	batches, err := collect(t, Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2))

	require.Error(t, err)
	assert.Equal(t, exec.CodeCreation, exec.CodeOf(err))
	assert.Empty(t, batches)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, exec.KindExecFailure, rec.Events()[0].Kind)
}

func TestQuery_SinglePass(t *testing.T) {
	ex, rec := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2)})

	seq := Query(context.Background(), ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2)

	first, err := collect(t, seq)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := collect(t, seq)
	require.NoError(t, err)
	assert.Empty(t, second, "a consumed sequence is not restartable")
	assert.Len(t, rec.Events(), 1, "re-iteration emits nothing")
}

func TestQuery_CancellationDuringConsumptionReleasesHandles(t *testing.T) {
	ex, rec := newStreamExecutor(t)
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2, 3, 4, 5, 6)})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got [][]int
	var streamErr error
	for batch, err := range Query(ctx, ex, conn, "t.all", "SELECT n FROM t", nil, testutil.DecodeInt, 2) {
		if err != nil {
			streamErr = err
			break
		}
		got = append(got, batch)
		cancel()
	}

	require.Error(t, streamErr)
	assert.ErrorIs(t, streamErr, context.Canceled)
	assert.Equal(t, [][]int{{1, 2}}, got)

	st := conn.LastStmt()
	assert.Equal(t, 1, st.CloseCalls, "statement closed before the loop returns")
	assert.Equal(t, 1, st.LastCursor().CloseCalls, "cursor closed before the loop returns")
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, exec.KindProcessingFailure, rec.Events()[0].Kind)
}

func TestChunks_StreamsCallerOwnedCursor(t *testing.T) {
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2, 3)})
	st, err := conn.Prepare(context.Background(), "SELECT n FROM t")
	require.NoError(t, err)
	cur, err := st.Query(context.Background())
	require.NoError(t, err)

	var batches [][]int
	for batch, err := range Chunks(context.Background(), cur, testutil.DecodeInt, 2) {
		require.NoError(t, err)
		batches = append(batches, batch)
	}

	assert.Equal(t, [][]int{{1, 2}, {3}}, batches)
	assert.Zero(t, cur.(*testutil.Cursor).CloseCalls, "Chunks never closes a caller-owned cursor")
}

func TestChunks_BackpressureOneFetchPerDemand(t *testing.T) {
	conn := testutil.NewConn(testutil.Script{Rows: intRows(1, 2, 3, 4, 5, 6)})
	st, _ := conn.Prepare(context.Background(), "SELECT n FROM t")
	cur, _ := st.Query(context.Background())
	sc := cur.(*testutil.Cursor)

	demands := 0
	for _, err := range Chunks(context.Background(), cur, testutil.DecodeInt, 2) {
		require.NoError(t, err)
		demands++
		// No fetch is issued until this batch has been consumed.
		assert.Equal(t, demands, sc.FetchCalls)
	}
}
