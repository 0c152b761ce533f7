package stream

import (
	"context"
	"iter"

	"github.com/PraverBajaj/doobie/internal/driver"
	"github.com/PraverBajaj/doobie/internal/exec"
)

// DefaultChunkSize is used when a caller passes a non-positive chunk size.
const DefaultChunkSize = exec.DefaultFetchSize

// Chunks streams cur as a finite sequence of decoded row batches. Each
// demand pulls one fetch of up to size rows and decodes it with dec. Every
// yielded batch is non-empty; a short fetch ends the sequence after its
// batch (an exact-multiple result set ends it without an extra empty batch).
//
// A fetch or decode failure terminates the sequence with that error; the
// partially decoded batch is discarded, never yielded. Cancellation is
// observed between fetches.
//
// The caller keeps ownership of cur: Chunks never closes it. Use Query when
// the stream should own the statement and cursor lifecycle.
func Chunks[T any](ctx context.Context, cur driver.Cursor, dec driver.Decoder[T], size int) iter.Seq2[[]T, error] {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return func(yield func([]T, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			rows, err := cur.FetchNext(ctx, size)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(rows) > 0 {
				batch := make([]T, 0, len(rows))
				for _, r := range rows {
					v, err := dec(r)
					if err != nil {
						yield(nil, err)
						return
					}
					batch = append(batch, v)
				}
				if !yield(batch, nil) {
					return
				}
			}
			if len(rows) < size {
				return
			}
		}
	}
}

// Query acquires a statement for query on conn through the exec lifecycle,
// executes it to a cursor, and streams the result as chunked batches. The
// cursor and statement are released, cursor first, when the consumer
// drains the sequence, breaks out early, or the stream fails; the
// invocation's terminal event is emitted at that point, with the processing
// duration covering the whole drain.
//
// The sequence is single-pass: iterating a second time yields nothing.
func Query[T any](ctx context.Context, ex *exec.Executor, conn driver.Conn, label, query string, args []any, dec driver.Decoder[T], size int) iter.Seq2[[]T, error] {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var consumed bool
	return func(yield func([]T, error) bool) {
		if consumed {
			return
		}
		consumed = true

		pc, err := exec.Open(ctx, ex, exec.NewCursorPlan(ex, conn, label, query, args...))
		if err != nil {
			yield(nil, err)
			return
		}

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, pc.Finish(err))
				return
			}
			rows, err := pc.Fetch(ctx, size)
			if err != nil {
				yield(nil, pc.Finish(err))
				return
			}
			if len(rows) > 0 {
				batch := make([]T, 0, len(rows))
				for _, r := range rows {
					v, derr := dec(r)
					if derr != nil {
						yield(nil, pc.Finish(derr))
						return
					}
					batch = append(batch, v)
				}
				if !yield(batch, nil) {
					// Consumer stopped early; the invocation still
					// succeeded from the lifecycle's point of view.
					_ = pc.Finish(nil)
					return
				}
			}
			if len(rows) < size {
				if err := pc.Finish(nil); err != nil {
					yield(nil, err)
				}
				return
			}
		}
	}
}
