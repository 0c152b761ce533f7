// Package stream produces lazy, chunked sequences of decoded row batches
// from an open cursor.
//
// The sequences are pull-based iterators (iter.Seq2): each demand issues
// exactly one cursor fetch of up to the configured chunk size, so memory
// stays bounded by the chunk size regardless of total row count, and no
// fetch is issued until the previous batch has been consumed. A sequence is
// finite, terminating when a fetch comes back short, and single-pass: once
// consumed, a new cursor must be opened to iterate again.
//
// [Chunks] streams an already-open cursor the caller owns. [Query] is the
// full factory: it acquires the statement and cursor through the exec
// lifecycle and guarantees both are released when the consumer finishes,
// stops early, or a fetch or decode fails, emitting the invocation's single
// terminal event after the drain.
package stream
