package exec

import (
	"context"
	"errors"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// DefaultFetchSize bounds one cursor fetch when the caller does not specify
// a size.
const DefaultFetchSize = 64

var (
	// ErrNoRows is returned by First and One when the result set is empty.
	ErrNoRows = errors.New("no rows in result set")

	// ErrTooManyRows is returned by One when the result set holds more
	// than one row.
	ErrTooManyRows = errors.New("more than one row in result set")
)

// DrainAll eagerly decodes every remaining row of cur into an ordered slice.
// Appropriate when the caller needs all rows and the result size is bounded;
// unbounded results belong on the stream package's lazy path.
//
// Cancellation is observed between fetches, never mid-decode.
func DrainAll[T any](ctx context.Context, cur driver.Cursor, dec driver.Decoder[T], fetchSize int) ([]T, error) {
	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}
	var out []T
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := cur.FetchNext(ctx, fetchSize)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			v, err := dec(r)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		if len(rows) < fetchSize {
			return out, nil
		}
	}
}

// First decodes the first row of cur, or returns ErrNoRows on an empty
// result set. Remaining rows are left unfetched.
func First[T any](ctx context.Context, cur driver.Cursor, dec driver.Decoder[T]) (T, error) {
	var zero T
	rows, err := cur.FetchNext(ctx, 1)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrNoRows
	}
	return dec(rows[0])
}

// One decodes the single row of cur. It returns ErrNoRows on an empty result
// set and ErrTooManyRows when a second row exists.
func One[T any](ctx context.Context, cur driver.Cursor, dec driver.Decoder[T]) (T, error) {
	var zero T
	rows, err := cur.FetchNext(ctx, 2)
	if err != nil {
		return zero, err
	}
	switch len(rows) {
	case 0:
		return zero, ErrNoRows
	case 1:
		return dec(rows[0])
	default:
		return zero, ErrTooManyRows
	}
}

// Maybe decodes the first row of cur, or returns nil on an empty result set.
func Maybe[T any](ctx context.Context, cur driver.Cursor, dec driver.Decoder[T]) (*T, error) {
	v, err := First(ctx, cur, dec)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
