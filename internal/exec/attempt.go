package exec

import "time"

// Attempt runs f exactly once and reports its outcome together with the
// elapsed wall time. The failure of f is never re-raised here, only reified
// into the return values. now supplies timestamps; the elapsed duration is
// the absolute difference of two readings, guarding against a non-monotonic
// clock source.
func Attempt[T any](now func() time.Time, f func() (T, error)) (v T, elapsed time.Duration, err error) {
	start := now()
	v, err = f()
	elapsed = now().Sub(start)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	return v, elapsed, err
}
