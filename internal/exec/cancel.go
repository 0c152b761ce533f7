package exec

import (
	"context"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// guardCancel runs the execute step f under a cancellation watcher: if ctx is
// cancelled while f is in flight, a best-effort cancel request is issued
// against the live statement before the cancellation is allowed to complete.
// The watcher is always reaped before returning, so a cancel request is never
// issued against a statement handle that has been released.
//
// Cancellation observed after f already returned is a no-op: the watcher is
// stopped first and never reaches Cancel.
func guardCancel[R any](ctx context.Context, st driver.Stmt, f func(context.Context, driver.Stmt) (R, error)) (R, error) {
	if ctx.Done() == nil {
		return f(ctx, st)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
			// Best effort: the statement may already have finished
			// server-side; drivers treat that cancel as a no-op.
			_ = st.Cancel()
		case <-stop:
		}
	}()

	v, err := f(ctx, st)
	close(stop)
	<-done
	return v, err
}
