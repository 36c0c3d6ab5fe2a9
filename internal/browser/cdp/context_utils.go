// internal/browser/cdp/context_utils.go
package cdp

import (
	"context"
	"errors"
	"time"
)

// CombineContext derives a context from session, which carries the chromedp
// target, that also ends when op ends. op's deadline is copied across so a
// per-operation timeout surfaces as context.DeadlineExceeded.
func CombineContext(session, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancelCause(session)
	deadline, hasDeadline := op.Deadline()
	stop := context.AfterFunc(op, func() {
		// The copied deadline below reports expiry itself.
		if hasDeadline && errors.Is(op.Err(), context.DeadlineExceeded) {
			return
		}
		cancel(context.Cause(op))
	})

	cancelDeadline := context.CancelFunc(func() {})
	if hasDeadline {
		combined, cancelDeadline = context.WithDeadline(combined, deadline)
	}

	return combined, func() {
		stop()
		cancelDeadline()
		cancel(context.Canceled)
	}
}

// valueOnlyContext keeps its parent's values but none of its cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that inherits values from ctx but is not canceled
// when ctx is. The browser process must outlive the context that launched it.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
