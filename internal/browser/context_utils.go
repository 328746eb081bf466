// internal/browser/context_utils.go
package browser

import "context"

// CombineContext derives a context from session, which carries the chromedp
// values, that also ends when op ends. The cause recorded on op is kept so
// callers can tell a deadline from a cancellation.
func CombineContext(session, op context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(session)
	stop := context.AfterFunc(op, func() {
		cancel(context.Cause(op))
	})
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}
