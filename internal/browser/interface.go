// internal/browser/interface.go
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrElementNotFound is returned by Page.Query when nothing matches the selector.
	ErrElementNotFound = errors.New("element not found")
	// ErrNoLiveWindow is returned when every window of the session has been closed.
	ErrNoLiveWindow = errors.New("no live browser window")
	// ErrElementTimeout is returned when a single element operation does not finish in time.
	ErrElementTimeout = errors.New("element operation timed out")
	// ErrSessionClosed is returned for operations on a released session.
	ErrSessionClosed = errors.New("browser session is closed")
)

// Element is a handle to a single DOM element of a live page. Handles may go
// stale at any moment; every method reports that as an error rather than panicking.
type Element interface {
	// TagName returns the lowercase tag name ("input", "textarea", "select", ...).
	TagName(ctx context.Context) (string, error)
	// Attribute returns the attribute value, or "" when it is absent.
	Attribute(ctx context.Context, name string) (string, error)
	// Text returns the rendered text content.
	Text(ctx context.Context) (string, error)
	Displayed(ctx context.Context) (bool, error)
	// Size returns the rendered width and height in CSS pixels.
	Size(ctx context.Context) (width, height float64, err error)
	Clear(ctx context.Context) error
	// SendKeys types value into the element. For a select it picks the option
	// whose value or visible text matches.
	SendKeys(ctx context.Context, value string) error
	Click(ctx context.Context) error
}

// Page is the narrow view of a browser tab the autofill engine needs.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until selector is present, for at most timeout.
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error
	// EnsureActiveWindow makes sure the page is attached to a live window, switching
	// to the most recently opened one when the current window has gone away.
	EnsureActiveWindow(ctx context.Context, wait time.Duration) error
	// QueryAll returns every element matching selector, in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// Query returns the first match or ErrElementNotFound.
	Query(ctx context.Context, selector string) (Element, error)
	// HTML returns the serialized markup of the current document.
	HTML(ctx context.Context) (string, error)
	// Screenshot captures the whole page as PNG into path.
	Screenshot(ctx context.Context, path string) error
}

// Session is a Page owned by exactly one run. Close releases every resource
// of the session and is safe to call more than once.
type Session interface {
	Page
	Close(ctx context.Context) error
}

// LaunchOptions are the per-run settings for a new session.
type LaunchOptions struct {
	Headless bool
	// ExecPath is an explicit browser executable; empty means discover one.
	ExecPath string
}

// Launcher acquires browser sessions.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}
