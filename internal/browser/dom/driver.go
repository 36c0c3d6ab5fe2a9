// browser/dom/driver.go
package dom

import (
	"context"
	"errors"
)

var (
	// ErrStaleElement means a previously resolved node was replaced or
	// detached from the document.
	ErrStaleElement = errors.New("element is stale or detached from the document")
	// ErrNotFound means a locator matched nothing.
	ErrNotFound = errors.New("no element matches locator")
	// ErrClosed means the browser behind the driver has been shut down.
	// Nothing will ever become visible again, so waits stop on it at once.
	ErrClosed = errors.New("session is closed")
)

// State is a point-in-time observation of an element, taken in one round trip.
type State struct {
	Attached  bool
	Displayed bool
	Enabled   bool
	Obscured  bool
}

// Visible reports whether the element is attached and rendered.
func (s State) Visible() bool { return s.Attached && s.Displayed }

// Clickable reports whether the element is visible, enabled and not covered
// by another element at its centre point.
func (s State) Clickable() bool { return s.Visible() && s.Enabled && !s.Obscured }

// Element is a handle to one resolved DOM node. Handles are only valid for
// the operation that resolved them; any method may return ErrStaleElement.
type Element interface {
	State(ctx context.Context) (State, error)
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
	ScrollIntoView(ctx context.Context) error
	SelectValue(ctx context.Context, value string) error
}

// Driver is the minimal browser contract the interaction layer and page
// models need. Implementations live in the cdp and pw packages.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// FindAll resolves loc against the current document. An empty result is
	// not an error.
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
	CurrentURL(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close(ctx context.Context) error
}
