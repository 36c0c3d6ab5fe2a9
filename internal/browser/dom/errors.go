// browser/dom/errors.go
package dom

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrWaitTimeout is returned when a readiness condition did not hold
	// within the element timeout.
	ErrWaitTimeout = errors.New("timed out waiting for element")
	// ErrInteractionFailed is returned when an action could not be completed
	// on a resolved element, including repeated staleness.
	ErrInteractionFailed = errors.New("element interaction failed")
)

// Error carries the page, action and locator of a failed interaction so the
// report can say exactly where a journey broke. Kind is one of the sentinels
// above; both Kind and Err participate in errors.Is.
type Error struct {
	Kind    error
	Page    string
	Op      string
	Locator Locator
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Page != "" {
		fmt.Fprintf(&b, "%s: ", e.Page)
	}
	fmt.Fprintf(&b, "%s %s: %v", e.Op, e.Locator, e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsError extracts the interaction context from err, if any.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
