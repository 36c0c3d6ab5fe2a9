// Package journeys holds the named user journeys the suite runs. Each journey
// drives the page models through one scenario and returns an
// *AssertionError when the application misbehaves.
package journeys

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
	"github.com/xkilldash9x/sauce-e2e/internal/pages"
)

// ErrSkipped marks a journey that chose not to run.
var ErrSkipped = errors.New("journey skipped")

// Skip returns an error wrapping ErrSkipped with the given reason.
func Skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}

// AssertionError reports an expectation the application did not meet, as
// opposed to an error driving the browser.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string { return "assertion failed: " + e.Message }

func failf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

func expect(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return failf(format, args...)
}

func expectEqual[T comparable](what string, want, got T) error {
	if want == got {
		return nil
	}
	return failf("%s: want %v, got %v", what, want, got)
}

// expectDiff compares structured values and reports a readable diff.
func expectDiff(what string, want, got any) error {
	if diff := cmp.Diff(want, got); diff != "" {
		return failf("%s mismatch (-want +got):\n%s", what, diff)
	}
	return nil
}

// Env is what a journey gets to work with: a fresh session and the
// configured accounts.
type Env struct {
	Session     *session.Session
	Credentials config.CredentialsConfig
	Logger      *zap.Logger
}

// Open navigates to the application and returns its login page.
func (e *Env) Open(ctx context.Context) (*pages.LoginPage, error) {
	return pages.Open(ctx, e.Session)
}

// LoginAs opens the application and logs in, failing the journey when the
// application rejects the credentials.
func (e *Env) LoginAs(ctx context.Context, username string) (*pages.InventoryPage, error) {
	login, err := e.Open(ctx)
	if err != nil {
		return nil, err
	}
	out, err := login.Login(ctx, username, e.Credentials.Password)
	if err != nil {
		return nil, err
	}
	inv, ok := out.Navigated()
	if !ok {
		return nil, failf("login as %q was rejected: %s", username, out.Message())
	}
	return inv, nil
}

// Standard logs in as the standard user.
func (e *Env) Standard(ctx context.Context) (*pages.InventoryPage, error) {
	if e.Credentials.StandardUser == "" {
		return nil, Skip("credentials.standard_user is not configured")
	}
	return e.LoginAs(ctx, e.Credentials.StandardUser)
}

// Journey is one named scenario.
type Journey struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Group is the part of the name before the first slash.
func (j Journey) Group() string {
	group, _, _ := strings.Cut(j.Name, "/")
	return group
}

// All returns every journey in declaration order.
func All() []Journey {
	out := make([]Journey, 0, len(loginJourneys)+len(inventoryJourneys)+len(checkoutJourneys)+len(endToEndJourneys))
	out = append(out, loginJourneys...)
	out = append(out, inventoryJourneys...)
	out = append(out, checkoutJourneys...)
	out = append(out, endToEndJourneys...)
	return out
}

// Lookup finds a journey by its exact name.
func Lookup(name string) (Journey, bool) {
	for _, j := range All() {
		if j.Name == name {
			return j, true
		}
	}
	return Journey{}, false
}

// Select returns the journeys matching any of the patterns, in declaration
// order. A pattern is an exact name, a group ("login" or "login/") or a
// path.Match glob ("checkout/*"). No patterns selects everything.
func Select(patterns ...string) ([]Journey, error) {
	all := All()
	if len(patterns) == 0 {
		return all, nil
	}

	var out []Journey
	for _, j := range all {
		for _, p := range patterns {
			ok, err := matches(j, p)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, j)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no journey matches %s", strings.Join(patterns, ", "))
	}
	return out, nil
}

func matches(j Journey, pattern string) (bool, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == j.Name || strings.TrimSuffix(pattern, "/") == j.Group() {
		return true, nil
	}
	ok, err := path.Match(pattern, j.Name)
	if err != nil {
		return false, fmt.Errorf("bad journey pattern %q: %w", pattern, err)
	}
	return ok, nil
}
