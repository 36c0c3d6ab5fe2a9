// Package pages holds one model per SauceDemo page. A model knows its
// locators and the user actions its page offers; actions that leave the page
// return the next model, and actions the application may refuse return an
// Outcome.
package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages/locators"
)

// Page is the contract every page model satisfies.
type Page interface {
	State() navigation.State
	// IsLoaded is a non-waiting check that the page's landmarks are visible.
	IsLoaded(ctx context.Context) bool
	// WaitUntilLoaded waits for every landmark within the element timeout.
	WaitUntilLoaded(ctx context.Context) error
}

// base is embedded by every page model. It holds no element handles, only
// the session and the locators that identify the page.
type base struct {
	s       *session.Session
	ui      *dom.Interactor
	log     *zap.Logger
	state   navigation.State
	anchors []dom.Locator
}

func newBase(s *session.Session, state navigation.State, anchors ...dom.Locator) base {
	name := state.String()
	return base{
		s:       s,
		ui:      s.Interactor(name),
		log:     s.Logger().Named("pages").With(zap.String("page", name)),
		state:   state,
		anchors: anchors,
	}
}

// State returns the navigation state this page represents.
func (b base) State() navigation.State { return b.state }

// Session returns the session the page is bound to.
func (b base) Session() *session.Session { return b.s }

func (b base) IsLoaded(ctx context.Context) bool {
	if b.s.Err() != nil {
		return false
	}
	for _, loc := range b.anchors {
		if !b.ui.IsVisible(ctx, loc) {
			return false
		}
	}
	return true
}

func (b base) WaitUntilLoaded(ctx context.Context) error {
	if err := b.s.Err(); err != nil {
		return err
	}
	for _, loc := range b.anchors {
		if _, err := b.ui.WaitUntilVisible(ctx, loc); err != nil {
			return fmt.Errorf("%s did not load: %w", b.state, err)
		}
	}
	return nil
}

// advance waits for the page action leads to, then records the move and
// returns its model. The target model must agree with the transition table.
// A page that never loads leaves the session where it was.
func advance[T Page](ctx context.Context, b base, action navigation.Action, build func(*session.Session) T) (T, error) {
	var zero T
	next := build(b.s)
	want, err := navigation.Next(b.state, action)
	if err != nil {
		return zero, err
	}
	if next.State() != want {
		return zero, fmt.Errorf("%w: %s from %s leads to %s, not %s",
			navigation.ErrIllegalTransition, action, b.state, want, next.State())
	}
	if err := next.WaitUntilLoaded(ctx); err != nil {
		return zero, err
	}
	if _, err := b.s.Track(b.state, action); err != nil {
		return zero, err
	}
	return next, nil
}

// submit clicks button on a form that answers either by loading the page
// whose landmark is next or by showing the error banner. It reports whether
// the page changed, and the banner text when it did not.
//
// A banner left over from an earlier submit is dismissed first. When it
// cannot be dismissed its text is remembered: the same message counts as the
// answer only once it has survived a grace period, so a slow navigation is
// not mistaken for a second rejection.
func (b base) submit(ctx context.Context, op string, button, next dom.Locator) (bool, string, error) {
	stale, err := b.dismissError(ctx)
	if err != nil {
		return false, "", err
	}
	if err := b.ui.Click(ctx, button); err != nil {
		return false, "", err
	}
	return b.await(ctx, op, next, stale)
}

// dismissError closes a visible error banner and returns the text of one
// that is still showing afterwards.
func (b base) dismissError(ctx context.Context) (*string, error) {
	if !b.ui.IsVisible(ctx, locators.ErrorBanner) {
		return nil, nil
	}
	texts, err := b.ui.ReadAllText(ctx, locators.ErrorBanner)
	if err != nil || len(texts) == 0 {
		return nil, b.s.Err()
	}
	if b.ui.IsVisible(ctx, locators.ErrorDismiss) {
		if err := b.ui.Click(ctx, locators.ErrorDismiss); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return nil, err
			}
			b.log.Debug("Could not dismiss error banner.", zap.Error(err))
		}
		if !b.ui.IsVisible(ctx, locators.ErrorBanner) {
			return nil, nil
		}
	}
	b.log.Debug("Error banner still showing before submit.", zap.String("message", texts[0]))
	return &texts[0], nil
}

func (b base) await(ctx context.Context, op string, next dom.Locator, stale *string) (bool, string, error) {
	opts := b.ui.Options()
	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	grace := time.Now().Add(opts.Timeout / 4)
	limiter := rate.NewLimiter(rate.Every(opts.PollInterval), 1)
	for {
		if err := limiter.Wait(waitCtx); err != nil {
			return false, "", &dom.Error{
				Kind:    dom.ErrWaitTimeout,
				Page:    b.state.String(),
				Op:      op,
				Locator: next,
				Err:     fmt.Errorf("neither %s nor a new %s appeared", next, locators.ErrorBanner),
			}
		}
		if err := b.s.Err(); err != nil {
			return false, "", err
		}
		if b.ui.IsVisible(waitCtx, next) {
			return true, "", nil
		}
		if !b.ui.IsVisible(waitCtx, locators.ErrorBanner) {
			// Anything shown from here on is an answer to this submit.
			stale = nil
			continue
		}
		texts, err := b.ui.ReadAllText(waitCtx, locators.ErrorBanner)
		if err != nil || len(texts) == 0 {
			continue
		}
		if stale == nil || texts[0] != *stale || time.Now().After(grace) {
			return false, texts[0], nil
		}
	}
}

// Open loads the application's base URL and returns the login page. It is
// the only way to obtain a first page model for a session.
func Open(ctx context.Context, s *session.Session) (*LoginPage, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	p := newLoginPage(s)
	if err := p.WaitUntilLoaded(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
