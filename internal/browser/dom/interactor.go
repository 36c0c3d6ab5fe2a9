// browser/dom/interactor.go
package dom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options tunes the waits of an Interactor.
type Options struct {
	// Timeout is the single upper bound applied to every element wait.
	Timeout time.Duration
	// PollInterval paces readiness checks.
	PollInterval time.Duration
	// Settle is the pause after a successful scroll. Negative disables it.
	Settle time.Duration
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:      15 * time.Second,
		PollInterval: 250 * time.Millisecond,
		Settle:       300 * time.Millisecond,
	}
}

// Interactor is the element interaction layer. Every action resolves its
// locator afresh, waits for the element to be ready, acts, and retries once
// if the node went stale between resolution and action.
//
// An Interactor holds no mutable state and may be copied freely; On returns a
// copy labelled with a page identity.
type Interactor struct {
	driver Driver
	logger *zap.Logger
	opts   Options
	page   string
}

// NewInteractor creates a new interactor instance.
func NewInteractor(driver Driver, logger *zap.Logger, opts Options) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	switch {
	case opts.Settle == 0:
		opts.Settle = def.Settle
	case opts.Settle < 0:
		opts.Settle = 0
	}
	return &Interactor{
		driver: driver,
		logger: logger.Named("interactor"),
		opts:   opts,
	}
}

// On returns a copy of the interactor whose errors and logs name page.
func (i *Interactor) On(page string) *Interactor {
	c := *i
	c.page = page
	c.logger = i.logger.With(zap.String("page", page))
	return &c
}

// Page returns the page identity the interactor is labelled with.
func (i *Interactor) Page() string { return i.page }

// Options returns the effective wait settings.
func (i *Interactor) Options() Options { return i.opts }

// WaitUntilVisible polls until the first element matching loc is attached
// and rendered.
func (i *Interactor) WaitUntilVisible(ctx context.Context, loc Locator) (Element, error) {
	return i.waitFor(ctx, "wait_visible", loc, State.Visible)
}

// WaitUntilClickable polls until the first element matching loc is visible,
// enabled and not obscured.
func (i *Interactor) WaitUntilClickable(ctx context.Context, loc Locator) (Element, error) {
	return i.waitFor(ctx, "wait_clickable", loc, State.Clickable)
}

// Click waits for loc to become clickable and clicks it.
func (i *Interactor) Click(ctx context.Context, loc Locator) error {
	i.logger.Debug("Attempting to click element", zap.Stringer("locator", loc))
	return i.act(ctx, "click", loc, i.WaitUntilClickable, func(ctx context.Context, el Element) error {
		return el.Click(ctx)
	})
}

// SetText waits for loc to become visible, clears it and types value.
func (i *Interactor) SetText(ctx context.Context, loc Locator, value string) error {
	i.logger.Debug("Attempting to type into element", zap.Stringer("locator", loc), zap.Int("length", len(value)))
	return i.act(ctx, "set_text", loc, i.WaitUntilVisible, func(ctx context.Context, el Element) error {
		if err := el.Clear(ctx); err != nil {
			return err
		}
		return el.Type(ctx, value)
	})
}

// SelectValue waits for a <select> to become clickable and picks the option
// with the given value.
func (i *Interactor) SelectValue(ctx context.Context, loc Locator, value string) error {
	i.logger.Debug("Attempting to select option", zap.Stringer("locator", loc), zap.String("value", value))
	return i.act(ctx, "select", loc, i.WaitUntilClickable, func(ctx context.Context, el Element) error {
		return el.SelectValue(ctx, value)
	})
}

// ReadText waits for loc to become visible and returns its rendered text.
func (i *Interactor) ReadText(ctx context.Context, loc Locator) (string, error) {
	var text string
	err := i.act(ctx, "read_text", loc, i.WaitUntilVisible, func(ctx context.Context, el Element) error {
		t, err := el.Text(ctx)
		text = t
		return err
	})
	return text, err
}

// IsVisible is a non-waiting check. It never fails: a missing or stale
// element is simply not visible.
func (i *Interactor) IsVisible(ctx context.Context, loc Locator) bool {
	checkCtx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
	defer cancel()

	els, err := i.driver.FindAll(checkCtx, loc)
	if err != nil || len(els) == 0 {
		return false
	}
	st, err := els[0].State(checkCtx)
	if err != nil {
		return false
	}
	return st.Visible()
}

// ScrollIntoView is best effort: failures are logged and swallowed. After a
// successful scroll it pauses for the settle time so smooth scrolling and
// lazy layout can finish.
func (i *Interactor) ScrollIntoView(ctx context.Context, loc Locator) {
	scrollCtx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
	defer cancel()

	els, err := i.driver.FindAll(scrollCtx, loc)
	if err != nil || len(els) == 0 {
		i.logger.Debug("Nothing to scroll into view", zap.Stringer("locator", loc), zap.Error(err))
		return
	}
	if err := els[0].ScrollIntoView(scrollCtx); err != nil {
		i.logger.Warn("Could not scroll element into view", zap.Stringer("locator", loc), zap.Error(err))
		return
	}
	if i.opts.Settle > 0 {
		select {
		case <-time.After(i.opts.Settle):
		case <-ctx.Done():
		}
	}
}

// Count returns how many elements currently match loc, without waiting.
// Failures count as zero.
func (i *Interactor) Count(ctx context.Context, loc Locator) int {
	els, err := i.driver.FindAll(ctx, loc)
	if err != nil {
		i.logger.Debug("Count lookup failed", zap.Stringer("locator", loc), zap.Error(err))
		return 0
	}
	return len(els)
}

// ReadAllText returns the rendered text of every element matching loc, in
// document order. A node going stale mid-read restarts the whole read once.
func (i *Interactor) ReadAllText(ctx context.Context, loc Locator) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		texts, err := i.readAll(ctx, loc)
		if err == nil {
			return texts, nil
		}
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		lastErr = err
		if !errors.Is(err, ErrStaleElement) {
			break
		}
		i.logger.Debug("List went stale while reading, retrying", zap.Stringer("locator", loc))
	}
	return nil, i.fail(ErrInteractionFailed, "read_all_text", loc, lastErr)
}

func (i *Interactor) readAll(ctx context.Context, loc Locator) ([]string, error) {
	els, err := i.driver.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text(ctx)
		if err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, nil
}

type resolver func(ctx context.Context, loc Locator) (Element, error)

// act resolves loc and applies do. A stale element gets exactly one fresh
// resolution and retry; a second stale failure, or any other action error,
// is ErrInteractionFailed. Wait timeouts propagate unchanged.
func (i *Interactor) act(ctx context.Context, op string, loc Locator, resolve resolver, do func(context.Context, Element) error) error {
	for attempt := 1; ; attempt++ {
		el, err := resolve(ctx, loc)
		if err != nil {
			return err
		}

		err = do(ctx, el)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrClosed) {
			return err
		}
		if ctx.Err() != nil {
			return i.fail(ErrInteractionFailed, op, loc, ctx.Err())
		}
		if errors.Is(err, ErrStaleElement) && attempt == 1 {
			i.logger.Warn("Stale element, re-resolving and retrying once",
				zap.String("op", op), zap.Stringer("locator", loc))
			continue
		}
		return i.fail(ErrInteractionFailed, op, loc, err)
	}
}

// waitFor polls until cond holds for the first element matching loc.
func (i *Interactor) waitFor(ctx context.Context, op string, loc Locator, cond func(State) bool) (Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(i.opts.PollInterval), 1)
	start := time.Now()
	polls := 0
	var last error = ErrNotFound

	for {
		// Wait refuses to sleep past the deadline, which ends the loop one
		// interval early at worst.
		if err := limiter.Wait(waitCtx); err != nil {
			break
		}
		polls++
		el, err := i.observe(waitCtx, loc, cond)
		if err == nil {
			return el, nil
		}
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		last = err
		if waitCtx.Err() != nil {
			break
		}
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, i.fail(ErrWaitTimeout, op, loc, ctx.Err())
	}
	i.logger.Debug("Wait timed out",
		zap.String("op", op),
		zap.Stringer("locator", loc),
		zap.Int("polls", polls),
		zap.Duration("elapsed", time.Since(start)),
		zap.NamedError("last", last))
	// last is reported, not wrapped: a stale observation during a wait must
	// not look like a stale action to callers.
	return nil, i.fail(ErrWaitTimeout, op, loc, fmt.Errorf("not ready after %s (%d polls), last observation: %v", i.opts.Timeout, polls, last))
}

type notReadyError struct{ state State }

func (e notReadyError) Error() string {
	return fmt.Sprintf("element not ready (attached=%t displayed=%t enabled=%t obscured=%t)",
		e.state.Attached, e.state.Displayed, e.state.Enabled, e.state.Obscured)
}

func (i *Interactor) observe(ctx context.Context, loc Locator, cond func(State) bool) (Element, error) {
	els, err := i.driver.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNotFound
	}
	st, err := els[0].State(ctx)
	if err != nil {
		return nil, err
	}
	if !cond(st) {
		return nil, notReadyError{state: st}
	}
	return els[0], nil
}

func (i *Interactor) fail(kind error, op string, loc Locator, err error) error {
	return &Error{Kind: kind, Page: i.page, Op: op, Locator: loc, Err: err}
}
