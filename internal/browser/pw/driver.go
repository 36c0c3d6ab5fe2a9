// internal/browser/pw/driver.go
package pw

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
)

// Driver implements dom.Driver with Playwright element handles.
type Driver struct {
	browser    playwright.Browser
	bctx       playwright.BrowserContext
	page       playwright.Page
	logger     *zap.Logger
	navTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

var _ dom.Driver = (*Driver)(nil)

// selector renders a Locator in Playwright's engine=query syntax.
func selector(loc dom.Locator) string {
	if loc.Strategy == dom.ByXPath {
		return "xpath=" + loc.Value
	}
	return "css=" + loc.Value
}

// Playwright calls are synchronous; withContext gives up waiting when ctx
// ends. The call itself keeps running until Playwright's own timeout.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	opts := playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad}
	if d.navTimeout > 0 {
		opts.Timeout = playwright.Float(float64(d.navTimeout.Milliseconds()))
	}
	d.logger.Debug("Navigating", zap.String("url", url))
	_, err := withContext(ctx, func() (playwright.Response, error) {
		return d.page.Goto(url, opts)
	})
	return err
}

func (d *Driver) FindAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	handles, err := withContext(ctx, func() ([]playwright.ElementHandle, error) {
		return d.page.QuerySelectorAll(selector(loc))
	})
	if err != nil {
		return nil, classify(err)
	}
	out := make([]dom.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &element{h: h})
	}
	return out, nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	return d.page.URL(), nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	buf, err := withContext(ctx, func() ([]byte, error) {
		return d.page.Screenshot()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close closes the page, its context and the browser. It is safe to call more than once.
func (d *Driver) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		_, err := withContext(ctx, func() (struct{}, error) {
			var errs []error
			if err := d.bctx.Close(); err != nil {
				errs = append(errs, err)
			}
			if err := d.browser.Close(); err != nil {
				errs = append(errs, err)
			}
			return struct{}{}, errors.Join(errs...)
		})
		if err != nil {
			d.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
	})
	return d.closeErr
}

// Playwright messages that mean the handle's node is gone.
var staleMarkers = []string{
	"not attached to the dom",
	"element is not attached",
	"jshandle is disposed",
	"execution context was destroyed",
	"target closed",
	"frame was detached",
}

func classify(err error) error {
	if err == nil || errors.Is(err, dom.ErrStaleElement) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, m := range staleMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", dom.ErrStaleElement, err)
		}
	}
	return err
}
