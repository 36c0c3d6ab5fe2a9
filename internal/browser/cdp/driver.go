// internal/browser/cdp/driver.go
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

// objectGroup scopes every remote object the driver creates so a navigation
// can release them in one call.
const objectGroup = "sauce-e2e"

// Driver implements dom.Driver over the Chrome DevTools Protocol. Each Driver
// owns one browser process and one tab.
type Driver struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger
	navTimeout  time.Duration

	closeOnce sync.Once
	closeErr  error
}

var _ dom.Driver = (*Driver)(nil)

// Launch starts a browser and opens a blank tab. The browser lives until
// Close, independently of ctx, which only bounds start-up.
func Launch(ctx context.Context, cfg config.BrowserConfig, navTimeout time.Duration, logger *zap.Logger) (*Driver, error) {
	logger = logger.Named("cdp")
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(Detach(ctx), AllocatorOptions(cfg)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Debugf),
	)

	d := &Driver{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
		navTimeout:  navTimeout,
	}

	// The first Run starts the browser process.
	if err := d.run(ctx, chromedp.Navigate("about:blank")); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}
	logger.Debug("Browser launched", zap.Bool("headless", cfg.Headless))
	return d, nil
}

func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(d.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the load event.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if d.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.navTimeout)
		defer cancel()
	}
	d.logger.Debug("Navigating", zap.String("url", url))
	return d.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Handles from the previous document are dead anyway.
			_ = runtime.ReleaseObjectGroup(objectGroup).Do(ctx)
			return nil
		}),
		chromedp.Navigate(url),
	)
}

// FindAll resolves loc in the page and returns one handle per match.
func (d *Driver) FindAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	kind := "css"
	if loc.Strategy == dom.ByXPath {
		kind = "xpath"
	}
	expr := fmt.Sprintf(jsFindAll, jsonEncode(kind), jsonEncode(loc.Value))

	var found []dom.Element
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		arr, exc, err := runtime.Evaluate(expr).WithObjectGroup(objectGroup).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("invalid locator %s: %w", loc, exc)
		}
		if arr == nil || arr.ObjectID == "" {
			return nil
		}
		defer func() { _ = runtime.ReleaseObject(arr.ObjectID).Do(ctx) }()

		var n int
		if err := callByValue(ctx, arr.ObjectID, jsLength, &n); err != nil {
			return err
		}
		found = make([]dom.Element, 0, n)
		for i := 0; i < n; i++ {
			obj, exc, err := runtime.CallFunctionOn(fmt.Sprintf(jsIndex, i)).
				WithObjectID(arr.ObjectID).
				WithObjectGroup(objectGroup).
				Do(ctx)
			if err != nil {
				return err
			}
			if exc != nil {
				return exc
			}
			if obj != nil && obj.ObjectID != "" {
				found = append(found, &element{d: d, id: obj.ObjectID})
			}
		}
		return nil
	}))
	if err != nil {
		return nil, classify(err)
	}
	return found, nil
}

// CurrentURL returns the URL of the current document.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := d.run(ctx, chromedp.Location(&u))
	return u, err
}

// Screenshot captures the viewport as PNG.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close shuts the tab and the browser process. It is safe to call more than once.
func (d *Driver) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(d.ctx) }()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				d.closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		case <-ctx.Done():
			d.closeErr = ctx.Err()
		}
		d.cancelTab()
		d.cancelAlloc()
	})
	return d.closeErr
}

// callByValue runs fn on objectID and decodes its JSON result into out.
func callByValue(ctx context.Context, objectID runtime.RemoteObjectID, fn string, out interface{}) error {
	res, exc, err := runtime.CallFunctionOn(fn).
		WithObjectID(objectID).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return err
	}
	if exc != nil {
		return exc
	}
	if res == nil || len(res.Value) == 0 || out == nil {
		return nil
	}
	return json.Unmarshal([]byte(res.Value), out)
}

// CDP messages that mean the node or its document is gone.
var staleMarkers = []string{
	"Could not find object with given id",
	"Cannot find context with specified id",
	"No node with given id found",
	"Node is detached",
	"Execution context was destroyed",
	"Inspected target navigated or closed",
}

// classify maps CDP failures that mean "the node is gone" to dom.ErrStaleElement.
func classify(err error) error {
	if err == nil || errors.Is(err, dom.ErrStaleElement) {
		return err
	}
	msg := err.Error()
	for _, m := range staleMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", dom.ErrStaleElement, err)
		}
	}
	return err
}
