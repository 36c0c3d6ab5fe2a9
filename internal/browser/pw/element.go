// internal/browser/pw/element.go
package pw

import (
	"context"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
)

type element struct {
	h playwright.ElementHandle
}

var _ dom.Element = (*element)(nil)

// jsState mirrors the CDP driver's readiness check so both engines agree on
// what obscured means.
const jsState = `el => {
	if (!el.isConnected) { return {attached: false}; }
	const rect = el.getBoundingClientRect();
	const style = window.getComputedStyle(el);
	const displayed = rect.width > 0 && rect.height > 0 &&
		style.visibility !== "hidden" && style.display !== "none" &&
		parseFloat(style.opacity || "1") > 0;
	const enabled = !el.disabled && el.getAttribute("aria-disabled") !== "true";
	let obscured = false;
	if (displayed) {
		const cx = rect.left + rect.width / 2;
		const cy = rect.top + rect.height / 2;
		if (cx >= 0 && cy >= 0 && cx <= window.innerWidth && cy <= window.innerHeight) {
			const top = document.elementFromPoint(cx, cy);
			obscured = !!top && top !== el && !el.contains(top);
		}
	}
	return {attached: true, displayed: displayed, enabled: enabled, obscured: obscured};
}`

func (e *element) State(ctx context.Context) (dom.State, error) {
	raw, err := withContext(ctx, func() (interface{}, error) {
		return e.h.Evaluate(jsState)
	})
	if err != nil {
		return dom.State{}, classify(err)
	}
	m, _ := raw.(map[string]interface{})
	flag := func(k string) bool {
		b, _ := m[k].(bool)
		return b
	}
	if !flag("attached") {
		return dom.State{}, dom.ErrStaleElement
	}
	return dom.State{
		Attached:  true,
		Displayed: flag("displayed"),
		Enabled:   flag("enabled"),
		Obscured:  flag("obscured"),
	}, nil
}

// run executes a handle call that only returns an error.
func run(ctx context.Context, fn func() error) error {
	_, err := withContext(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return classify(err)
}

func (e *element) Click(ctx context.Context) error {
	return run(ctx, func() error { return e.h.Click() })
}

func (e *element) Clear(ctx context.Context) error {
	return run(ctx, func() error { return e.h.Fill("") })
}

func (e *element) Type(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	return run(ctx, func() error { return e.h.Type(text) })
}

func (e *element) Text(ctx context.Context) (string, error) {
	s, err := withContext(ctx, func() (string, error) {
		return e.h.InnerText()
	})
	if err != nil {
		return "", classify(err)
	}
	return strings.TrimSpace(s), nil
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	return run(ctx, func() error { return e.h.ScrollIntoViewIfNeeded() })
}

func (e *element) SelectValue(ctx context.Context, value string) error {
	return run(ctx, func() error {
		_, err := e.h.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
		return err
	})
}
