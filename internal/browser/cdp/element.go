// internal/browser/cdp/element.go
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
)

type element struct {
	d  *Driver
	id runtime.RemoteObjectID
}

var _ dom.Element = (*element)(nil)

// envelope is the result shape produced by wrapElementFn.
type envelope struct {
	Stale bool            `json:"stale"`
	Err   string          `json:"err"`
	Value json.RawMessage `json:"value"`
}

// call runs body against the element inside the caller's chromedp context.
func (e *element) call(ctx context.Context, body string, out interface{}, args ...interface{}) error {
	var env envelope
	err := chromedp.CallFunctionOn(wrapElementFn(body), &env,
		func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(e.id)
		},
		args...,
	).Do(ctx)
	if err != nil {
		return classify(err)
	}
	if env.Stale {
		return dom.ErrStaleElement
	}
	if env.Err != "" {
		return errors.New(env.Err)
	}
	if out != nil && len(env.Value) > 0 {
		return json.Unmarshal(env.Value, out)
	}
	return nil
}

func (e *element) exec(ctx context.Context, body string, out interface{}, args ...interface{}) error {
	return e.d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return e.call(ctx, body, out, args...)
	}))
}

func (e *element) State(ctx context.Context) (dom.State, error) {
	var st struct {
		Attached  bool `json:"attached"`
		Displayed bool `json:"displayed"`
		Enabled   bool `json:"enabled"`
		Obscured  bool `json:"obscured"`
	}
	if err := e.exec(ctx, jsState, &st); err != nil {
		return dom.State{}, err
	}
	return dom.State{Attached: st.Attached, Displayed: st.Displayed, Enabled: st.Enabled, Obscured: st.Obscured}, nil
}

// Click dispatches a native left click at the element's centre.
func (e *element) Click(ctx context.Context) error {
	return e.d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var pt struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		}
		if err := e.call(ctx, jsClickPoint, &pt); err != nil {
			return err
		}
		if err := input.DispatchMouseEvent(input.MouseMoved, pt.X, pt.Y).Do(ctx); err != nil {
			return fmt.Errorf("mouse move failed: %w", err)
		}
		if err := input.DispatchMouseEvent(input.MousePressed, pt.X, pt.Y).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return fmt.Errorf("mouse press failed: %w", err)
		}
		if err := input.DispatchMouseEvent(input.MouseReleased, pt.X, pt.Y).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return fmt.Errorf("mouse release failed: %w", err)
		}
		return nil
	}))
}

func (e *element) Clear(ctx context.Context) error {
	return e.exec(ctx, jsClear, nil)
}

// Type focuses the element and inserts text as if typed, firing input events.
func (e *element) Type(ctx context.Context, text string) error {
	return e.d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := e.call(ctx, jsFocus, nil); err != nil {
			return err
		}
		if text == "" {
			return nil
		}
		return input.InsertText(text).Do(ctx)
	}))
}

func (e *element) Text(ctx context.Context) (string, error) {
	var s string
	if err := e.exec(ctx, jsText, &s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	return e.exec(ctx, jsScrollIntoView, nil)
}

func (e *element) SelectValue(ctx context.Context, value string) error {
	return e.exec(ctx, jsSelectValue, nil, value)
}
