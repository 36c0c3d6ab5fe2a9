// Package domtest provides an in-memory dom.Driver for exercising the
// interaction layer and page models without a browser.
package domtest

import (
	"context"
	"sync"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
)

// Driver is a scriptable dom.Driver. The element table maps locators to the
// nodes they currently resolve to; callbacks on elements mutate the table to
// simulate the application reacting to input.
type Driver struct {
	mu          sync.Mutex
	elements    map[dom.Locator][]*Element
	url         string
	navigations []string
	lookups     map[dom.Locator]int
	closed      bool

	// FindErr, when set, is returned by every FindAll.
	FindErr error
	// OnNavigate runs after Navigate records the URL.
	OnNavigate func(url string)
	// Shot is returned by Screenshot.
	Shot []byte
}

// NewDriver returns an empty fake driver.
func NewDriver() *Driver {
	return &Driver{
		elements: make(map[dom.Locator][]*Element),
		lookups:  make(map[dom.Locator]int),
		Shot:     []byte("\x89PNG fake"),
	}
}

// Put replaces the nodes loc resolves to.
func (d *Driver) Put(loc dom.Locator, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[loc] = els
}

// Remove makes loc resolve to nothing.
func (d *Driver) Remove(loc dom.Locator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, loc)
}

// Clear empties the element table, as a full page load would.
func (d *Driver) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements = make(map[dom.Locator][]*Element)
}

// Replace swaps in a whole element table at once, as a page render would.
// Lookups never observe a half built page.
func (d *Driver) Replace(table map[dom.Locator][]*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements = table
}

// Lookups returns how many times loc was resolved.
func (d *Driver) Lookups(loc dom.Locator) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups[loc]
}

// SetURL changes what CurrentURL reports.
func (d *Driver) SetURL(u string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = u
}

// Navigations lists every URL passed to Navigate.
func (d *Driver) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigations...)
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.url = url
	d.navigations = append(d.navigations, url)
	hook := d.OnNavigate
	d.mu.Unlock()
	if hook != nil {
		hook(url)
	}
	return nil
}

func (d *Driver) FindAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups[loc]++
	if d.FindErr != nil {
		return nil, d.FindErr
	}
	found := d.elements[loc]
	out := make([]dom.Element, 0, len(found))
	for _, el := range found {
		out = append(out, el)
	}
	return out, nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.Shot...), nil
}

func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var _ dom.Driver = (*Driver)(nil)

// Element is a scriptable dom.Element.
type Element struct {
	mu       sync.Mutex
	state    dom.State
	text     string
	value    string
	clicks   int
	scrolls  int
	stale    int
	detached bool
	err      error
	onClick  func()
	onSelect func(string)
}

// NewElement returns an attached, displayed, enabled element with text.
func NewElement(text string) *Element {
	return &Element{
		state: dom.State{Attached: true, Displayed: true, Enabled: true},
		text:  text,
	}
}

// WithState overrides the observed state.
func (e *Element) WithState(st dom.State) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = st
	return e
}

// Hide makes the element attached but not displayed.
func (e *Element) Hide() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Displayed = false
	return e
}

// Show makes the element displayed again.
func (e *Element) Show() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Displayed = true
	return e
}

// GoStale makes the next n actions fail with dom.ErrStaleElement.
func (e *Element) GoStale(n int) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stale = n
	return e
}

// Detach makes every call, including State, fail as stale.
func (e *Element) Detach() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detached = true
	return e
}

// FailWith makes every action return err.
func (e *Element) FailWith(err error) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
	return e
}

// OnClick registers fn to run after each successful click.
func (e *Element) OnClick(fn func()) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onClick = fn
	return e
}

// OnSelect registers fn to run after each successful selection.
func (e *Element) OnSelect(fn func(value string)) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSelect = fn
	return e
}

// SetText changes the rendered text.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// Clicks returns the number of successful clicks.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Scrolls returns the number of successful scrolls.
func (e *Element) Scrolls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrolls
}

// Value returns what was typed or selected.
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// check must be called with e.mu held.
func (e *Element) check() error {
	if e.detached {
		return dom.ErrStaleElement
	}
	if e.stale > 0 {
		e.stale--
		return dom.ErrStaleElement
	}
	return e.err
}

func (e *Element) State(ctx context.Context) (dom.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return dom.State{}, dom.ErrStaleElement
	}
	return e.state, nil
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	if err := e.check(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.clicks++
	hook := e.onClick
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.value = ""
	return nil
}

func (e *Element) Type(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.value += text
	return nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return e.text, nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.scrolls++
	return nil
}

func (e *Element) SelectValue(ctx context.Context, value string) error {
	e.mu.Lock()
	if err := e.check(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.value = value
	hook := e.onSelect
	e.mu.Unlock()
	if hook != nil {
		hook(value)
	}
	return nil
}

var _ dom.Element = (*Element)(nil)
