// Package pagestest provides an in-memory SauceDemo for exercising the page
// models and journeys without a browser. The shop renders its pages into a
// domtest.Driver and reacts to clicks the way the real application does.
package pagestest

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom/domtest"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages/locators"
)

const (
	BaseURL  = "https://shop.test/"
	Password = "secret_sauce"
)

// Product is one catalog entry.
type Product struct {
	Name  string
	Cents int64
}

// Catalog is what the shop sells, in name order.
var Catalog = []Product{
	{"Sauce Labs Backpack", 2999},
	{"Sauce Labs Bike Light", 999},
	{"Sauce Labs Bolt T-Shirt", 1599},
	{"Sauce Labs Fleece Jacket", 4999},
	{"Sauce Labs Onesie", 799},
	{"Test.allTheThings() T-Shirt (Red)", 1599},
}

// PriceOf returns the catalog price of name in cents, or 0.
func PriceOf(name string) int64 {
	for _, p := range Catalog {
		if p.Name == name {
			return p.Cents
		}
	}
	return 0
}

// Money formats cents the way the shop displays prices.
func Money(cents int64) string { return fmt.Sprintf("$%d.%02d", cents/100, cents%100) }

// Tax is the shop's 8% tax, rounded to the cent.
func Tax(subtotal int64) int64 { return (subtotal*8 + 50) / 100 }

// Shop simulates the application on top of a fake driver. Every hook updates
// the shop state and re-renders the whole element table, the way a page load
// replaces the DOM. It is safe for the delayed navigations it schedules.
type Shop struct {
	drv *domtest.Driver

	mu          sync.Mutex
	page        navigation.State
	cart        []string
	sort        string
	loginErr    string
	checkoutErr string
	menuOpen    bool

	deaf        bool
	navDelay    time.Duration
	keepErrors  bool
	frozenBadge bool

	user, pass, first, last, postal *domtest.Element
}

// New returns a shop showing nothing until its driver navigates.
func New() *Shop {
	sh := &Shop{
		drv:    domtest.NewDriver(),
		sort:   locators.SortNameAsc,
		user:   domtest.NewElement(""),
		pass:   domtest.NewElement(""),
		first:  domtest.NewElement(""),
		last:   domtest.NewElement(""),
		postal: domtest.NewElement(""),
	}
	sh.drv.OnNavigate = func(string) {
		sh.mu.Lock()
		defer sh.mu.Unlock()
		sh.page = navigation.LoggedOut
		sh.loginErr = ""
		sh.render()
	}
	return sh
}

// Session opens a session on the shop with test timings.
func (sh *Shop) Session(t testing.TB) *session.Session {
	t.Helper()
	return session.New(sh.drv, zaptest.NewLogger(t), session.Options{
		BaseURL: BaseURL,
		Browser: "chrome",
		Interaction: dom.Options{
			Timeout:      300 * time.Millisecond,
			PollInterval: 5 * time.Millisecond,
			Settle:       -1,
		},
	})
}

// Driver is the fake browser the shop renders into.
func (sh *Shop) Driver() *domtest.Driver { return sh.drv }

// Cart returns the names in the cart, in the order they were added.
func (sh *Shop) Cart() []string {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return slices.Clone(sh.cart)
}

// Page is the page the shop currently renders.
func (sh *Shop) Page() navigation.State {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.page
}

// FirstName is the value typed into the checkout first name field.
func (sh *Shop) FirstName() string { return sh.first.Value() }

// GoTo renders page directly, as following a deep link would.
func (sh *Shop) GoTo(page navigation.State) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.goTo(page)
}

// SetDeaf makes the login button ignore clicks.
func (sh *Shop) SetDeaf(deaf bool) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.deaf = deaf
}

// SetNavDelay delays accepted form submits. The submitted page, error
// banner included, stays on screen until the next page renders.
func (sh *Shop) SetNavDelay(d time.Duration) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.navDelay = d
}

// KeepErrors drops the close button from error banners, so a banner stays
// until the form is submitted again.
func (sh *Shop) KeepErrors(keep bool) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.keepErrors = keep
	sh.render()
}

// FreezeBadge stops the cart badge from rendering at all.
func (sh *Shop) FreezeBadge() {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.frozenBadge = true
	sh.render()
}

// hook wraps a state change so it runs under the shop lock and re-renders.
func (sh *Shop) hook(fn func()) func() {
	return func() {
		sh.mu.Lock()
		defer sh.mu.Unlock()
		fn()
		sh.render()
	}
}

func (sh *Shop) goTo(page navigation.State) {
	sh.page = page
	sh.menuOpen = false
	sh.render()
}

// later navigates to page after the configured delay.
func (sh *Shop) later(page navigation.State) {
	if sh.navDelay <= 0 {
		sh.goTo(page)
		return
	}
	time.AfterFunc(sh.navDelay, func() {
		sh.mu.Lock()
		defer sh.mu.Unlock()
		sh.goTo(page)
	})
}

func (sh *Shop) inCart(name string) bool { return slices.Contains(sh.cart, name) }

func (sh *Shop) sorted() []Product {
	items := slices.Clone(Catalog)
	switch sh.sort {
	case locators.SortNameDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Name > items[j].Name })
	case locators.SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Cents < items[j].Cents })
	case locators.SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Cents > items[j].Cents })
	}
	return items
}

func (sh *Shop) subtotal() int64 {
	var sum int64
	for _, name := range sh.cart {
		sum += PriceOf(name)
	}
	return sum
}

// page is an element table under construction.
type page map[dom.Locator][]*domtest.Element

func (p page) put(loc dom.Locator, els ...*domtest.Element) { p[loc] = els }

func el(text string) *domtest.Element { return domtest.NewElement(text) }

func (sh *Shop) render() {
	p := page{}

	if sh.page != navigation.LoggedOut {
		if len(sh.cart) > 0 && !sh.frozenBadge {
			p.put(locators.CartBadge, el(fmt.Sprint(len(sh.cart))))
		}
		p.put(locators.CartLink, el("").OnClick(sh.hook(func() { sh.goTo(navigation.Cart) })))
	}

	switch sh.page {
	case navigation.LoggedOut:
		p.put(locators.LoginLogo, el("Swag Labs"))
		p.put(locators.UsernameInput, sh.user)
		p.put(locators.PasswordInput, sh.pass)
		p.put(locators.LoginButton, el("Login").OnClick(sh.submitLogin))
		sh.banner(p, sh.loginErr, func() { sh.loginErr = "" })

	case navigation.Inventory:
		var cards, names, prices []*domtest.Element
		for _, it := range sh.sorted() {
			cards = append(cards, el(""))
			names = append(names, el(it.Name))
			prices = append(prices, el(Money(it.Cents)))
			name := it.Name
			if sh.inCart(name) {
				p.put(locators.InventoryRemove(name), el("Remove").OnClick(sh.hook(func() { sh.remove(name) })))
			} else {
				p.put(locators.AddToCart(name), el("Add to cart").OnClick(sh.hook(func() { sh.cart = append(sh.cart, name) })))
			}
		}
		p.put(locators.InventoryList, el(""))
		p.put(locators.InventoryItem, cards...)
		p.put(locators.InventoryNames, names...)
		p.put(locators.InventoryPrice, prices...)
		p.put(locators.SortDropdown, el("").OnSelect(func(v string) {
			sh.mu.Lock()
			defer sh.mu.Unlock()
			sh.sort = v
			sh.render()
		}))
		p.put(locators.MenuButton, el("Open Menu").OnClick(sh.hook(func() { sh.menuOpen = true })))
		if sh.menuOpen {
			p.put(locators.LogoutLink, el("Logout").OnClick(sh.hook(func() { sh.goTo(navigation.LoggedOut) })))
		}

	case navigation.Cart:
		p.put(locators.CartList, el(""))
		sh.cartRows(p, true)
		p.put(locators.CheckoutButton, el("Checkout").OnClick(sh.hook(func() {
			sh.checkoutErr = ""
			sh.goTo(navigation.CheckoutStepOne)
		})))
		p.put(locators.ContinueShopping, el("Continue Shopping").OnClick(sh.hook(func() { sh.goTo(navigation.Inventory) })))

	case navigation.CheckoutStepOne:
		p.put(locators.CheckoutInfo, el(""))
		p.put(locators.FirstNameInput, sh.first)
		p.put(locators.LastNameInput, sh.last)
		p.put(locators.PostalCodeInput, sh.postal)
		p.put(locators.ContinueButton, el("").OnClick(sh.submitCheckout))
		p.put(locators.CancelButton, el("Cancel").OnClick(sh.hook(func() { sh.goTo(navigation.Cart) })))
		sh.banner(p, sh.checkoutErr, func() { sh.checkoutErr = "" })

	case navigation.CheckoutStepTwo:
		sub := sh.subtotal()
		p.put(locators.SummaryInfo, el(""))
		sh.cartRows(p, false)
		p.put(locators.SubtotalLabel, el("Item total: "+Money(sub)))
		p.put(locators.TaxLabel, el("Tax: "+Money(Tax(sub))))
		p.put(locators.TotalLabel, el("Total: "+Money(sub+Tax(sub))))
		p.put(locators.FinishButton, el("Finish").OnClick(sh.hook(func() {
			sh.cart = nil
			sh.goTo(navigation.CheckoutComplete)
		})))
		p.put(locators.CancelButton, el("Cancel").OnClick(sh.hook(func() { sh.goTo(navigation.Inventory) })))

	case navigation.CheckoutComplete:
		p.put(locators.CompleteHeader, el("Thank you for your order!"))
		p.put(locators.CompleteText, el("Your order has been dispatched, and will arrive just as fast as the pony can get there!"))
		p.put(locators.BackHomeButton, el("Back Home").OnClick(sh.hook(func() { sh.goTo(navigation.Inventory) })))
	}

	sh.drv.Replace(p)
}

// banner renders msg, if any, with the close button that clears it.
func (sh *Shop) banner(p page, msg string, clear func()) {
	if msg == "" {
		return
	}
	p.put(locators.ErrorBanner, el(msg))
	if !sh.keepErrors {
		p.put(locators.ErrorDismiss, el("").OnClick(sh.hook(clear)))
	}
}

func (sh *Shop) cartRows(p page, removable bool) {
	var rows, names, prices []*domtest.Element
	for _, name := range sh.cart {
		rows = append(rows, el(""))
		names = append(names, el(name))
		prices = append(prices, el(Money(PriceOf(name))))
		if removable {
			p.put(locators.CartRemove(name), el("Remove").OnClick(sh.hook(func() { sh.remove(name) })))
		}
	}
	if len(rows) > 0 {
		p.put(locators.CartItem, rows...)
		p.put(locators.CartNames, names...)
		p.put(locators.CartPrices, prices...)
	}
}

func (sh *Shop) remove(name string) {
	sh.cart = slices.DeleteFunc(sh.cart, func(n string) bool { return n == name })
}

func (sh *Shop) submitLogin() {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.deaf {
		return
	}
	user, pass := sh.user.Value(), sh.pass.Value()
	switch {
	case user == "":
		sh.loginErr = "Epic sadface: Username is required"
	case pass == "":
		sh.loginErr = "Epic sadface: Password is required"
	case user == "locked_out_user" && pass == Password:
		sh.loginErr = "Epic sadface: Sorry, this user has been locked out."
	case (user == "standard_user" || user == "problem_user") && pass == Password:
		sh.loginErr = ""
		sh.later(navigation.Inventory)
		return
	default:
		sh.loginErr = "Epic sadface: Username and password do not match any user in this service"
	}
	sh.render()
}

func (sh *Shop) submitCheckout() {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	switch {
	case sh.first.Value() == "":
		sh.checkoutErr = "Error: First Name is required"
	case sh.last.Value() == "":
		sh.checkoutErr = "Error: Last Name is required"
	case sh.postal.Value() == "":
		sh.checkoutErr = "Error: Postal Code is required"
	default:
		sh.checkoutErr = ""
		sh.later(navigation.CheckoutStepTwo)
		return
	}
	sh.render()
}
