package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages/locators"
)

// CheckoutStepOnePage collects the buyer's name and postal code.
type CheckoutStepOnePage struct{ base }

var _ Page = (*CheckoutStepOnePage)(nil)

func newCheckoutStepOnePage(s *session.Session) *CheckoutStepOnePage {
	return &CheckoutStepOnePage{newBase(s, navigation.CheckoutStepOne, locators.CheckoutInfo, locators.FirstNameInput, locators.LastNameInput, locators.PostalCodeInput)}
}

func (p *CheckoutStepOnePage) EnterFirstName(ctx context.Context, firstName string) (*CheckoutStepOnePage, error) {
	p.log.Info("Entering first name.", zap.String("first_name", firstName))
	if err := p.ui.SetText(ctx, locators.FirstNameInput, firstName); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CheckoutStepOnePage) EnterLastName(ctx context.Context, lastName string) (*CheckoutStepOnePage, error) {
	p.log.Info("Entering last name.", zap.String("last_name", lastName))
	if err := p.ui.SetText(ctx, locators.LastNameInput, lastName); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CheckoutStepOnePage) EnterPostalCode(ctx context.Context, postalCode string) (*CheckoutStepOnePage, error) {
	p.log.Info("Entering postal code.", zap.String("postal_code", postalCode))
	if err := p.ui.SetText(ctx, locators.PostalCodeInput, postalCode); err != nil {
		return nil, err
	}
	return p, nil
}

// FillForm enters all three fields. Empty values clear the field.
func (p *CheckoutStepOnePage) FillForm(ctx context.Context, firstName, lastName, postalCode string) (*CheckoutStepOnePage, error) {
	if _, err := p.EnterFirstName(ctx, firstName); err != nil {
		return nil, err
	}
	if _, err := p.EnterLastName(ctx, lastName); err != nil {
		return nil, err
	}
	return p.EnterPostalCode(ctx, postalCode)
}

// Continue submits the form. A missing field is a rejection naming the first
// missing field in form order.
func (p *CheckoutStepOnePage) Continue(ctx context.Context) (Outcome[*CheckoutStepTwoPage, *CheckoutStepOnePage], error) {
	var none Outcome[*CheckoutStepTwoPage, *CheckoutStepOnePage]

	p.log.Info("Clicking continue.")
	ok, msg, err := p.submit(ctx, "continue", locators.ContinueButton, locators.SummaryInfo)
	if err != nil {
		return none, err
	}
	if !ok {
		p.log.Warn("Checkout error.", zap.String("message", msg), zap.Stringer("field", ClassifyCheckoutError(msg)))
		p.s.Reject(p.state, navigation.Continue, msg)
		return Rejected[*CheckoutStepTwoPage](newCheckoutStepOnePage(p.s), msg), nil
	}

	next, err := advance(ctx, p.base, navigation.Continue, newCheckoutStepTwoPage)
	if err != nil {
		return none, err
	}
	return Navigated[*CheckoutStepTwoPage, *CheckoutStepOnePage](next), nil
}

func (p *CheckoutStepOnePage) Cancel(ctx context.Context) (*CartPage, error) {
	p.log.Info("Clicking cancel.")
	if err := p.ui.Click(ctx, locators.CancelButton); err != nil {
		return nil, err
	}
	return advance(ctx, p.base, navigation.CancelCheckout, newCartPage)
}

func (p *CheckoutStepOnePage) IsErrorMessageDisplayed(ctx context.Context) bool {
	return p.ui.IsVisible(ctx, locators.ErrorBanner)
}

// ErrorMessage returns the banner text, or "" when no banner is shown.
func (p *CheckoutStepOnePage) ErrorMessage(ctx context.Context) (string, error) {
	if !p.IsErrorMessageDisplayed(ctx) {
		return "", nil
	}
	return p.ui.ReadText(ctx, locators.ErrorBanner)
}

// CheckoutField names the form field a checkout error refers to.
type CheckoutField int

const (
	FieldNone CheckoutField = iota
	FieldFirstName
	FieldLastName
	FieldPostalCode
)

func (f CheckoutField) String() string {
	switch f {
	case FieldNone:
		return "none"
	case FieldFirstName:
		return "first_name"
	case FieldLastName:
		return "last_name"
	case FieldPostalCode:
		return "postal_code"
	default:
		return fmt.Sprintf("CheckoutField(%d)", int(f))
	}
}

// ClassifyCheckoutError maps a checkout banner to the field it complains
// about. The form validates first name, last name, then postal code.
func ClassifyCheckoutError(msg string) CheckoutField {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "first name"):
		return FieldFirstName
	case strings.Contains(m, "last name"):
		return FieldLastName
	case strings.Contains(m, "postal code"):
		return FieldPostalCode
	default:
		return FieldNone
	}
}

// CheckoutStepTwoPage is the order overview.
type CheckoutStepTwoPage struct{ base }

var _ Page = (*CheckoutStepTwoPage)(nil)

func newCheckoutStepTwoPage(s *session.Session) *CheckoutStepTwoPage {
	return &CheckoutStepTwoPage{newBase(s, navigation.CheckoutStepTwo, locators.SummaryInfo, locators.SubtotalLabel, locators.TotalLabel)}
}

func (p *CheckoutStepTwoPage) ItemCount(ctx context.Context) (int, error) {
	if err := p.WaitUntilLoaded(ctx); err != nil {
		return 0, err
	}
	return p.ui.Count(ctx, locators.CartItem), nil
}

func (p *CheckoutStepTwoPage) ItemNames(ctx context.Context) ([]string, error) {
	if err := p.WaitUntilLoaded(ctx); err != nil {
		return nil, err
	}
	return p.ui.ReadAllText(ctx, locators.CartNames)
}

// Subtotal returns the item total with its label removed, e.g. "$29.99".
func (p *CheckoutStepTwoPage) Subtotal(ctx context.Context) (string, error) {
	return p.labelValue(ctx, locators.SubtotalLabel)
}

func (p *CheckoutStepTwoPage) Tax(ctx context.Context) (string, error) {
	return p.labelValue(ctx, locators.TaxLabel)
}

func (p *CheckoutStepTwoPage) Total(ctx context.Context) (string, error) {
	return p.labelValue(ctx, locators.TotalLabel)
}

func (p *CheckoutStepTwoPage) labelValue(ctx context.Context, loc dom.Locator) (string, error) {
	text, err := p.ui.ReadText(ctx, loc)
	if err != nil {
		return "", err
	}
	return stripLabel(text), nil
}

// OrderSummary is the overview's money lines in cents.
type OrderSummary struct {
	Subtotal int64
	Tax      int64
	Total    int64
}

// Consistent reports whether subtotal plus tax equals total.
func (s OrderSummary) Consistent() bool { return s.Subtotal+s.Tax == s.Total }

// Summary reads and parses all three money lines.
func (p *CheckoutStepTwoPage) Summary(ctx context.Context) (OrderSummary, error) {
	var sum OrderSummary
	for _, f := range []struct {
		read func(context.Context) (string, error)
		dst  *int64
	}{
		{p.Subtotal, &sum.Subtotal},
		{p.Tax, &sum.Tax},
		{p.Total, &sum.Total},
	} {
		text, err := f.read(ctx)
		if err != nil {
			return OrderSummary{}, err
		}
		cents, err := ParsePrice(text)
		if err != nil {
			return OrderSummary{}, err
		}
		*f.dst = cents
	}
	return sum, nil
}

func (p *CheckoutStepTwoPage) Finish(ctx context.Context) (*CheckoutCompletePage, error) {
	p.log.Info("Clicking finish.")
	if err := p.ui.Click(ctx, locators.FinishButton); err != nil {
		return nil, err
	}
	return advance(ctx, p.base, navigation.Finish, newCheckoutCompletePage)
}

// Cancel abandons the order and returns to the catalog. The cart is kept.
func (p *CheckoutStepTwoPage) Cancel(ctx context.Context) (*InventoryPage, error) {
	p.log.Info("Clicking cancel.")
	if err := p.ui.Click(ctx, locators.CancelButton); err != nil {
		return nil, err
	}
	return advance(ctx, p.base, navigation.CancelOrder, newInventoryPage)
}
