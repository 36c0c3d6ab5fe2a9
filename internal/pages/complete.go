package pages

import (
	"context"
	"strings"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages/locators"
)

// ConfirmationPhrase is what the completion header says after a successful
// order, compared case-insensitively.
const ConfirmationPhrase = "THANK YOU FOR YOUR ORDER"

// CheckoutCompletePage confirms a placed order.
type CheckoutCompletePage struct{ base }

var _ Page = (*CheckoutCompletePage)(nil)

func newCheckoutCompletePage(s *session.Session) *CheckoutCompletePage {
	return &CheckoutCompletePage{newBase(s, navigation.CheckoutComplete, locators.CompleteHeader, locators.CompleteText)}
}

func (p *CheckoutCompletePage) HeaderText(ctx context.Context) (string, error) {
	return p.ui.ReadText(ctx, locators.CompleteHeader)
}

func (p *CheckoutCompletePage) CompleteText(ctx context.Context) (string, error) {
	return p.ui.ReadText(ctx, locators.CompleteText)
}

// IsOrderSuccessful reports whether the confirmation header is shown. It
// never fails.
func (p *CheckoutCompletePage) IsOrderSuccessful(ctx context.Context) bool {
	if !p.ui.IsVisible(ctx, locators.CompleteHeader) {
		return false
	}
	header, err := p.HeaderText(ctx)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToUpper(header), ConfirmationPhrase)
}

func (p *CheckoutCompletePage) BackHome(ctx context.Context) (*InventoryPage, error) {
	p.log.Info("Clicking back home.")
	if err := p.ui.Click(ctx, locators.BackHomeButton); err != nil {
		return nil, err
	}
	return advance(ctx, p.base, navigation.BackHome, newInventoryPage)
}
