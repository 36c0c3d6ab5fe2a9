package pages

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages/locators"
)

// CartPage lists what the user is about to buy.
type CartPage struct{ base }

var _ Page = (*CartPage)(nil)

func newCartPage(s *session.Session) *CartPage {
	return &CartPage{newBase(s, navigation.Cart, locators.CartList)}
}

// ItemCount counts cart rows. An empty cart is zero, not an error.
func (p *CartPage) ItemCount(ctx context.Context) (int, error) {
	if err := p.WaitUntilLoaded(ctx); err != nil {
		return 0, err
	}
	return p.ui.Count(ctx, locators.CartItem), nil
}

func (p *CartPage) ItemNames(ctx context.Context) ([]string, error) {
	if err := p.WaitUntilLoaded(ctx); err != nil {
		return nil, err
	}
	return p.ui.ReadAllText(ctx, locators.CartNames)
}

func (p *CartPage) ItemPrices(ctx context.Context) ([]string, error) {
	if err := p.WaitUntilLoaded(ctx); err != nil {
		return nil, err
	}
	return p.ui.ReadAllText(ctx, locators.CartPrices)
}

// Contains reports whether an item with exactly this name is in the cart.
func (p *CartPage) Contains(ctx context.Context, name string) (bool, error) {
	names, err := p.ItemNames(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// RemoveItem removes the named row. A name not in the cart is logged and
// ignored.
func (p *CartPage) RemoveItem(ctx context.Context, name string) (*CartPage, error) {
	p.log.Info("Removing item from cart.", zap.String("item", name))
	button := locators.CartRemove(name)
	if p.ui.Count(ctx, button) == 0 {
		p.log.Warn("Item not found in cart, nothing removed.", zap.String("item", name))
		return p, nil
	}
	if err := p.ui.Click(ctx, button); err != nil {
		return nil, err
	}
	return p, nil
}

// CartBadgeCount reads the header badge, which the cart page also shows.
func (p *CartPage) CartBadgeCount(ctx context.Context) (int, error) {
	return badgeCount(ctx, p.ui)
}

func (p *CartPage) Checkout(ctx context.Context) (*CheckoutStepOnePage, error) {
	p.log.Info("Clicking checkout.")
	if err := p.ui.Click(ctx, locators.CheckoutButton); err != nil {
		return nil, err
	}
	return advance(ctx, p.base, navigation.Checkout, newCheckoutStepOnePage)
}

func (p *CartPage) ContinueShopping(ctx context.Context) (*InventoryPage, error) {
	p.log.Info("Continuing shopping.")
	if err := p.ui.Click(ctx, locators.ContinueShopping); err != nil {
		return nil, err
	}
	return advance(ctx, p.base, navigation.ContinueShopping, newInventoryPage)
}
