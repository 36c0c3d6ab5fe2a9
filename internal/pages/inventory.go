package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/dom"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages/locators"
)

// SortCriterion is a value of the product sort dropdown.
type SortCriterion string

const (
	SortNameAsc   SortCriterion = "az"
	SortNameDesc  SortCriterion = "za"
	SortPriceAsc  SortCriterion = "lohi"
	SortPriceDesc SortCriterion = "hilo"
)

// Valid reports whether c is one of the dropdown's values.
func (c SortCriterion) Valid() bool {
	switch c {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// InventoryPage is the product catalog shown after login.
type InventoryPage struct{ base }

var _ Page = (*InventoryPage)(nil)

func newInventoryPage(s *session.Session) *InventoryPage {
	return &InventoryPage{newBase(s, navigation.Inventory, locators.InventoryList, locators.CartLink)}
}

// ItemCount waits for the catalog to render and counts its items.
func (p *InventoryPage) ItemCount(ctx context.Context) (int, error) {
	if _, err := p.ui.WaitUntilVisible(ctx, locators.InventoryItem); err != nil {
		return 0, err
	}
	return p.ui.Count(ctx, locators.InventoryItem), nil
}

// ItemNames lists the displayed item names in page order.
func (p *InventoryPage) ItemNames(ctx context.Context) ([]string, error) {
	if _, err := p.ui.WaitUntilVisible(ctx, locators.InventoryItem); err != nil {
		return nil, err
	}
	return p.ui.ReadAllText(ctx, locators.InventoryNames)
}

// ItemPrices lists the displayed prices, currency sign included.
func (p *InventoryPage) ItemPrices(ctx context.Context) ([]string, error) {
	if _, err := p.ui.WaitUntilVisible(ctx, locators.InventoryItem); err != nil {
		return nil, err
	}
	return p.ui.ReadAllText(ctx, locators.InventoryPrice)
}

// AddItemToCart adds the item whose displayed name is exactly name. An
// unknown name, or an item already in the cart, is logged and ignored.
func (p *InventoryPage) AddItemToCart(ctx context.Context, name string) (*InventoryPage, error) {
	p.log.Info("Adding item to cart.", zap.String("item", name))
	if _, err := p.ui.WaitUntilVisible(ctx, locators.InventoryItem); err != nil {
		return nil, err
	}

	button := locators.AddToCart(name)
	if p.ui.Count(ctx, button) == 0 {
		if p.ui.Count(ctx, locators.InventoryRemove(name)) > 0 {
			p.log.Warn("Item is already in the cart, nothing to add.", zap.String("item", name))
		} else {
			p.log.Warn("Item not found in catalog, nothing added.", zap.String("item", name))
		}
		return p, nil
	}

	p.ui.ScrollIntoView(ctx, button)
	if err := p.ui.Click(ctx, button); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveItemFromCart removes an item from the cart without leaving the
// catalog. A name that is not in the cart is logged and ignored.
func (p *InventoryPage) RemoveItemFromCart(ctx context.Context, name string) (*InventoryPage, error) {
	p.log.Info("Removing item from cart.", zap.String("item", name))
	button := locators.InventoryRemove(name)
	if p.ui.Count(ctx, button) == 0 {
		p.log.Warn("Item is not in the cart, nothing removed.", zap.String("item", name))
		return p, nil
	}
	p.ui.ScrollIntoView(ctx, button)
	if err := p.ui.Click(ctx, button); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *InventoryPage) SortBy(ctx context.Context, criterion SortCriterion) (*InventoryPage, error) {
	if !criterion.Valid() {
		return nil, fmt.Errorf("unknown sort criterion %q", criterion)
	}
	p.log.Info("Sorting items.", zap.String("criterion", string(criterion)))
	if err := p.ui.SelectValue(ctx, locators.SortDropdown, string(criterion)); err != nil {
		return nil, err
	}
	return p, nil
}

// CartBadgeCount reads the number on the cart icon. No badge means an
// empty cart.
func (p *InventoryPage) CartBadgeCount(ctx context.Context) (int, error) {
	return badgeCount(ctx, p.ui)
}

func badgeCount(ctx context.Context, ui *dom.Interactor) (int, error) {
	if !ui.IsVisible(ctx, locators.CartBadge) {
		return 0, nil
	}
	text, err := ui.ReadText(ctx, locators.CartBadge)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("cart badge shows %q: %w", text, err)
	}
	return n, nil
}

// OpenMenu slides the side menu out.
func (p *InventoryPage) OpenMenu(ctx context.Context) (*InventoryPage, error) {
	p.log.Info("Opening menu.")
	if err := p.ui.Click(ctx, locators.MenuButton); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *InventoryPage) GoToCart(ctx context.Context) (*CartPage, error) {
	p.log.Info("Navigating to cart.")
	if err := p.ui.Click(ctx, locators.CartLink); err != nil {
		return nil, err
	}
	return advance(ctx, p.base, navigation.GoToCart, newCartPage)
}

// Logout opens the menu and signs out.
func (p *InventoryPage) Logout(ctx context.Context) (*LoginPage, error) {
	p.log.Info("Logging out.")
	if _, err := p.OpenMenu(ctx); err != nil {
		return nil, err
	}
	if err := p.ui.Click(ctx, locators.LogoutLink); err != nil {
		return nil, err
	}
	return advance(ctx, p.base, navigation.Logout, newLoginPage)
}
