package journeys

import (
	"context"
	"slices"

	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages"
)

// Products referenced by the journeys.
const (
	Backpack      = "Sauce Labs Backpack"
	BikeLight     = "Sauce Labs Bike Light"
	BoltTShirt    = "Sauce Labs Bolt T-Shirt"
	FleeceJacket  = "Sauce Labs Fleece Jacket"
	Onesie        = "Sauce Labs Onesie"
	UnknownItem   = "Sauce Labs Invisible Cloak"
	defaultFirst  = "John"
	defaultLast   = "Doe"
	defaultPostal = "12345"
)

var inventoryJourneys = []Journey{
	{
		Name:        "inventory/count",
		Description: "Verify the inventory lists every product with a price",
		Run:         inventoryCount,
	},
	{
		Name:        "inventory/add-to-cart",
		Description: "Verify adding products updates the cart badge",
		Run:         inventoryAddToCart,
	},
	{
		Name:        "inventory/sorting",
		Description: "Verify sorting by name and price, and that price sorts are inverses",
		Run:         inventorySorting,
	},
	{
		Name:        "inventory/unknown-item",
		Description: "Verify adding a product that does not exist leaves the cart unchanged",
		Run:         inventoryUnknownItem,
	},
	{
		Name:        "inventory/add-remove-roundtrip",
		Description: "Verify adding a product and removing it in the cart restores the cart",
		Run:         inventoryRoundTrip,
	},
	{
		Name:        "inventory/navigate-to-cart",
		Description: "Verify the cart link opens the cart and continue shopping returns",
		Run:         inventoryNavigateToCart,
	},
}

func inventoryCount(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}
	names, err := inv.ItemNames(ctx)
	if err != nil {
		return err
	}
	if err := expectEqual("inventory size", CatalogSize, len(names)); err != nil {
		return err
	}
	prices, err := inv.ItemPrices(ctx)
	if err != nil {
		return err
	}
	if err := expectEqual("price count", len(names), len(prices)); err != nil {
		return err
	}
	for i, p := range prices {
		if _, err := pages.ParsePrice(p); err != nil {
			return failf("price of %q: %v", names[i], err)
		}
	}
	return nil
}

func inventoryAddToCart(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}
	for i, name := range []string{Backpack, BikeLight} {
		if inv, err = inv.AddItemToCart(ctx, name); err != nil {
			return err
		}
		n, err := inv.CartBadgeCount(ctx)
		if err != nil {
			return err
		}
		if err := expectEqual("cart badge after adding "+name, i+1, n); err != nil {
			return err
		}
	}
	return nil
}

func inventorySorting(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}

	if inv, err = inv.SortBy(ctx, pages.SortNameAsc); err != nil {
		return err
	}
	az, err := inv.ItemNames(ctx)
	if err != nil {
		return err
	}
	if err := expect(slices.IsSorted(az), "names are not in ascending order: %q", az); err != nil {
		return err
	}

	if inv, err = inv.SortBy(ctx, pages.SortNameDesc); err != nil {
		return err
	}
	za, err := inv.ItemNames(ctx)
	if err != nil {
		return err
	}
	if err := expectDiff("descending names", reversed(az), za); err != nil {
		return err
	}

	if inv, err = inv.SortBy(ctx, pages.SortPriceAsc); err != nil {
		return err
	}
	ascNames, ascPrices, err := namesAndCents(ctx, inv)
	if err != nil {
		return err
	}
	if err := expect(slices.IsSorted(ascPrices), "prices are not in ascending order: %v", ascPrices); err != nil {
		return err
	}

	if inv, err = inv.SortBy(ctx, pages.SortPriceDesc); err != nil {
		return err
	}
	descNames, descPrices, err := namesAndCents(ctx, inv)
	if err != nil {
		return err
	}
	if err := expectDiff("descending prices", reversed(ascPrices), descPrices); err != nil {
		return err
	}
	// Equal prices keep catalog order in both directions, so only the ends
	// of the name lists are guaranteed to swap.
	return expectEqual("most expensive item", ascNames[len(ascNames)-1], descNames[0])
}

func namesAndCents(ctx context.Context, inv *pages.InventoryPage) ([]string, []int64, error) {
	names, err := inv.ItemNames(ctx)
	if err != nil {
		return nil, nil, err
	}
	prices, err := inv.ItemPrices(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(names) == 0 || len(names) != len(prices) {
		return nil, nil, failf("inventory shows %d names and %d prices", len(names), len(prices))
	}
	cents := make([]int64, len(prices))
	for i, p := range prices {
		if cents[i], err = pages.ParsePrice(p); err != nil {
			return nil, nil, failf("price of %q: %v", names[i], err)
		}
	}
	return names, cents, nil
}

func reversed[T any](in []T) []T {
	out := slices.Clone(in)
	slices.Reverse(out)
	return out
}

func inventoryUnknownItem(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}
	if inv, err = inv.AddItemToCart(ctx, Backpack); err != nil {
		return err
	}
	before, err := inv.CartBadgeCount(ctx)
	if err != nil {
		return err
	}
	if inv, err = inv.AddItemToCart(ctx, UnknownItem); err != nil {
		return err
	}
	after, err := inv.CartBadgeCount(ctx)
	if err != nil {
		return err
	}
	return expectEqual("cart badge after adding an unknown item", before, after)
}

func inventoryRoundTrip(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}
	cart, err := inv.GoToCart(ctx)
	if err != nil {
		return err
	}
	before, err := cart.ItemCount(ctx)
	if err != nil {
		return err
	}
	if inv, err = cart.ContinueShopping(ctx); err != nil {
		return err
	}

	if inv, err = inv.AddItemToCart(ctx, Onesie); err != nil {
		return err
	}
	if cart, err = inv.GoToCart(ctx); err != nil {
		return err
	}
	ok, err := cart.Contains(ctx, Onesie)
	if err != nil {
		return err
	}
	if err := expect(ok, "%s is not in the cart after adding it", Onesie); err != nil {
		return err
	}
	if cart, err = cart.RemoveItem(ctx, Onesie); err != nil {
		return err
	}
	after, err := cart.ItemCount(ctx)
	if err != nil {
		return err
	}
	return expectEqual("cart size after the round trip", before, after)
}

func inventoryNavigateToCart(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}
	if inv, err = inv.AddItemToCart(ctx, FleeceJacket); err != nil {
		return err
	}
	cart, err := inv.GoToCart(ctx)
	if err != nil {
		return err
	}
	if err := expectEqual("current page", navigation.Cart, env.Session.Current()); err != nil {
		return err
	}
	names, err := cart.ItemNames(ctx)
	if err != nil {
		return err
	}
	if err := expectDiff("cart contents", []string{FleeceJacket}, names); err != nil {
		return err
	}
	back, err := cart.ContinueShopping(ctx)
	if err != nil {
		return err
	}
	n, err := back.CartBadgeCount(ctx)
	if err != nil {
		return err
	}
	return expectEqual("cart badge after continuing to shop", 1, n)
}
