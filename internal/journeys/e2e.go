package journeys

import (
	"context"

	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages"
)

var endToEndJourneys = []Journey{
	{
		Name:        "e2e/scenario",
		Description: "Verify a single item purchase from login back to an empty catalog",
		Run:         scenario,
	},
	{
		Name:        "e2e/full-flow",
		Description: "Verify sorting, cart edits, checkout and logout in one session",
		Run:         fullFlow,
	},
}

func scenario(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}
	if inv, err = inv.AddItemToCart(ctx, Backpack); err != nil {
		return err
	}
	cart, err := inv.GoToCart(ctx)
	if err != nil {
		return err
	}
	n, err := cart.ItemCount(ctx)
	if err != nil {
		return err
	}
	if err := expectEqual("cart size", 1, n); err != nil {
		return err
	}

	step1, err := cart.Checkout(ctx)
	if err != nil {
		return err
	}
	step2, err := continueToOverview(ctx, step1)
	if err != nil {
		return err
	}
	if n, err = step2.ItemCount(ctx); err != nil {
		return err
	}
	if err := expectEqual("overview items", 1, n); err != nil {
		return err
	}

	done, err := step2.Finish(ctx)
	if err != nil {
		return err
	}
	if err := expect(done.IsOrderSuccessful(ctx), "order confirmation is not shown"); err != nil {
		return err
	}
	if inv, err = done.BackHome(ctx); err != nil {
		return err
	}
	badge, err := inv.CartBadgeCount(ctx)
	if err != nil {
		return err
	}
	return expectEqual("cart badge after the order", 0, badge)
}

func fullFlow(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}
	if inv, err = inv.SortBy(ctx, pages.SortPriceAsc); err != nil {
		return err
	}
	_, cents, err := namesAndCents(ctx, inv)
	if err != nil {
		return err
	}
	cheapest := cents[0]

	for _, name := range []string{Onesie, BikeLight, BoltTShirt} {
		if inv, err = inv.AddItemToCart(ctx, name); err != nil {
			return err
		}
	}
	badge, err := inv.CartBadgeCount(ctx)
	if err != nil {
		return err
	}
	if err := expectEqual("cart badge", 3, badge); err != nil {
		return err
	}

	cart, err := inv.GoToCart(ctx)
	if err != nil {
		return err
	}
	if cart, err = cart.RemoveItem(ctx, BikeLight); err != nil {
		return err
	}
	names, err := cart.ItemNames(ctx)
	if err != nil {
		return err
	}
	if err := expectDiff("cart after removal", []string{Onesie, BoltTShirt}, names); err != nil {
		return err
	}

	step1, err := cart.Checkout(ctx)
	if err != nil {
		return err
	}
	step2, err := continueToOverview(ctx, step1)
	if err != nil {
		return err
	}
	sum, err := step2.Summary(ctx)
	if err != nil {
		return err
	}
	if err := expect(sum.Consistent(), "subtotal %d + tax %d != total %d", sum.Subtotal, sum.Tax, sum.Total); err != nil {
		return err
	}
	if err := expect(sum.Subtotal >= 2*cheapest, "subtotal %d is below two of the cheapest item (%d)", sum.Subtotal, cheapest); err != nil {
		return err
	}

	done, err := step2.Finish(ctx)
	if err != nil {
		return err
	}
	if err := expect(done.IsOrderSuccessful(ctx), "order confirmation is not shown"); err != nil {
		return err
	}
	if inv, err = done.BackHome(ctx); err != nil {
		return err
	}
	login, err := inv.Logout(ctx)
	if err != nil {
		return err
	}
	if err := expect(login.IsLoaded(ctx), "login page is not displayed after logout"); err != nil {
		return err
	}
	return expectEqual("current page", navigation.LoggedOut, env.Session.Current())
}
