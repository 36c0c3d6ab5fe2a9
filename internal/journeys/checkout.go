package journeys

import (
	"context"

	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages"
)

var checkoutJourneys = []Journey{
	{
		Name:        "checkout/complete",
		Description: "Verify a two item order shows consistent totals and completes",
		Run:         checkoutComplete,
	},
	{
		Name:        "checkout/validation",
		Description: "Verify the information form reports missing fields in form order",
		Run:         checkoutValidation,
	},
	{
		Name:        "checkout/cancel",
		Description: "Verify cancelling either checkout step keeps the cart",
		Run:         checkoutCancel,
	},
}

// startCheckout logs in, adds items and opens the information form.
func startCheckout(ctx context.Context, env *Env, items ...string) (*pages.CheckoutStepOnePage, error) {
	inv, err := env.Standard(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range items {
		if inv, err = inv.AddItemToCart(ctx, name); err != nil {
			return nil, err
		}
	}
	cart, err := inv.GoToCart(ctx)
	if err != nil {
		return nil, err
	}
	return cart.Checkout(ctx)
}

// continueToOverview fills the form with valid data and expects the overview.
func continueToOverview(ctx context.Context, step1 *pages.CheckoutStepOnePage) (*pages.CheckoutStepTwoPage, error) {
	if _, err := step1.FillForm(ctx, defaultFirst, defaultLast, defaultPostal); err != nil {
		return nil, err
	}
	out, err := step1.Continue(ctx)
	if err != nil {
		return nil, err
	}
	step2, ok := out.Navigated()
	if !ok {
		return nil, failf("checkout information was rejected: %s", out.Message())
	}
	return step2, nil
}

func checkoutComplete(ctx context.Context, env *Env) error {
	items := []string{Backpack, BikeLight}
	step1, err := startCheckout(ctx, env, items...)
	if err != nil {
		return err
	}
	step2, err := continueToOverview(ctx, step1)
	if err != nil {
		return err
	}

	names, err := step2.ItemNames(ctx)
	if err != nil {
		return err
	}
	if err := expectDiff("order items", items, names); err != nil {
		return err
	}
	sum, err := step2.Summary(ctx)
	if err != nil {
		return err
	}
	if err := expect(sum.Consistent(), "subtotal %d + tax %d != total %d", sum.Subtotal, sum.Tax, sum.Total); err != nil {
		return err
	}
	if err := expect(sum.Tax > 0, "tax is %d", sum.Tax); err != nil {
		return err
	}

	done, err := step2.Finish(ctx)
	if err != nil {
		return err
	}
	if err := expect(done.IsOrderSuccessful(ctx), "order confirmation is not shown"); err != nil {
		return err
	}
	return expectEqual("current page", navigation.CheckoutComplete, env.Session.Current())
}

func checkoutValidation(ctx context.Context, env *Env) error {
	step1, err := startCheckout(ctx, env, Backpack)
	if err != nil {
		return err
	}

	cases := []struct {
		first, last, postal string
		want                pages.CheckoutField
	}{
		{"", "", "", pages.FieldFirstName},
		{defaultFirst, "", "", pages.FieldLastName},
		{defaultFirst, defaultLast, "", pages.FieldPostalCode},
	}
	for _, tc := range cases {
		if _, err := step1.FillForm(ctx, tc.first, tc.last, tc.postal); err != nil {
			return err
		}
		out, err := step1.Continue(ctx)
		if err != nil {
			return err
		}
		same, msg, rejected := out.Rejected()
		if !rejected {
			return failf("checkout continued without %s", tc.want)
		}
		if err := expectEqual("missing field", tc.want, pages.ClassifyCheckoutError(msg)); err != nil {
			return err
		}
		step1 = same
	}

	if _, err := continueToOverview(ctx, step1); err != nil {
		return err
	}
	return expectEqual("current page", navigation.CheckoutStepTwo, env.Session.Current())
}

func checkoutCancel(ctx context.Context, env *Env) error {
	step1, err := startCheckout(ctx, env, Onesie)
	if err != nil {
		return err
	}
	cart, err := step1.Cancel(ctx)
	if err != nil {
		return err
	}
	ok, err := cart.Contains(ctx, Onesie)
	if err != nil {
		return err
	}
	if err := expect(ok, "cart lost %s after cancelling the information step", Onesie); err != nil {
		return err
	}

	if step1, err = cart.Checkout(ctx); err != nil {
		return err
	}
	step2, err := continueToOverview(ctx, step1)
	if err != nil {
		return err
	}
	inv, err := step2.Cancel(ctx)
	if err != nil {
		return err
	}
	n, err := inv.CartBadgeCount(ctx)
	if err != nil {
		return err
	}
	return expectEqual("cart badge after cancelling the order", 1, n)
}
