package journeys

import (
	"context"

	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages"
)

// CatalogSize is the number of products the application lists.
const CatalogSize = 6

var loginJourneys = []Journey{
	{
		Name:        "login/standard",
		Description: "Verify successful login with valid credentials",
		Run:         loginStandard,
	},
	{
		Name:        "login/locked-out",
		Description: "Verify the locked out user is rejected with a lockout message",
		Run:         loginLockedOut,
	},
	{
		Name:        "login/invalid",
		Description: "Verify invalid and missing credentials are rejected on the login page",
		Run:         loginInvalid,
	},
	{
		Name:        "login/problem-user",
		Description: "Verify the problem user can still reach the inventory",
		Run:         loginProblemUser,
	},
	{
		Name:        "login/logout",
		Description: "Verify logout from the menu returns to the login page",
		Run:         loginLogout,
	},
}

func loginStandard(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
		return err
	}
	if err := expect(inv.IsLoaded(ctx), "inventory page is not displayed after login"); err != nil {
		return err
	}
	return expectEqual("current page", navigation.Inventory, env.Session.Current())
}

func loginLockedOut(ctx context.Context, env *Env) error {
	if env.Credentials.LockedOutUser == "" {
		return Skip("credentials.locked_out_user is not configured")
	}
	login, err := env.Open(ctx)
	if err != nil {
		return err
	}
	out, err := login.Login(ctx, env.Credentials.LockedOutUser, env.Credentials.Password)
	if err != nil {
		return err
	}
	same, msg, rejected := out.Rejected()
	if !rejected {
		return failf("locked out user was let in")
	}
	if err := expect(same.IsErrorMessageDisplayed(ctx), "no error banner after a locked out login"); err != nil {
		return err
	}
	if err := expectEqual("rejection reason", pages.LockedOut, pages.ClassifyLoginError(msg)); err != nil {
		return err
	}
	return expectEqual("current page", navigation.LoggedOut, env.Session.Current())
}

func loginInvalid(ctx context.Context, env *Env) error {
	cases := []struct {
		user, password string
		want           pages.LoginFailure
	}{
		{env.Credentials.StandardUser, "invalid_password", pages.CredentialMismatch},
		{"invalid_user", env.Credentials.Password, pages.CredentialMismatch},
		{"", env.Credentials.Password, pages.UsernameRequired},
		{env.Credentials.StandardUser, "", pages.PasswordRequired},
	}

	login, err := env.Open(ctx)
	if err != nil {
		return err
	}
	for _, tc := range cases {
		out, err := login.Login(ctx, tc.user, tc.password)
		if err != nil {
			return err
		}
		same, msg, rejected := out.Rejected()
		if !rejected {
			return failf("login as %q with password %q was accepted", tc.user, tc.password)
		}
		if err := expectEqual("rejection reason for "+quoteOrEmpty(tc.user), tc.want, pages.ClassifyLoginError(msg)); err != nil {
			return err
		}
		login = same
	}
	return expectEqual("current page", navigation.LoggedOut, env.Session.Current())
}

func loginProblemUser(ctx context.Context, env *Env) error {
	if env.Credentials.ProblemUser == "" {
		return Skip("credentials.problem_user is not configured")
	}
	inv, err := env.LoginAs(ctx, env.Credentials.ProblemUser)
	if err != nil {
		return err
	}
	n, err := inv.ItemCount(ctx)
	if err != nil {
		return err
	}
	return expectEqual("inventory size", CatalogSize, n)
}

func loginLogout(ctx context.Context, env *Env) error {
	inv, err := env.Standard(ctx)
	if err != nil {
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

func quoteOrEmpty(s string) string {
	if s == "" {
		return "empty username"
	}
	return "\"" + s + "\""
}
