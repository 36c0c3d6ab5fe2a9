package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser/session"
	"github.com/xkilldash9x/sauce-e2e/internal/navigation"
	"github.com/xkilldash9x/sauce-e2e/internal/pages/locators"
)

// LoginPage is the application's entry page.
type LoginPage struct{ base }

var _ Page = (*LoginPage)(nil)

func newLoginPage(s *session.Session) *LoginPage {
	return &LoginPage{newBase(s, navigation.LoggedOut, locators.LoginLogo, locators.UsernameInput, locators.PasswordInput, locators.LoginButton)}
}

func (p *LoginPage) EnterUsername(ctx context.Context, username string) (*LoginPage, error) {
	p.log.Info("Entering username.", zap.String("username", username))
	if err := p.ui.SetText(ctx, locators.UsernameInput, username); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LoginPage) EnterPassword(ctx context.Context, password string) (*LoginPage, error) {
	p.log.Info("Entering password.")
	if err := p.ui.SetText(ctx, locators.PasswordInput, password); err != nil {
		return nil, err
	}
	return p, nil
}

// Submit clicks the login button and waits to see whether the inventory or
// an error banner appears.
func (p *LoginPage) Submit(ctx context.Context) (Outcome[*InventoryPage, *LoginPage], error) {
	var none Outcome[*InventoryPage, *LoginPage]

	p.log.Info("Clicking login button.")
	ok, msg, err := p.submit(ctx, "login", locators.LoginButton, locators.InventoryList)
	if err != nil {
		return none, err
	}
	if !ok {
		p.log.Warn("Login failed.", zap.String("message", msg), zap.Stringer("reason", ClassifyLoginError(msg)))
		p.s.Reject(p.state, navigation.Login, msg)
		return Rejected[*InventoryPage](newLoginPage(p.s), msg), nil
	}

	inv, err := advance(ctx, p.base, navigation.Login, newInventoryPage)
	if err != nil {
		return none, err
	}
	return Navigated[*InventoryPage, *LoginPage](inv), nil
}

// Login fills both fields and submits.
func (p *LoginPage) Login(ctx context.Context, username, password string) (Outcome[*InventoryPage, *LoginPage], error) {
	p.log.Info("Logging in.", zap.String("username", username))
	if _, err := p.EnterUsername(ctx, username); err != nil {
		return Outcome[*InventoryPage, *LoginPage]{}, err
	}
	if _, err := p.EnterPassword(ctx, password); err != nil {
		return Outcome[*InventoryPage, *LoginPage]{}, err
	}
	return p.Submit(ctx)
}

func (p *LoginPage) IsErrorMessageDisplayed(ctx context.Context) bool {
	return p.ui.IsVisible(ctx, locators.ErrorBanner)
}

// ErrorMessage returns the banner text, or "" when no banner is shown.
func (p *LoginPage) ErrorMessage(ctx context.Context) (string, error) {
	if !p.IsErrorMessageDisplayed(ctx) {
		return "", nil
	}
	return p.ui.ReadText(ctx, locators.ErrorBanner)
}

// LoginFailure names why the application refused a login.
type LoginFailure int

const (
	LoginFailureUnknown LoginFailure = iota
	LockedOut
	CredentialMismatch
	UsernameRequired
	PasswordRequired
)

func (f LoginFailure) String() string {
	switch f {
	case LockedOut:
		return "locked_out"
	case CredentialMismatch:
		return "credential_mismatch"
	case UsernameRequired:
		return "username_required"
	case PasswordRequired:
		return "password_required"
	case LoginFailureUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("LoginFailure(%d)", int(f))
	}
}

// ClassifyLoginError maps a login banner to its cause.
func ClassifyLoginError(msg string) LoginFailure {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "locked out"):
		return LockedOut
	case strings.Contains(m, "do not match"):
		return CredentialMismatch
	case strings.Contains(m, "username is required"):
		return UsernameRequired
	case strings.Contains(m, "password is required"):
		return PasswordRequired
	default:
		return LoginFailureUnknown
	}
}
