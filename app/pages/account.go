package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Account is the page object for customer registration and login
type Account struct {
	page playwright.Page
}

// Registration holds the fields of the storefront registration form
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// NewAccount makes an account page object on top of an open page
func NewAccount(page playwright.Page) *Account {
	return &Account{page: page}
}

// Register opens the registration form, fills it and submits. The result
// message of the storefront is returned as-is.
func (a *Account) Register(reg Registration) (string, error) {
	if err := a.page.Locator(SelectorRegisterLink).Click(); err != nil {
		return "", fmt.Errorf("open registration: %w", err)
	}

	fields := map[string]string{
		"input#FirstName":       reg.FirstName,
		"input#LastName":        reg.LastName,
		"input#Email":           reg.Email,
		"input#Password":        reg.Password,
		"input#ConfirmPassword": reg.Password,
	}
	for sel, value := range fields {
		if err := a.page.Locator(sel).Fill(value); err != nil {
			return "", fmt.Errorf("fill %s: %w", sel, err)
		}
	}

	if err := a.page.Locator(SelectorRegisterButton).Click(); err != nil {
		return "", fmt.Errorf("submit registration: %w", err)
	}

	result := a.page.Locator(SelectorRegisterResult)
	if err := visible(result); err != nil {
		return "", fmt.Errorf("registration result not shown: %w", err)
	}
	text, err := result.InnerText()
	if err != nil {
		return "", fmt.Errorf("read registration result: %w", err)
	}
	return text, nil
}

// Login signs in with the given credentials, a failed sign-in returns the
// storefront validation message as error
func (a *Account) Login(email, password string) error {
	if err := a.page.Locator(SelectorLoginLink).Click(); err != nil {
		return fmt.Errorf("open login: %w", err)
	}
	if err := a.page.Locator("input#Email").Fill(email); err != nil {
		return fmt.Errorf("fill email: %w", err)
	}
	if err := a.page.Locator("input#Password").Fill(password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := a.page.Locator(SelectorLoginButton).Click(); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	if err := a.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("wait for login: %w", err)
	}

	// logout link shows up only for a signed-in customer
	loggedIn, err := a.page.Locator(SelectorLogoutLink).Count()
	if err != nil {
		return fmt.Errorf("check login state: %w", err)
	}
	if loggedIn == 0 {
		msg, merr := a.page.Locator(SelectorValidationError).InnerText()
		if merr != nil || msg == "" {
			msg = "login rejected"
		}
		return fmt.Errorf("login failed: %s", msg)
	}
	return nil
}

// Logout signs the customer out
func (a *Account) Logout() error {
	if err := a.page.Locator(SelectorLogoutLink).Click(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
