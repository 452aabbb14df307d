// Package pages implements page objects for the demo storefront. Each page
// object wraps a playwright page and exposes domain actions, selectors are
// kept here as constants so layout changes touch one place only.
package pages

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// CSS selectors for the demo storefront
const (
	// top navigation
	SelectorTopMenu     = "ul.top-menu.notmobile"
	SelectorTopMenuItem = "ul.top-menu.notmobile > li"

	// search
	SelectorSearchInput   = "input#small-searchterms"
	SelectorSearchButton  = "button.search-box-button"
	SelectorProductTitles = ".product-item .product-title a"
	SelectorNoResult      = ".no-result"

	// account
	SelectorRegisterLink    = "a.ico-register"
	SelectorLoginLink       = "a.ico-login"
	SelectorLogoutLink      = "a.ico-logout"
	SelectorAccountLink     = "a.ico-account"
	SelectorRegisterButton  = "button#register-button"
	SelectorLoginButton     = "button.login-button"
	SelectorRegisterResult  = ".result"
	SelectorValidationError = ".message-error .validation-summary-errors"
)

// ErrUnknownMenuTarget is returned by Catalog.NavigateTo for a menu/submenu
// pair the storefront does not have. It is the single error kind negative
// trials assert on.
var ErrUnknownMenuTarget = errors.New("unknown menu target")

const locatorTimeoutMs = 5000

// topMenuLink builds a selector matching the top-level menu link with the
// exact visible text
func topMenuLink(mainMenu string) string {
	return fmt.Sprintf("%s > a:text-is(%q)", SelectorTopMenuItem, mainMenu)
}

// subMenuLink builds a selector matching a sublist link under the given top
// menu item
func subMenuLink(mainMenu, subMenu string) string {
	return fmt.Sprintf("%s:has(> a:text-is(%q)) ul.sublist a:text-is(%q)", SelectorTopMenuItem, mainMenu, subMenu)
}

// visible waits for the locator to become visible within the shared timeout
func visible(loc playwright.Locator) error {
	return loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(locatorTimeoutMs),
	})
}
