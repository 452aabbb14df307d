package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Catalog is the page object for storefront navigation, i.e. the top menu
// with its category sublists.
type Catalog struct {
	page    playwright.Page
	baseURL string
}

// NewCatalog makes a catalog page object on top of an open page
func NewCatalog(page playwright.Page, baseURL string) *Catalog {
	return &Catalog{page: page, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Open navigates to the storefront landing page and waits for the top menu
func (c *Catalog) Open() error {
	if _, err := c.page.Goto(c.baseURL+"/", playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("open %s: %w", c.baseURL, err)
	}
	if err := visible(c.page.Locator(SelectorTopMenu)); err != nil {
		return fmt.Errorf("top menu not visible on %s: %w", c.baseURL, err)
	}
	return nil
}

// NavigateTo clicks through the top menu to the given target. With an empty
// subMenu the top-level link itself is clicked. A menu or submenu the
// storefront does not have yields ErrUnknownMenuTarget, there is no other
// failure mode for a wrong target.
func (c *Catalog) NavigateTo(mainMenu, subMenu string) error {
	main := c.page.Locator(topMenuLink(mainMenu))
	count, err := main.Count()
	if err != nil {
		return fmt.Errorf("locate menu %q: %w", mainMenu, err)
	}
	if count == 0 {
		return fmt.Errorf("menu %q: %w", mainMenu, ErrUnknownMenuTarget)
	}

	if strings.TrimSpace(subMenu) == "" {
		if err := main.First().Click(); err != nil {
			return fmt.Errorf("click menu %q: %w", mainMenu, err)
		}
		return c.waitLoaded()
	}

	// submenus only show on hover
	if err := main.First().Hover(); err != nil {
		return fmt.Errorf("hover menu %q: %w", mainMenu, err)
	}

	sub := c.page.Locator(subMenuLink(mainMenu, subMenu))
	count, err = sub.Count()
	if err != nil {
		return fmt.Errorf("locate submenu %q under %q: %w", subMenu, mainMenu, err)
	}
	if count == 0 {
		return fmt.Errorf("submenu %q under %q: %w", subMenu, mainMenu, ErrUnknownMenuTarget)
	}

	if err := visible(sub.First()); err != nil {
		return fmt.Errorf("submenu %q under %q not visible: %w", subMenu, mainMenu, err)
	}
	if err := sub.First().Click(); err != nil {
		return fmt.Errorf("click submenu %q under %q: %w", subMenu, mainMenu, err)
	}
	return c.waitLoaded()
}

// Location returns the current page URL
func (c *Catalog) Location() string {
	return c.page.URL()
}

// waitLoaded waits for the navigation triggered by a click to settle
func (c *Catalog) waitLoaded() error {
	if err := c.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("wait for page load: %w", err)
	}
	return nil
}
