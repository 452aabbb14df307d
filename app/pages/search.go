package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Search is the page object for the storefront search box and result grid
type Search struct {
	page playwright.Page
}

// NewSearch makes a search page object on top of an open page
func NewSearch(page playwright.Page) *Search {
	return &Search{page: page}
}

// Query submits a search term and waits for the result page
func (s *Search) Query(term string) error {
	if err := s.page.Locator(SelectorSearchInput).Fill(term); err != nil {
		return fmt.Errorf("fill search box: %w", err)
	}
	if err := s.page.Locator(SelectorSearchButton).Click(); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	if err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("wait for search results: %w", err)
	}
	return nil
}

// ResultTitles returns the product titles on the result page, empty when the
// search matched nothing
func (s *Search) ResultTitles() ([]string, error) {
	noResult, err := s.page.Locator(SelectorNoResult).Count()
	if err != nil {
		return nil, fmt.Errorf("check no-result marker: %w", err)
	}
	if noResult > 0 {
		return []string{}, nil
	}

	titles, err := s.page.Locator(SelectorProductTitles).AllInnerTexts()
	if err != nil {
		return nil, fmt.Errorf("read result titles: %w", err)
	}
	return titles, nil
}
