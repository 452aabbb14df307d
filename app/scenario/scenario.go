// Package scenario deals with navigation scenario data for the storefront
// checks. It loads records from embedded or on-disk resources (JSON and CSV),
// classifies them and slices them into the subsets a test variant needs.
package scenario

import (
	"errors"
	"strings"
)

// data layer error kinds. Both are attached with %w alongside the original
// cause, so callers can errors.Is on the kind and still see what happened.
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrMalformedData    = errors.New("malformed data")
)

// Scenario describes a single positive navigation trial, i.e. one menu target
// and the URL fragment expected in the location after navigating to it.
type Scenario struct {
	MainMenu    string `json:"mainMenu"`
	SubMenu     string `json:"subMenu,omitempty"`
	ExpectedURL string `json:"expectedUrl"`
	Description string `json:"description"`
}

// IsSubmenu reports if the scenario targets a nested category. Classification
// is derived from SubMenu and never stored separately.
func (s Scenario) IsSubmenu() bool {
	return strings.TrimSpace(s.SubMenu) != ""
}

func (s Scenario) String() string {
	if s.IsSubmenu() {
		return s.MainMenu + " > " + s.SubMenu
	}
	return s.MainMenu
}

// validate checks required fields. ExpectedURL is required because a positive
// trial can't be judged without it.
func (s Scenario) validate() error {
	if strings.TrimSpace(s.MainMenu) == "" {
		return errors.New("mainMenu is required")
	}
	if strings.TrimSpace(s.ExpectedURL) == "" {
		return errors.New("expectedUrl is required")
	}
	if strings.TrimSpace(s.Description) == "" {
		return errors.New("description is required")
	}
	return nil
}

// NegativeScenario describes a navigation trial expected to fail, there is no
// expected URL because the navigation should never land anywhere.
type NegativeScenario struct {
	MainMenu    string `json:"mainMenu"`
	SubMenu     string `json:"subMenu,omitempty"`
	Description string `json:"description"`
}

func (n NegativeScenario) String() string {
	if strings.TrimSpace(n.SubMenu) != "" {
		return n.MainMenu + " > " + n.SubMenu
	}
	return n.MainMenu
}

func (n NegativeScenario) validate() error {
	if strings.TrimSpace(n.MainMenu) == "" {
		return errors.New("mainMenu is required")
	}
	if strings.TrimSpace(n.Description) == "" {
		return errors.New("description is required")
	}
	return nil
}

// Field is a single tabular cell. Present is false for an absent value, which
// is distinct from a present-but-blank one.
type Field struct {
	Value   string
	Present bool
}

// String returns the value or empty string for an absent field
func (f Field) String() string {
	if !f.Present {
		return ""
	}
	return f.Value
}

// Row is an ordered sequence of fields as handed to table-driven tests
type Row []Field

// field makes a present field, absent makes a missing one
func field(v string) Field { return Field{Value: v, Present: true} }
func absent() Field        { return Field{} }

func fieldOpt(v string) Field {
	if v == "" {
		return absent()
	}
	return field(v)
}
