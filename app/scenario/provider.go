package scenario

import (
	"embed"
)

//go:embed data
var dataFS embed.FS

// bundled resources, usable with Embedded()
const (
	DefaultJSONFile     = "data/navigation.json"
	DefaultCSVFile      = "data/navigation.csv"
	DefaultNegativeFile = "data/negative.json"
)

// well-known top menu categories of the demo storefront
const (
	CategoryComputers   = "Computers"
	CategoryElectronics = "Electronics"
	CategoryApparel     = "Apparel"
)

// Embedded returns the bundled scenario resources
func Embedded() embed.FS { return dataFS }

// Default loads the bundled positive scenarios
func Default() ([]Scenario, error) {
	return ReadJSON(dataFS, DefaultJSONFile)
}

// DefaultNegative loads the bundled negative scenarios
func DefaultNegative() ([]NegativeScenario, error) {
	return ReadNegativeJSON(dataFS, DefaultNegativeFile)
}

// All returns an independent copy of records, in source order. Filters never
// share backing storage with their input.
func All(records []Scenario) []Scenario {
	result := make([]Scenario, len(records))
	copy(result, records)
	return result
}

// MainMenuOnly keeps records with no submenu, in source order
func MainMenuOnly(records []Scenario) []Scenario {
	return filter(records, func(s Scenario) bool { return !s.IsSubmenu() })
}

// SubmenuOnly keeps records with a non-empty submenu, in source order
func SubmenuOnly(records []Scenario) []Scenario {
	return filter(records, Scenario.IsSubmenu)
}

// ByCategory keeps submenu records under the given main menu category. The
// operation is parametric, the named categories above are just the common
// arguments. Filtering an already filtered set by the same category is a
// no-op.
func ByCategory(records []Scenario, category string) []Scenario {
	return filter(records, func(s Scenario) bool { return s.IsSubmenu() && s.MainMenu == category })
}

func filter(records []Scenario, keep func(Scenario) bool) []Scenario {
	result := []Scenario{}
	for _, s := range records {
		if keep(s) {
			result = append(result, s)
		}
	}
	return result
}

// Rows converts records to the tabular 4-tuple shape
// (mainMenu, subMenu, expectedUrl, description). An empty submenu becomes an
// absent field.
func Rows(records []Scenario) []Row {
	result := make([]Row, 0, len(records))
	for _, s := range records {
		result = append(result, Row{field(s.MainMenu), fieldOpt(s.SubMenu), field(s.ExpectedURL), field(s.Description)})
	}
	return result
}

// NegativeRows converts negative records to the 3-tuple shape
// (mainMenu, subMenu, description); the expected URL does not apply to
// error-path trials.
func NegativeRows(records []NegativeScenario) []Row {
	result := make([]Row, 0, len(records))
	for _, n := range records {
		result = append(result, Row{field(n.MainMenu), fieldOpt(n.SubMenu), field(n.Description)})
	}
	return result
}
