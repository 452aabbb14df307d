package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScenario_IsSubmenu(t *testing.T) {
	tbl := []struct {
		name    string
		s       Scenario
		submenu bool
	}{
		{"no submenu", Scenario{MainMenu: "Books"}, false},
		{"blank submenu", Scenario{MainMenu: "Books", SubMenu: "  "}, false},
		{"with submenu", Scenario{MainMenu: "Computers", SubMenu: "Desktops"}, true},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.submenu, tt.s.IsSubmenu())
		})
	}
}

func TestScenario_String(t *testing.T) {
	assert.Equal(t, "Books", Scenario{MainMenu: "Books"}.String())
	assert.Equal(t, "Computers > Desktops", Scenario{MainMenu: "Computers", SubMenu: "Desktops"}.String())
	assert.Equal(t, "Groceries", NegativeScenario{MainMenu: "Groceries"}.String())
	assert.Equal(t, "Computers > Tablets", NegativeScenario{MainMenu: "Computers", SubMenu: "Tablets"}.String())
}

func TestScenario_validate(t *testing.T) {
	tbl := []struct {
		name    string
		s       Scenario
		wantErr string
	}{
		{"valid", Scenario{MainMenu: "Books", ExpectedURL: "/books", Description: "books"}, ""},
		{"no main menu", Scenario{ExpectedURL: "/books", Description: "books"}, "mainMenu is required"},
		{"no expected url", Scenario{MainMenu: "Books", Description: "books"}, "expectedUrl is required"},
		{"no description", Scenario{MainMenu: "Books", ExpectedURL: "/books"}, "description is required"},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestField_String(t *testing.T) {
	assert.Equal(t, "", absent().String())
	assert.Equal(t, "", fieldOpt("").String())
	assert.Equal(t, "x", field("x").String())
	assert.True(t, fieldOpt("x").Present)
	assert.False(t, fieldOpt("").Present)
}
