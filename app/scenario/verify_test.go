package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	tbl := []struct {
		name    string
		file    *File
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid file",
			file: &File{Scenarios: []Scenario{
				{MainMenu: "Books", ExpectedURL: "/books", Description: "books"},
				{MainMenu: "Computers", SubMenu: "Desktops", ExpectedURL: "/desktops", Description: "desktops"},
			}},
		},
		{
			name:    "empty scenarios",
			file:    &File{Scenarios: []Scenario{}},
			wantErr: true,
			errMsg:  "at least one scenario is required",
		},
		{
			name:    "nil scenarios",
			file:    &File{},
			wantErr: true,
			errMsg:  "at least one scenario is required",
		},
		{
			name:    "missing main menu",
			file:    &File{Scenarios: []Scenario{{ExpectedURL: "/books", Description: "b"}}},
			wantErr: true,
			errMsg:  "mainMenu is required",
		},
		{
			name:    "relative expected url",
			file:    &File{Scenarios: []Scenario{{MainMenu: "Books", ExpectedURL: "books", Description: "b"}}},
			wantErr: true,
			errMsg:  "expectedUrl must be a path fragment",
		},
		{
			name: "duplicate description",
			file: &File{Scenarios: []Scenario{
				{MainMenu: "Books", ExpectedURL: "/books", Description: "same"},
				{MainMenu: "Jewelry", ExpectedURL: "/jewelry", Description: "same"},
			}},
			wantErr: true,
			errMsg:  "duplicates scenario 1",
		},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAgainstEmbeddedSchema(tt.file)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVerify_EmbeddedData(t *testing.T) {
	records, err := Default()
	require.NoError(t, err)
	assert.NoError(t, VerifyAgainstEmbeddedSchema(&File{Scenarios: records}))
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)

	defs, ok := schema.Definitions["Scenario"]
	require.True(t, ok, "schema should define the Scenario shape")
	assert.Contains(t, defs.Required, "mainMenu")
	assert.Contains(t, defs.Required, "expectedUrl")
	assert.Contains(t, defs.Required, "description")
	assert.NotContains(t, defs.Required, "subMenu")
}
