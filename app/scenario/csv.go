package scenario

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
)

// ReadCSV loads a delimited resource and returns its data rows in file order.
// With skipHeader the first row is treated as a header and dropped, this is
// the normal mode for the bundled data files. Blank cells come back as absent
// fields so consumers can tell "no value" from "present but empty".
func ReadCSV(fsys fs.FS, path string, skipHeader bool) ([]Row, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w: %w", path, ErrResourceNotFound, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only resource

	reader := csv.NewReader(f)
	records, err := reader.ReadAll() // enforces uniform column count across rows
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", path, ErrMalformedData, err)
	}

	if skipHeader && len(records) > 0 {
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, 0, len(rec))
		for _, cell := range rec {
			row = append(row, fieldOpt(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CSVScenarios reads a delimited resource with the standard
// mainMenu,subMenu,expectedUrl,description header and converts each data row
// to a typed record.
func CSVScenarios(fsys fs.FS, path string) ([]Scenario, error) {
	rows, err := ReadCSV(fsys, path, true)
	if err != nil {
		return nil, err
	}

	result := make([]Scenario, 0, len(rows))
	for i, row := range rows {
		if len(row) != 4 {
			return nil, fmt.Errorf("%s row %d: %w: expected 4 columns, got %d", path, i+1, ErrMalformedData, len(row))
		}
		s := Scenario{
			MainMenu:    row[0].String(),
			SubMenu:     row[1].String(),
			ExpectedURL: row[2].String(),
			Description: row[3].String(),
		}
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("%s row %d: %w: %w", path, i+1, ErrMalformedData, err)
		}
		result = append(result, s)
	}
	return result, nil
}
