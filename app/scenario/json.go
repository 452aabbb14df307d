package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
)

// File is the top-level shape of a JSON scenario resource
type File struct {
	Scenarios []Scenario `json:"scenarios" jsonschema:"required"`
}

// NegativeFile is the top-level shape of a JSON negative-scenario resource
type NegativeFile struct {
	Scenarios []NegativeScenario `json:"scenarios" jsonschema:"required"`
}

// ReadJSON loads a JSON resource of positive scenarios. A record missing a
// required field fails the whole read, no partially populated records leak
// out of this layer.
func ReadJSON(fsys fs.FS, path string) ([]Scenario, error) {
	data, err := readResource(fsys, path)
	if err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", path, ErrMalformedData, err)
	}

	for i, s := range file.Scenarios {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("%s record %d: %w: %w", path, i+1, ErrMalformedData, err)
		}
	}
	return file.Scenarios, nil
}

// ReadNegativeJSON loads a JSON resource of negative scenarios. The expected
// URL is not part of the shape, error-path trials never land anywhere.
func ReadNegativeJSON(fsys fs.FS, path string) ([]NegativeScenario, error) {
	data, err := readResource(fsys, path)
	if err != nil {
		return nil, err
	}

	var file NegativeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", path, ErrMalformedData, err)
	}

	for i, n := range file.Scenarios {
		if err := n.validate(); err != nil {
			return nil, fmt.Errorf("%s record %d: %w: %w", path, i+1, ErrMalformedData, err)
		}
	}
	return file.Scenarios, nil
}

func readResource(fsys fs.FS, path string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w: %w", path, ErrResourceNotFound, err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
