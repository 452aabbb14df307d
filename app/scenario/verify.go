package scenario

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchemaData []byte

// VerifyAgainstEmbeddedSchema validates a scenario file against the embedded
// JSON schema before a run, so a broken data file fails fast instead of mid
// suite.
func VerifyAgainstEmbeddedSchema(file *File) error {
	// parse embedded schema to make sure the shipped artifact itself is sane
	var schema map[string]interface{}
	if err := json.Unmarshal(embeddedSchemaData, &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	if err := validateScenarioFile(file); err != nil {
		return fmt.Errorf("scenario file validation failed: %w", err)
	}
	return nil
}

// validateScenarioFile performs the field-level checks the schema describes
func validateScenarioFile(file *File) error {
	if len(file.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}

	seen := make(map[string]int, len(file.Scenarios))
	for i, s := range file.Scenarios {
		if err := s.validate(); err != nil {
			return fmt.Errorf("scenario %d: %w", i+1, err)
		}
		if !strings.HasPrefix(s.ExpectedURL, "/") {
			return fmt.Errorf("scenario %d: expectedUrl must be a path fragment starting with /", i+1)
		}
		// duplicate descriptions make trial reports ambiguous
		if prev, ok := seen[s.Description]; ok {
			return fmt.Errorf("scenario %d: description duplicates scenario %d", i+1, prev)
		}
		seen[s.Description] = i + 1
	}
	return nil
}

// GenerateSchema generates a JSON schema for the scenario file shape
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&File{}), nil
}
