// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Violation is one field-level failure found while checking a record against
// a JSON schema.
type Violation struct {
	Field   string
	Problem string
}

// ValidateRecord validates a single record against a JSON schema and returns
// the field-level violations. A nil slice means the record conforms. The
// error return is reserved for malformed schemas, not for invalid records.
func ValidateRecord(schema map[string]interface{}, record map[string]interface{}) ([]Violation, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: failed to serialize schema: %w", err)
	}
	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: failed to serialize record: %w", err)
	}
	documentLoader := gojsonschema.NewBytesLoader(recordBytes)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		violations = append(violations, Violation{
			Field:   violationField(resultErr),
			Problem: resultErr.Description(),
		})
	}
	return violations, nil
}

// violationField extracts the offending field name. Required-property errors
// report the parent object as their field, so the missing property name has
// to come out of the error details instead.
func violationField(resultErr gojsonschema.ResultError) string {
	if resultErr.Type() == "required" {
		if prop, ok := resultErr.Details()["property"].(string); ok {
			return prop
		}
	}
	return resultErr.Field()
}

// MergeWithDefaults merges a record with default values. Values present in
// the record win.
func MergeWithDefaults(record map[string]interface{}, defaults map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(record)+len(defaults))

	for k, v := range defaults {
		result[k] = v
	}
	for k, v := range record {
		result[k] = v
	}

	return result
}
