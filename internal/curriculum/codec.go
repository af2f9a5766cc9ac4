package curriculum

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed catalog.schema.json
var catalogSchemaJSON []byte

var (
	catalogSchema     *gojsonschema.Schema
	catalogSchemaErr  error
	catalogSchemaOnce sync.Once
)

func compiledSchema() (*gojsonschema.Schema, error) {
	catalogSchemaOnce.Do(func() {
		catalogSchema, catalogSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(catalogSchemaJSON))
	})
	return catalogSchema, catalogSchemaErr
}

// ValidateRecord checks a persisted catalog record against the catalog schema.
func ValidateRecord(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling catalog schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validating catalog record: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("catalog record does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// EncodeCatalog serializes a catalog into its persisted form.
func EncodeCatalog(courses []Course) ([]byte, error) {
	if courses == nil {
		courses = []Course{}
	}
	data, err := json.Marshal(courses)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	return data, nil
}

// DecodeCatalog parses and validates a persisted catalog record.
func DecodeCatalog(data []byte) ([]Course, error) {
	if err := ValidateRecord(data); err != nil {
		return nil, err
	}
	var courses []Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := validateCatalog(courses); err != nil {
		return nil, err
	}
	return courses, nil
}
