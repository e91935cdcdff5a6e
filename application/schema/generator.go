// Package schema generates JSON schemas for numbridge documents and
// compiles them into validators.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/reglet-dev/numbridge/application/validation"
	"github.com/reglet-dev/numbridge/domain/errors"
)

// Option adjusts the schema reflector.
type Option func(*jsonschema.Reflector)

// Partial makes every property optional unless tagged
// `jsonschema:"required"`. Use it for documents that overlay defaults.
func Partial() Option {
	return func(r *jsonschema.Reflector) {
		r.RequiredFromJSONSchemaTags = true
	}
}

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12). Nested structs are
// inlined rather than referenced.
func GenerateSchema(v any, opts ...Option) ([]byte, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	for _, opt := range opts {
		opt(reflector)
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, &errors.SchemaError{Type: fmt.Sprintf("%T", v), Err: fmt.Errorf("failed to marshal schema: %w", err)}
	}

	return jsonBytes, nil
}

// Validator generates the schema of v and compiles it under name.
func Validator(name string, v any, opts ...Option) (*validation.SchemaValidator, error) {
	raw, err := GenerateSchema(v, opts...)
	if err != nil {
		return nil, err
	}
	sv, err := validation.NewSchemaValidator(name, raw)
	if err != nil {
		return nil, &errors.SchemaError{Type: fmt.Sprintf("%T", v), Err: err}
	}
	return sv, nil
}
