// Package validation checks configuration documents and host function
// requests, with JSON schemas (santhosh-tekuri/jsonschema) for raw documents
// and struct tags (go-playground/validator) for decoded values.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/numbridge/domain/entities"
)

// validate is a package-level singleton for better performance.
// Creating a new validator on each call is expensive; reusing is recommended.
var validate = validator.New()

// Struct validates v against its `validate` struct tags.
func Struct(v any) error {
	return validate.Struct(v)
}

// StructResult validates v and reports each failing field. Values that are
// not structs have nothing to validate.
func StructResult(v any) *entities.ValidationResult {
	result := &entities.ValidationResult{Valid: true}
	err := validate.Struct(v)
	if err == nil {
		return result
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return result
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			result.Fail(fe.Namespace(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
		}
		return result
	}
	result.Fail("", err.Error())
	return result
}

// Decode copies doc into target through its JSON representation and then
// validates target's struct tags.
func Decode(doc any, target any) error {
	// 1. Convert the document to JSON bytes
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	// 2. Unmarshal JSON bytes into the target struct
	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	// 3. Validate the struct using go-playground/validator
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// SchemaValidator checks documents against a compiled JSON schema.
type SchemaValidator struct {
	schema *jsonschema.Schema
	name   string
}

// NewSchemaValidator compiles schema, registered under name.
func NewSchemaValidator(name string, schema []byte) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource for %s: %w", name, err)
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", name, err)
	}
	return &SchemaValidator{schema: sch, name: name}, nil
}

// Validate checks doc, which may be any JSON-compatible Go value.
func (v *SchemaValidator) Validate(doc any) (*entities.ValidationResult, error) {
	result := &entities.ValidationResult{Valid: true}

	// The schema library only understands values produced by encoding/json.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	var obj any
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}

	if err := v.schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		for _, be := range ve.BasicOutput().Errors {
			// Skip the summary entries that only point at their causes.
			if be.Error == "" || strings.HasPrefix(be.Error, "doesn't validate with") {
				continue
			}
			result.Fail(fieldPath(be.InstanceLocation), be.Error)
		}
		if result.Valid {
			result.Fail("", ve.Error())
		}
	}

	return result, nil
}

// fieldPath converts a JSON pointer into a dotted path.
func fieldPath(pointer string) string {
	p := strings.TrimPrefix(pointer, "/")
	return strings.ReplaceAll(p, "/", ".")
}
