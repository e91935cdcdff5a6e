// Package errors provides domain-specific error types for the bridge.
// All error types support error unwrapping via errors.As() and errors.Is().
//
// Every error in this package is fatal for the enclosing bridge call: the
// numerical algorithms rely on callbacks behaving exactly as contracted, so a
// violation is reported and never retried.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/numbridge/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// TypeMismatchError reports a host value whose type differs from what the
// bridge requires, e.g. a gradient callback returning a scalar where an
// array reference is expected.
type TypeMismatchError struct {
	Context  string // Where the value came from (e.g. "grad return value 2")
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("type mismatch in %s: expected %s, got %s", e.Context, e.Expected, e.Got)
	}
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// ToErrorDetail implements DetailedError.
func (e *TypeMismatchError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "type_mismatch", Code: e.Expected}
}

// ArityMismatchError reports a callback that returned a different number of
// values than its contract requires.
type ArityMismatchError struct {
	Function string
	Want     int
	Got      int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("arity mismatch: need %d return values from %s callback, got %d", e.Want, e.Function, e.Got)
}

// ToErrorDetail implements DetailedError.
func (e *ArityMismatchError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "arity",
		Code:    e.Function,
		Details: map[string]any{"want": e.Want, "got": e.Got},
	}
}

// MissingCallbackError reports that the numerical library needed a callback
// that was never registered.
type MissingCallbackError struct {
	Kind string // "func" or "grad"
}

func (e *MissingCallbackError) Error() string {
	return fmt.Sprintf("missing %s callback", e.Kind)
}

// ToErrorDetail implements DetailedError.
func (e *MissingCallbackError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "missing_callback", Code: e.Kind}
}

// CallbackError wraps an error raised by the host function itself.
type CallbackError struct {
	Err      error
	Function string
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s callback failed: %v", e.Function, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *CallbackError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "callback",
		Code:    e.Function,
		Wrapped: ToErrorDetail(e.Err),
	}
}

// LimitError reports an input larger than the configured maximum.
type LimitError struct {
	What  string
	Size  int
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s length %d exceeds limit %d", e.What, e.Size, e.Limit)
}

// ToErrorDetail implements DetailedError.
func (e *LimitError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "limit", Code: e.What}
}

// ArgumentError reports arguments the numerical library rejects outright
// (mismatched lengths, empty inputs).
type ArgumentError struct {
	Operation string
	Reason    string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// ToErrorDetail implements DetailedError.
func (e *ArgumentError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "argument", Code: e.Operation}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// SchemaError represents a schema generation or validation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "schema"}
}

// WireFormatError represents a wire format encoding/decoding error on the
// WASM surface.
type WireFormatError struct {
	Err       error
	Operation string
	Type      string
}

func (e *WireFormatError) Error() string {
	return fmt.Sprintf("wire format %s failed for %s: %v", e.Operation, e.Type, e.Err)
}

func (e *WireFormatError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *WireFormatError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "internal", Code: "wire_format"}
}
