package hostfuncs

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
)

// ErrorResponse represents a structured error that can be returned as JSON to guests.
// This ensures guests receive consistent, parseable errors instead of causing WASM traps.
type ErrorResponse struct {
	// Error is a machine-readable error type identifier (e.g., "VALIDATION_ERROR", "INTERNAL_ERROR").
	Error string `json:"error"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Details lists individual field failures for validation errors.
	Details []entities.ValidationError `json:"details,omitempty"`

	// Code is a numeric error code (e.g., 400, 500).
	Code int `json:"code"`
}

// ToJSON serializes the ErrorResponse to JSON bytes.
// Returns nil if serialization fails (which should never happen for this simple type).
func (e ErrorResponse) ToJSON() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// AsErrorResponse reports whether data is an encoded ErrorResponse.
func AsErrorResponse(data []byte) (ErrorResponse, bool) {
	var probe struct {
		Error   *string `json:"error"`
		Message string  `json:"message"`
		Code    int     `json:"code"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.Error == nil || probe.Code == 0 {
		return ErrorResponse{}, false
	}
	var e ErrorResponse
	if err := json.Unmarshal(data, &e); err != nil {
		return ErrorResponse{}, false
	}
	return e, true
}

// NewValidationError creates an error response for bad input (e.g., malformed JSON).
func NewValidationError(message string, details ...entities.ValidationError) ErrorResponse {
	return ErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
		Code:    400,
	}
}

// NewNotFoundError creates an error response for unknown handler names.
func NewNotFoundError(name string) ErrorResponse {
	return ErrorResponse{
		Error:   "NOT_FOUND",
		Message: "unknown host function: " + name,
		Code:    404,
	}
}

// NewInternalError creates an error response for unexpected failures.
func NewInternalError(message string) ErrorResponse {
	return ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: message,
		Code:    500,
	}
}

// NewPanicError creates an error response for recovered panics.
func NewPanicError(panicValue any) ErrorResponse {
	var msg string
	if err, ok := panicValue.(error); ok {
		msg = err.Error()
	} else if s, ok := panicValue.(string); ok {
		msg = s
	} else {
		msg = "panic recovered"
	}
	return ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: "panic: " + msg,
		Code:    500,
	}
}

// NewErrorFrom maps a bridge error to an error response. Errors caused by
// the caller's input map to 4xx codes; anything else is internal.
func NewErrorFrom(err error) ErrorResponse {
	var (
		argErr   *errors.ArgumentError
		limitErr *errors.LimitError
		typeErr  *errors.TypeMismatchError
	)
	switch {
	case stdErrors.As(err, &limitErr):
		return ErrorResponse{Error: "LIMIT_EXCEEDED", Message: err.Error(), Code: 413}
	case stdErrors.As(err, &argErr), stdErrors.As(err, &typeErr):
		return NewValidationError(err.Error())
	default:
		detail := errors.ToErrorDetail(err)
		return ErrorResponse{Error: "INTERNAL_ERROR", Message: detail.Error(), Code: 500}
	}
}

// Err converts the response into a Go error.
func (e ErrorResponse) Err() error {
	return &ResponseError{Response: e}
}

// ResponseError carries an ErrorResponse received from a host function.
type ResponseError struct {
	Response ErrorResponse
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Response.Error, e.Response.Code, e.Response.Message)
}
