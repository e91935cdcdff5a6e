package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/numbridge/domain/entities"
)

func TestTypeMismatchError(t *testing.T) {
	err := &TypeMismatchError{
		Context:  "grad return value 2",
		Expected: "array",
		Got:      "number",
	}

	assert.Equal(t, "type mismatch in grad return value 2: expected array, got number", err.Error())

	var tmErr *TypeMismatchError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &tmErr))
	assert.Equal(t, "array", tmErr.Expected)
}

func TestTypeMismatchError_NoContext(t *testing.T) {
	err := &TypeMismatchError{Expected: "table", Got: "string"}
	assert.Equal(t, "type mismatch: expected table, got string", err.Error())
}

func TestArityMismatchError(t *testing.T) {
	err := &ArityMismatchError{Function: "grad", Want: 2, Got: 1}

	assert.Equal(t, "arity mismatch: need 2 return values from grad callback, got 1", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "arity", detail.Type)
	assert.Equal(t, "grad", detail.Code)
	assert.Equal(t, 2, detail.Details["want"])
	assert.Equal(t, 1, detail.Details["got"])
}

func TestMissingCallbackError(t *testing.T) {
	err := &MissingCallbackError{Kind: "func"}
	assert.Equal(t, "missing func callback", err.Error())
	assert.Equal(t, "missing_callback", err.ToErrorDetail().Type)
}

func TestCallbackError(t *testing.T) {
	baseErr := fmt.Errorf("attempt to index a nil value")
	err := &CallbackError{Function: "func", Err: baseErr}

	assert.Equal(t, "func callback failed: attempt to index a nil value", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	detail := err.ToErrorDetail()
	assert.Equal(t, "callback", detail.Type)
	require.NotNil(t, detail.Wrapped)
	assert.Equal(t, "attempt to index a nil value", detail.Wrapped.Message)
	assert.Equal(t, "internal", detail.Wrapped.Type)
}

func TestCallbackError_WrapsContractError(t *testing.T) {
	err := &CallbackError{
		Function: "grad",
		Err:      &TypeMismatchError{Context: "grad return value 2", Expected: "array", Got: "number"},
	}

	var tmErr *TypeMismatchError
	require.True(t, errors.As(err, &tmErr))
	assert.Equal(t, "type_mismatch", err.ToErrorDetail().Wrapped.Type)
}

func TestLimitError(t *testing.T) {
	err := &LimitError{What: "x", Size: 2000000, Limit: 1000000}
	assert.Equal(t, "x length 2000000 exceeds limit 1000000", err.Error())
	assert.Equal(t, "limit", err.ToErrorDetail().Type)
}

func TestArgumentError(t *testing.T) {
	err := &ArgumentError{Operation: "polynomialfit", Reason: "x and y lengths differ"}
	assert.Equal(t, "polynomialfit: x and y lengths differ", err.Error())
	assert.Equal(t, "argument", err.ToErrorDetail().Type)
}

func TestConfigError(t *testing.T) {
	baseErr := fmt.Errorf("must be positive")
	err := &ConfigError{
		Field: "max_vector_length",
		Err:   baseErr,
	}

	assert.Equal(t, "config validation failed for field 'max_vector_length': must be positive", err.Error())
	assert.True(t, errors.Is(err, baseErr))
}

func TestConfigError_NoField(t *testing.T) {
	err := &ConfigError{Err: fmt.Errorf("invalid yaml")}
	assert.Equal(t, "config validation failed: invalid yaml", err.Error())
}

func TestSchemaError(t *testing.T) {
	baseErr := fmt.Errorf("reflection failed")
	err := &SchemaError{Type: "Options", Err: baseErr}

	assert.Equal(t, "schema error for type Options: reflection failed", err.Error())
	assert.True(t, errors.Is(err, baseErr))
}

func TestWireFormatError(t *testing.T) {
	baseErr := fmt.Errorf("unexpected end of JSON input")
	err := &WireFormatError{Operation: "decode", Type: "FitRequest", Err: baseErr}

	assert.Equal(t, "wire format decode failed for FitRequest: unexpected end of JSON input", err.Error())
	assert.True(t, errors.Is(err, baseErr))
}

func TestToErrorDetail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
		wantNil  bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "plain", err: fmt.Errorf("boom"), wantType: "internal"},
		{name: "type mismatch", err: &TypeMismatchError{Expected: "array", Got: "nil"}, wantType: "type_mismatch"},
		{name: "arity", err: &ArityMismatchError{Function: "func", Want: 1, Got: 3}, wantType: "arity"},
		{name: "missing", err: &MissingCallbackError{Kind: "grad"}, wantType: "missing_callback"},
		{name: "wrapped detailed", err: fmt.Errorf("ctx: %w", &LimitError{What: "y", Size: 3, Limit: 2}), wantType: "limit"},
		{name: "entity", err: entities.NewErrorDetail("validation", "bad"), wantType: "validation"},
		{name: "config", err: &ConfigError{Err: errors.New("x")}, wantType: "config"},
		{name: "schema", err: &SchemaError{Err: errors.New("x")}, wantType: "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := ToErrorDetail(tt.err)
			if tt.wantNil {
				assert.Nil(t, detail)
				return
			}
			require.NotNil(t, detail)
			assert.Equal(t, tt.wantType, detail.Type)
			assert.NotEmpty(t, detail.Message)
		})
	}
}
