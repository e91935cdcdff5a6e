// Package callback holds the return-value contract shared by every host that
// supplies model callbacks to the numerical library.
//
// A value callback returns exactly one scalar. A gradient callback returns
// exactly two values: the scalar model value and an array holding the partial
// derivatives with respect to each parameter. Violations are fatal.
package callback

import (
	"fmt"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
)

// Callback names as reported in errors.
const (
	ValueFunction    = "func"
	GradientFunction = "grad"
)

// Required return counts.
const (
	ValueArity    = 1
	GradientArity = 2
)

// CheckArity fails with ArityMismatchError unless got == want.
func CheckArity(function string, want, got int) error {
	if got != want {
		return &errors.ArityMismatchError{Function: function, Want: want, Got: got}
	}
	return nil
}

// ScalarResult extracts the single scalar returned by a value callback.
func ScalarResult(function string, values []entities.HostValue) (float64, error) {
	if err := CheckArity(function, ValueArity, len(values)); err != nil {
		return 0, err
	}
	return scalar(function, values[0])
}

// GradientResult extracts the value and gradient returned by a gradient
// callback, copying the gradient array into grad.
func GradientResult(function string, values []entities.HostValue, grad []float64) (float64, error) {
	if err := CheckArity(function, GradientArity, len(values)); err != nil {
		return 0, err
	}
	f, err := scalar(function, values[0])
	if err != nil {
		return 0, err
	}

	g := values[1]
	if g.Kind != entities.KindArray {
		return 0, &errors.TypeMismatchError{
			Context:  fmt.Sprintf("%s return value 2", function),
			Expected: "array",
			Got:      g.Type,
		}
	}
	if len(g.Array) != len(grad) {
		return 0, &errors.TypeMismatchError{
			Context:  fmt.Sprintf("%s return value 2", function),
			Expected: fmt.Sprintf("array of length %d", len(grad)),
			Got:      fmt.Sprintf("array of length %d", len(g.Array)),
		}
	}
	copy(grad, g.Array)
	return f, nil
}

func scalar(function string, v entities.HostValue) (float64, error) {
	if v.Kind != entities.KindScalar {
		return 0, &errors.TypeMismatchError{
			Context:  fmt.Sprintf("%s return value 1", function),
			Expected: "number",
			Got:      v.Type,
		}
	}
	return v.Scalar, nil
}
