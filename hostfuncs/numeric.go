package hostfuncs

import (
	"context"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
	"github.com/reglet-dev/numbridge/domain/ports"
)

// DefaultMaxRequestSize is the default maximum size for incoming requests
// read from guest memory (1MB).
const DefaultMaxRequestSize = 1 << 20

// DefaultMaxVectorLength caps the length of vectors in requests.
const DefaultMaxVectorLength = entities.DefaultMaxVectorLength

// PolynomialFitRequest is the request for polynomial_fit.
type PolynomialFitRequest struct {
	X entities.Vector `json:"x" validate:"required"`
	Y entities.Vector `json:"y" validate:"required"`

	// M is the number of basis functions (polynomial degree + 1).
	M int `json:"m" validate:"gte=1"`
}

// PolynomialFitResponse is the response for polynomial_fit.
type PolynomialFitResponse struct {
	Coeffs entities.Vector              `json:"coeffs"`
	Report entities.PolynomialFitReport `json:"report"`
	Info   int                          `json:"info"`
}

// QuadratureRequest is the request for gauss_legendre and gauss_kronrod.
type QuadratureRequest struct {
	N int `json:"n" validate:"gte=1"`
}

// PerformPolynomialFit fits a polynomial to the request's points.
// Mismatched lengths are reported through Info, as the library does.
func PerformPolynomialFit(_ context.Context, lib ports.PolynomialFitter, maxLen int, req PolynomialFitRequest) (PolynomialFitResponse, error) {
	if err := checkLength("x", len(req.X), maxLen); err != nil {
		return PolynomialFitResponse{}, err
	}
	if err := checkLength("y", len(req.Y), maxLen); err != nil {
		return PolynomialFitResponse{}, err
	}
	info, c, rep := lib.PolynomialFit(req.X, req.Y, req.M)
	return PolynomialFitResponse{Info: info, Coeffs: c, Report: rep}, nil
}

// PerformGaussLegendre generates an n-point Gauss-Legendre rule.
func PerformGaussLegendre(_ context.Context, lib ports.QuadratureGenerator, maxLen int, req QuadratureRequest) (entities.QuadratureRule, error) {
	if err := checkLength("n", req.N, maxLen); err != nil {
		return entities.QuadratureRule{}, err
	}
	return lib.GaussLegendre(req.N), nil
}

// PerformGaussKronrod generates an n-point Gauss-Kronrod rule.
func PerformGaussKronrod(_ context.Context, lib ports.QuadratureGenerator, maxLen int, req QuadratureRequest) (entities.QuadratureRule, error) {
	if err := checkLength("n", req.N, maxLen); err != nil {
		return entities.QuadratureRule{}, err
	}
	return lib.GaussKronrod(req.N), nil
}

func checkLength(what string, size, limit int) error {
	if limit > 0 && size > limit {
		return &errors.LimitError{What: what, Size: size, Limit: limit}
	}
	return nil
}
