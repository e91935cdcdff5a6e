package ports

import (
	"context"

	"github.com/reglet-dev/numbridge/domain/entities"
)

// ValueFunc evaluates a model at point x with parameters c.
type ValueFunc func(c, x []float64) (float64, error)

// GradFunc evaluates a model at point x with parameters c and writes the
// gradient with respect to c into grad. len(grad) == len(c).
type GradFunc func(c, x, grad []float64) (float64, error)

// PolynomialFitter performs linear least-squares polynomial fitting.
type PolynomialFitter interface {
	// PolynomialFit fits a polynomial with m basis functions (degree m-1)
	// to the points (x, y). It returns the status code, the interpolant
	// coefficients in power basis and the fit report.
	PolynomialFit(x, y entities.Vector, m int) (int, entities.Vector, entities.PolynomialFitReport)
}

// QuadratureGenerator produces Gauss quadrature rules on [-1, 1].
type QuadratureGenerator interface {
	GaussLegendre(n int) entities.QuadratureRule
	GaussKronrod(n int) entities.QuadratureRule
}

// NonlinearFitter is a stateful nonlinear least-squares solver. It calls back
// into the host model while Fit runs.
type NonlinearFitter interface {
	// SetCond sets stopping conditions. Zero values select defaults.
	SetCond(epsF, epsX float64, maxIts int)

	// Fit runs the optimizer. g may be nil for solvers created without
	// analytic gradients. Fit returns the first callback error, if any.
	Fit(ctx context.Context, f ValueFunc, g GradFunc) error

	// Results returns the status code, the fitted parameters and the report.
	Results() (int, entities.Vector, entities.LSFitReport)

	// Dimensions returns the number of points, point dimension and parameter count.
	Dimensions() (n, m, k int)

	// UsesGradient reports whether Fit requires a gradient callback.
	UsesGradient() bool
}

// Library is the full numerical library surface the bridge exposes.
type Library interface {
	PolynomialFitter
	QuadratureGenerator

	// NewLSFit creates a nonlinear fitter. diffStep > 0 selects numerical
	// differentiation; diffStep == 0 requires a gradient callback.
	NewLSFit(x entities.Matrix, y, c entities.Vector, diffStep float64) (NonlinearFitter, error)
}
