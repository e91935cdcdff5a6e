package gonum

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/reglet-dev/numbridge/domain/entities"
)

// rankTolerance is the relative singular value cutoff used when solving
// rank-deficient design matrices.
const rankTolerance = 1e-13

// PolynomialFit fits a polynomial with m coefficients (degree m-1) to the
// points (x, y) by linear least squares. Coefficients are returned in power
// basis, lowest order first.
//
// Invalid arguments (empty input, len(x) != len(y), m < 1) yield
// InfoInvalidArgs with no coefficients.
func (l *Library) PolynomialFit(x, y entities.Vector, m int) (int, entities.Vector, entities.PolynomialFitReport) {
	n := len(x)
	if n == 0 || len(y) != n || m < 1 {
		return entities.InfoInvalidArgs, entities.Vector{}, entities.PolynomialFitReport{}
	}

	a := mat.NewDense(n, m, nil)
	for i, xi := range x {
		p := 1.0
		for j := 0; j < m; j++ {
			a.Set(i, j, p)
			p *= xi
		}
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return entities.InfoNotConverged, entities.Vector{}, entities.PolynomialFitReport{}
	}

	var c mat.VecDense
	svd.SolveVecTo(&c, mat.NewVecDense(n, append([]float64(nil), y...)), max(svd.Rank(rankTolerance), 1))
	coeffs := entities.Vector(append([]float64(nil), c.RawVector().Data...))

	residuals := make([]float64, n)
	for i, xi := range x {
		residuals[i] = horner(coeffs, xi) - y[i]
	}
	e := residualErrors(residuals, y)

	l.logger.Debug("polynomial fit", "points", n, "basis", m, "rms", e.rms)

	return entities.InfoOK, coeffs, entities.PolynomialFitReport{
		TaskRCond:   rcond(&svd),
		RMSError:    e.rms,
		AvgError:    e.avg,
		AvgRelError: e.avgRel,
		MaxError:    e.max,
	}
}

// horner evaluates the power-basis polynomial c at x.
func horner(c []float64, x float64) float64 {
	var v float64
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// rcond returns the reciprocal 2-norm condition number of the factorized
// matrix, or zero for a singular one.
func rcond(svd *mat.SVD) float64 {
	s := svd.Values(nil)
	if len(s) == 0 || s[0] == 0 {
		return 0
	}
	r := s[len(s)-1] / s[0]
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

type errorSummary struct {
	rms    float64
	avg    float64
	avgRel float64
	max    float64
}

// residualErrors summarises residuals r against targets y. The relative
// error is averaged over points with non-zero targets only.
func residualErrors(r, y []float64) errorSummary {
	var (
		s      errorSummary
		sumSq  float64
		relCnt int
	)
	for i, ri := range r {
		ar := math.Abs(ri)
		sumSq += ri * ri
		s.avg += ar
		s.max = math.Max(s.max, ar)
		if y[i] != 0 {
			s.avgRel += ar / math.Abs(y[i])
			relCnt++
		}
	}
	n := float64(len(r))
	if n > 0 {
		s.rms = math.Sqrt(sumSq / n)
		s.avg /= n
	}
	if relCnt > 0 {
		s.avgRel /= float64(relCnt)
	}
	return s
}
