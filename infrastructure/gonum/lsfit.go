package gonum

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/reglet-dev/numbridge/domain/entities"
	domainerrors "github.com/reglet-dev/numbridge/domain/errors"
	"github.com/reglet-dev/numbridge/domain/ports"
)

// defaultEpsX is the step tolerance used when every stopping condition is zero.
const defaultEpsX = 1e-9

// LSFit is a nonlinear least-squares fitter minimising
//
//	sum_i (f(c, x_i) - y_i)^2
//
// over the parameters c. It is not safe for concurrent use.
type LSFit struct {
	logger *slog.Logger
	x      entities.Matrix
	y      entities.Vector
	c      entities.Vector
	report entities.LSFitReport

	diffStep float64
	epsF     float64
	epsX     float64
	maxIts   int
	info     int
}

// Compile-time interface check.
var _ ports.NonlinearFitter = (*LSFit)(nil)

// NewLSFit creates a fitter over the n points stored as rows of x with
// targets y, starting from c. diffStep > 0 selects numerical differentiation
// of the value callback; diffStep == 0 requires a gradient callback.
func (l *Library) NewLSFit(x entities.Matrix, y, c entities.Vector, diffStep float64) (ports.NonlinearFitter, error) {
	const op = "lsfitcreate"
	switch {
	case x.Rows < 1:
		return nil, &domainerrors.ArgumentError{Operation: op, Reason: "at least one point is required"}
	case len(y) != x.Rows:
		return nil, &domainerrors.ArgumentError{Operation: op, Reason: fmt.Sprintf("y has %d values for %d points", len(y), x.Rows)}
	case len(c) < 1:
		return nil, &domainerrors.ArgumentError{Operation: op, Reason: "at least one parameter is required"}
	case diffStep < 0 || math.IsNaN(diffStep) || math.IsInf(diffStep, 0):
		return nil, &domainerrors.ArgumentError{Operation: op, Reason: fmt.Sprintf("invalid differentiation step %v", diffStep)}
	}

	return &LSFit{
		logger:   l.logger,
		x:        entities.Matrix{Data: append([]float64(nil), x.Data...), Rows: x.Rows, Cols: x.Cols},
		y:        y.Clone(),
		c:        c.Clone(),
		diffStep: diffStep,
	}, nil
}

// SetCond sets the stopping conditions: relative function change epsF, step
// length epsX and major iteration cap maxIts. Zero disables a condition; if
// all are zero a small step tolerance is used.
func (f *LSFit) SetCond(epsF, epsX float64, maxIts int) {
	f.epsF = math.Max(epsF, 0)
	f.epsX = math.Max(epsX, 0)
	f.maxIts = max(maxIts, 0)
}

// Dimensions returns the number of points, point dimension and parameter count.
func (f *LSFit) Dimensions() (n, m, k int) {
	return f.x.Rows, f.x.Cols, len(f.c)
}

// UsesGradient reports whether Fit needs an analytic gradient callback.
func (f *LSFit) UsesGradient() bool {
	return f.diffStep == 0
}

// Results returns the status code, the current parameters and the report.
// Before Fit has run the status is zero and c is the initial guess.
func (f *LSFit) Results() (int, entities.Vector, entities.LSFitReport) {
	return f.info, f.c.Clone(), f.report
}

// Fit runs the optimizer. valueFn is always required; gradFn is required
// when the fitter was created without a differentiation step and ignored
// otherwise. The first callback error aborts the run and is returned.
func (f *LSFit) Fit(ctx context.Context, valueFn ports.ValueFunc, gradFn ports.GradFunc) error {
	if valueFn == nil {
		return &domainerrors.MissingCallbackError{Kind: "func"}
	}
	if f.UsesGradient() && gradFn == nil {
		return &domainerrors.MissingCallbackError{Kind: "grad"}
	}
	if !f.UsesGradient() {
		gradFn = nil
	}

	run := &fitRun{ctx: ctx, fit: f, value: valueFn, grad: gradFn}
	problem := optimize.Problem{
		Func:   run.objective,
		Grad:   run.gradient,
		Status: run.status,
	}
	settings := &optimize.Settings{
		Converger:       f.converger(),
		MajorIterations: f.maxIts,
	}

	result, err := optimize.Minimize(problem, f.c.Clone(), settings, &optimize.BFGS{})
	if run.err != nil {
		f.info = 0
		return run.err
	}

	switch {
	case result == nil:
		// Minimize rejected the problem before evaluating it.
		f.info = entities.InfoBadResult
		return err
	case math.IsNaN(result.F) || math.IsInf(result.F, 0):
		f.info = entities.InfoBadResult
		f.c = entities.Vector(append([]float64(nil), result.X...))
		return nil
	case err != nil:
		f.info = entities.InfoTooStringent
	default:
		f.info = statusInfo(result.Status)
	}
	f.c = entities.Vector(append([]float64(nil), result.X...))

	if err := f.summarise(ctx, run, result.MajorIterations); err != nil {
		f.info = 0
		return err
	}

	f.logger.DebugContext(ctx, "lsfit finished",
		"status", result.Status.String(),
		"info", f.info,
		"iterations", result.MajorIterations,
		"evaluations", result.FuncEvaluations,
		"rms", f.report.RMSError,
	)
	return nil
}

func (f *LSFit) converger() optimize.Converger {
	epsX := f.epsX
	if f.epsF == 0 && f.epsX == 0 && f.maxIts == 0 {
		epsX = defaultEpsX
	}
	return &condConverger{epsF: f.epsF, epsX: epsX}
}

// statusInfo maps an optimizer termination status to a status code.
func statusInfo(s optimize.Status) int {
	switch s {
	case optimize.StepConvergence:
		return entities.InfoStepConv
	case optimize.GradientThreshold:
		return entities.InfoGradientConv
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return entities.InfoIterationLimit
	case optimize.Failure:
		return entities.InfoTooStringent
	default:
		return entities.InfoFunctionConv
	}
}

// summarise computes the fit report at the final parameters.
func (f *LSFit) summarise(ctx context.Context, run *fitRun, iterations int) error {
	n, _, k := f.Dimensions()
	residuals := make([]float64, n)
	jac := mat.NewDense(n, k, nil)
	grad := make([]float64, k)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		xi := f.x.Row(i)
		v, err := run.pointGradient(f.c, xi, grad)
		if err != nil {
			return err
		}
		residuals[i] = v - f.y[i]
		jac.SetRow(i, grad)
	}

	e := residualErrors(residuals, f.y)
	f.report = entities.LSFitReport{
		TaskRCond:       jacobianRCond(jac),
		IterationsCount: float64(iterations),
		RMSError:        e.rms,
		AvgError:        e.avg,
		AvgRelError:     e.avgRel,
		MaxError:        e.max,
		WRMSError:       e.rms,
		R2:              rSquared(residuals, f.y),
	}
	return nil
}

func jacobianRCond(j *mat.Dense) float64 {
	var svd mat.SVD
	if !svd.Factorize(j, mat.SVDNone) {
		return 0
	}
	return rcond(&svd)
}

// rSquared is the coefficient of determination. A constant target vector
// that is fitted exactly scores 1.
func rSquared(r, y []float64) float64 {
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, v := range y {
		ssRes += r[i] * r[i]
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// fitRun holds the per-Fit evaluation state. The optimizer evaluates the
// problem on its own goroutine, one evaluation at a time, so callbacks never
// run concurrently. Errors are recorded rather than raised: after the first
// one every evaluation returns NaN and status reports Failure.
type fitRun struct {
	ctx   context.Context
	fit   *LSFit
	value ports.ValueFunc
	grad  ports.GradFunc
	err   error
	pgrad []float64
}

func (r *fitRun) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *fitRun) status() (optimize.Status, error) {
	if r.err == nil {
		if err := r.ctx.Err(); err != nil {
			r.fail(err)
		}
	}
	if r.err != nil {
		return optimize.Failure, r.err
	}
	return optimize.NotTerminated, nil
}

// objective returns the sum of squared residuals at c.
func (r *fitRun) objective(c []float64) (sum float64) {
	if r.err != nil {
		return math.NaN()
	}
	defer r.recover(&sum)

	for i := 0; i < r.fit.x.Rows; i++ {
		v, err := r.value(c, r.fit.x.Row(i))
		if err != nil {
			r.fail(err)
			return math.NaN()
		}
		d := v - r.fit.y[i]
		sum += d * d
	}
	return sum
}

// gradient writes the gradient of the objective at c into dst.
func (r *fitRun) gradient(dst, c []float64) {
	if r.err != nil {
		fillNaN(dst)
		return
	}
	var sentinel float64
	defer r.recover(&sentinel)

	if r.grad == nil {
		fd.Gradient(dst, r.objective, c, &fd.Settings{Formula: fd.Central, Step: r.fit.diffStep})
		if r.err != nil {
			fillNaN(dst)
		}
		return
	}

	if len(r.pgrad) != len(c) {
		r.pgrad = make([]float64, len(c))
	}
	for j := range dst {
		dst[j] = 0
	}
	for i := 0; i < r.fit.x.Rows; i++ {
		v, err := r.grad(c, r.fit.x.Row(i), r.pgrad)
		if err != nil {
			r.fail(err)
			fillNaN(dst)
			return
		}
		d := v - r.fit.y[i]
		for j, g := range r.pgrad {
			dst[j] += 2 * d * g
		}
	}
}

// pointGradient evaluates the model and its parameter gradient at a single
// point, differentiating numerically when no gradient callback is set.
func (r *fitRun) pointGradient(c, x, grad []float64) (float64, error) {
	if r.grad != nil {
		return r.grad(c, x, grad)
	}

	v, err := r.value(c, x)
	if err != nil {
		return 0, err
	}
	var cbErr error
	fd.Gradient(grad, func(p []float64) float64 {
		if cbErr != nil {
			return math.NaN()
		}
		pv, err := r.value(p, x)
		if err != nil {
			cbErr = err
			return math.NaN()
		}
		return pv
	}, c, &fd.Settings{Formula: fd.Central, Step: r.fit.diffStep})
	return v, cbErr
}

// recover converts a panic escaping a callback into a recorded error so that
// it cannot take down the optimizer goroutine.
func (r *fitRun) recover(out *float64) {
	if p := recover(); p != nil {
		err, ok := p.(error)
		if !ok {
			err = fmt.Errorf("%v", p)
		}
		r.fail(&domainerrors.CallbackError{Function: "func", Err: err})
		*out = math.NaN()
	}
}

func fillNaN(dst []float64) {
	for i := range dst {
		dst[i] = math.NaN()
	}
}

// condConverger stops on small relative function change (epsF) or small
// step length (epsX) between major iterations.
type condConverger struct {
	prevX []float64
	prevF float64
	epsF  float64
	epsX  float64
	first bool
}

func (c *condConverger) Init(dim int) {
	c.prevX = make([]float64, dim)
	c.first = true
}

func (c *condConverger) Converged(loc *optimize.Location) optimize.Status {
	if c.first {
		c.first = false
		c.prevF = loc.F
		copy(c.prevX, loc.X)
		return optimize.NotTerminated
	}

	var step float64
	for i, v := range loc.X {
		d := v - c.prevX[i]
		step += d * d
	}
	step = math.Sqrt(step)
	df := math.Abs(c.prevF - loc.F)
	scale := math.Max(math.Max(math.Abs(c.prevF), math.Abs(loc.F)), 1)

	c.prevF = loc.F
	copy(c.prevX, loc.X)

	switch {
	case c.epsF > 0 && df <= c.epsF*scale:
		return optimize.FunctionConvergence
	case c.epsX > 0 && step <= c.epsX:
		return optimize.StepConvergence
	}
	return optimize.NotTerminated
}
