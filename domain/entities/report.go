package entities

// Field is a single named value of a Record.
type Field struct {
	Name  string
	Value float64
}

// Record is a fixed-shape result of a fitting or integration routine.
// The set of field names returned by RecordFields is part of the public
// contract of each record type and does not change between calls.
type Record interface {
	RecordFields() []Field
}

// RecordKeys returns the field names of r in declaration order.
func RecordKeys(r Record) []string {
	fields := r.RecordFields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Name
	}
	return keys
}

// PolynomialFitReport describes the quality of a linear least-squares
// polynomial fit.
type PolynomialFitReport struct {
	// TaskRCond is the reciprocal condition number of the design matrix.
	TaskRCond float64 `json:"taskrcond"`

	RMSError    float64 `json:"rmserror"`
	AvgError    float64 `json:"avgerror"`
	AvgRelError float64 `json:"avgrelerror"`
	MaxError    float64 `json:"maxerror"`
}

// RecordFields implements Record.
func (r PolynomialFitReport) RecordFields() []Field {
	return []Field{
		{Name: "taskrcond", Value: r.TaskRCond},
		{Name: "rmserror", Value: r.RMSError},
		{Name: "avgerror", Value: r.AvgError},
		{Name: "avgrelerror", Value: r.AvgRelError},
		{Name: "maxerror", Value: r.MaxError},
	}
}

// LSFitReport describes the outcome of a nonlinear least-squares fit.
type LSFitReport struct {
	// TaskRCond is the reciprocal condition number of the Jacobian at the solution.
	TaskRCond float64 `json:"taskrcond"`

	// IterationsCount is the number of major iterations performed.
	IterationsCount float64 `json:"iterationscount"`

	RMSError    float64 `json:"rmserror"`
	AvgError    float64 `json:"avgerror"`
	AvgRelError float64 `json:"avgrelerror"`
	MaxError    float64 `json:"maxerror"`

	// WRMSError is the weighted RMS error. Fits are unweighted, so it equals RMSError.
	WRMSError float64 `json:"wrmserror"`

	// R2 is the coefficient of determination.
	R2 float64 `json:"r2"`
}

// RecordFields implements Record.
func (r LSFitReport) RecordFields() []Field {
	return []Field{
		{Name: "taskrcond", Value: r.TaskRCond},
		{Name: "iterationscount", Value: r.IterationsCount},
		{Name: "rmserror", Value: r.RMSError},
		{Name: "avgerror", Value: r.AvgError},
		{Name: "avgrelerror", Value: r.AvgRelError},
		{Name: "maxerror", Value: r.MaxError},
		{Name: "wrmserror", Value: r.WRMSError},
		{Name: "r2", Value: r.R2},
	}
}
