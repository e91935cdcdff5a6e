package entities

// Status codes reported by the numerical library.
const (
	InfoOK             = 1
	InfoInvalidArgs    = -1
	InfoNotConverged   = -3
	InfoBadResult      = -8
	InfoFunctionConv   = 1
	InfoStepConv       = 2
	InfoGradientConv   = 4
	InfoIterationLimit = 5
	InfoTooStringent   = 7
)

// QuadratureRule is the output of a quadrature generator: a status code,
// nodes, weights and, for Gauss-Kronrod rules, the embedded Gauss weights.
type QuadratureRule struct {
	Nodes   Vector `json:"nodes"`
	Weights Vector `json:"weights"`

	// GaussWeights is set only by Gauss-Kronrod generators. It is zero at
	// Kronrod-only nodes.
	GaussWeights Vector `json:"gauss_weights,omitempty"`

	Info int `json:"info"`
}

// HasGaussWeights reports whether the rule carries an embedded Gauss rule.
func (q QuadratureRule) HasGaussWeights() bool {
	return q.GaussWeights != nil
}
