package gonum

import (
	"github.com/reglet-dev/numbridge/domain/entities"
)

// Tabulated 15-point Gauss-Kronrod rule (7-point Gauss). Only the
// non-negative half is stored; the rule is symmetric about zero.
var (
	kronrod15Nodes = [8]float64{
		0.991455371120812639206854697526329,
		0.949107912342758524526189684047851,
		0.864864423359769072789712788640926,
		0.741531185599394439863864773280788,
		0.586087235467691130294144845693013,
		0.405845151377397166906606412076961,
		0.207784955007898467600689403773245,
		0.000000000000000000000000000000000,
	}
	kronrod15Weights = [8]float64{
		0.022935322010529224963732008058970,
		0.063092092629978553290700663189204,
		0.104790010322250183839876322541518,
		0.140653259715525918745189590510238,
		0.169004726639267902826583426598550,
		0.190350578064785409913256402421014,
		0.204432940075298892414161999234649,
		0.209482141084727828012999174891714,
	}
	// gauss7Weights belong to kronrod15Nodes[1], [3], [5] and [7].
	gauss7Weights = [4]float64{
		0.129484966168869693270611432679082,
		0.279705391489276667901467771423780,
		0.381830050505118944950369775488975,
		0.417959183673469387755102040816327,
	}
)

// GaussKronrod returns the n-point Gauss-Kronrod rule on [-1, 1] with nodes
// in ascending order. GaussWeights is zero at Kronrod-only nodes.
//
// n must be odd and at least 3; only n = 15 is tabulated; other valid sizes
// yield InfoNotConverged.
func (l *Library) GaussKronrod(n int) entities.QuadratureRule {
	empty := entities.QuadratureRule{Nodes: entities.Vector{}, Weights: entities.Vector{}, GaussWeights: entities.Vector{}}
	switch {
	case n < 3 || n%2 == 0:
		empty.Info = entities.InfoInvalidArgs
		return empty
	case n != 15:
		empty.Info = entities.InfoNotConverged
		return empty
	}

	x := make([]float64, n)
	wk := make([]float64, n)
	wg := make([]float64, n)
	for i := range kronrod15Nodes {
		lo, hi := i, n-1-i
		x[lo], x[hi] = -kronrod15Nodes[i], kronrod15Nodes[i]
		wk[lo], wk[hi] = kronrod15Weights[i], kronrod15Weights[i]
		if i%2 == 1 {
			wg[lo], wg[hi] = gauss7Weights[i/2], gauss7Weights[i/2]
		}
	}

	return entities.QuadratureRule{Info: entities.InfoOK, Nodes: x, Weights: wk, GaussWeights: wg}
}
