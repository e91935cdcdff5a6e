package gonum

import (
	"sort"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/reglet-dev/numbridge/domain/entities"
)

// GaussLegendre returns the n-point Gauss-Legendre rule on [-1, 1] with
// nodes in ascending order. n < 1 yields InfoInvalidArgs.
func (l *Library) GaussLegendre(n int) entities.QuadratureRule {
	if n < 1 {
		return entities.QuadratureRule{Info: entities.InfoInvalidArgs, Nodes: entities.Vector{}, Weights: entities.Vector{}}
	}

	x := make([]float64, n)
	w := make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)
	sort.Sort(nodeSorter{x: x, w: w})

	return entities.QuadratureRule{Info: entities.InfoOK, Nodes: x, Weights: w}
}

// nodeSorter orders quadrature nodes ascending, keeping weights paired.
type nodeSorter struct {
	x, w []float64
}

func (s nodeSorter) Len() int           { return len(s.x) }
func (s nodeSorter) Less(i, j int) bool { return s.x[i] < s.x[j] }
func (s nodeSorter) Swap(i, j int) {
	s.x[i], s.x[j] = s.x[j], s.x[i]
	s.w[i], s.w[j] = s.w[j], s.w[i]
}
