package entities

import "fmt"

// DefaultMaxVectorLength is the longest vector accepted from a script or a
// guest unless configured otherwise.
const DefaultMaxVectorLength = 1 << 20

// Vector is an ordered, fixed-length sequence of doubles.
// Vectors are copied, never aliased, when they cross into host space.
type Vector []float64

// Clone returns a copy of v. A nil vector clones to an empty, non-nil vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// IntVector is an ordered, fixed-length sequence of integers.
type IntVector []int64

// Clone returns a copy of v.
func (v IntVector) Clone() IntVector {
	out := make(IntVector, len(v))
	copy(out, v)
	return out
}

// Matrix is a dense row-major matrix of doubles.
type Matrix struct {
	Data []float64 `json:"data"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
}

// NewMatrix builds a Matrix from equal-length rows.
func NewMatrix(rows [][]float64) (Matrix, error) {
	m := Matrix{Rows: len(rows)}
	if len(rows) == 0 {
		return m, nil
	}
	m.Cols = len(rows[0])
	m.Data = make([]float64, 0, m.Rows*m.Cols)
	for i, row := range rows {
		if len(row) != m.Cols {
			return Matrix{}, fmt.Errorf("row %d has %d columns, want %d", i+1, len(row), m.Cols)
		}
		m.Data = append(m.Data, row...)
	}
	return m, nil
}

// Row returns a view of row i.
func (m Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}
