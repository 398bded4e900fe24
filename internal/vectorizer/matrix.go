package vectorizer

import (
	"gonum.org/v1/gonum/mat"
)

// Dense copies a row-major matrix into a gonum Dense. Nil for an empty matrix.
func Dense(m [][]float64) *mat.Dense {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil
	}
	r, c := len(m), len(m[0])
	data := make([]float64, 0, r*c)
	for _, row := range m {
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data)
}

// CountsDense copies a count matrix into a gonum Dense
func CountsDense(counts [][]int) *mat.Dense {
	m := make([][]float64, len(counts))
	for i, row := range counts {
		m[i] = toFloats(row)
	}
	return Dense(m)
}
