package vectorizer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyDocument is returned when a document has no tokens left after
// cleaning, so its term frequencies are undefined.
var ErrEmptyDocument = errors.New("document has no tokens")

// TF row-normalizes a count matrix: cell = count / row sum.
func TF(counts [][]int) ([][]float64, error) {
	tf := make([][]float64, len(counts))
	for i, row := range counts {
		values := toFloats(row)
		if len(values) == 0 {
			tf[i] = values
			continue
		}
		sum := floats.Sum(values)
		if sum == 0 {
			return nil, fmt.Errorf("term frequency of row %d: %w", i, ErrEmptyDocument)
		}
		floats.Scale(1/sum, values)
		tf[i] = values
	}
	return tf, nil
}

// IDF computes ln((n+1)/(df+1)) + 1 for every column, where df is the number of
// rows with a non-zero count. The result is always positive.
func IDF(counts [][]int) []float64 {
	nDocs := float64(len(counts))
	nCols := 0
	if len(counts) > 0 {
		nCols = len(counts[0])
	}

	df := make([]float64, nCols)
	for _, row := range counts {
		for j, c := range row {
			if c > 0 {
				df[j]++
			}
		}
	}

	idf := make([]float64, nCols)
	for j := range idf {
		idf[j] = math.Log((nDocs+1)/(df[j]+1)) + 1
	}
	return idf
}

// Weight multiplies every TF row elementwise by idf
func Weight(tf [][]float64, idf []float64) [][]float64 {
	out := make([][]float64, len(tf))
	for i, row := range tf {
		w := make([]float64, len(row))
		floats.MulTo(w, row, idf[:len(row)])
		out[i] = w
	}
	return out
}

// Transformer turns a count matrix into a weighted matrix
type Transformer interface {
	Transform(counts [][]int) ([][]float64, error)
}

// TfidfTransformer weights counts by tf * idf, computing both from the same matrix
type TfidfTransformer struct{}

func (TfidfTransformer) Transform(counts [][]int) ([][]float64, error) {
	tf, err := TF(counts)
	if err != nil {
		return nil, err
	}
	return Weight(tf, IDF(counts)), nil
}

// L2Normalizer scales every row produced by Next to unit Euclidean length.
// All-zero rows are left as they are.
type L2Normalizer struct {
	Next Transformer
}

func (n L2Normalizer) Transform(counts [][]int) ([][]float64, error) {
	next := n.Next
	if next == nil {
		next = TfidfTransformer{}
	}
	m, err := next.Transform(counts)
	if err != nil {
		return nil, err
	}
	for _, row := range m {
		norm := floats.Norm(row, 2)
		if norm > 0 {
			floats.Scale(1/norm, row)
		}
	}
	return m, nil
}

func toFloats(row []int) []float64 {
	out := make([]float64, len(row))
	for j, c := range row {
		out[j] = float64(c)
	}
	return out
}
