package retrieval

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/reteval/internal/domain/vector"
)

// Matrix is a dense N×N similarity matrix, row-major.
// At(i, j) is the similarity of instruction i to input j.
type Matrix struct {
	n    int
	data []float64
}

func newMatrix(n int) Matrix {
	return Matrix{n: n, data: make([]float64, n*n)}
}

// Size returns N.
func (m Matrix) Size() int { return m.n }

// At returns cell (i, j).
func (m Matrix) At(i, j int) float64 { return m.data[i*m.n+j] }

// Row returns row i. The slice aliases the matrix.
func (m Matrix) Row(i int) []float64 { return m.data[i*m.n : (i+1)*m.n] }

// Cosine returns dot(a, b) / (|a|·|b|), accumulated in float64.
// Returns 0 when either vector has zero norm. Vectors must have equal length.
func Cosine(a, b vector.Vector) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Similarity computes the cosine similarity of every instruction to every input.
func Similarity(instr, input vector.Batch) (Matrix, error) {
	return similarity(instr, input, 1)
}

func similarity(instr, input vector.Batch, workers int) (Matrix, error) {
	if err := vector.ValidatePair(instr, input); err != nil {
		return Matrix{}, err
	}

	n := instr.Len()
	m := newMatrix(n)
	forEachRow(n, workers, func(i int) {
		q := instr.At(i)
		row := m.Row(i)
		for j := range row {
			row[j] = Cosine(q, input.At(j))
		}
	})
	return m, nil
}

// forEachRow calls fn for rows 0..n-1, on up to workers goroutines.
// fn must only write state owned by its row.
func forEachRow(n, workers int, fn func(i int)) {
	if workers <= 1 || n < 2 {
		for i := range n {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait() // row functions never fail
}
