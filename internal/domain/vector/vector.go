// Package vector holds the embedding batches that feed a retrieval evaluation.
package vector

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/reteval/internal/domain"
)

// Batch names used in shape errors.
const (
	Instruction = "instruction"
	Input       = "input"
)

// Vector is one embedding. The evaluation never mutates it.
type Vector []float32

// Batch is an ordered sequence of vectors of one modality.
// Position i of an instruction batch is paired with position i of its input batch.
type Batch struct {
	name    string
	vectors []Vector
	ids     []string
}

// NewBatch creates a batch. ids may be nil; when set it must match vectors in length.
func NewBatch(name string, vectors []Vector, ids []string) (Batch, error) {
	if ids != nil && len(ids) != len(vectors) {
		return Batch{}, fmt.Errorf("%w: %s batch has %d vectors but %d ids",
			domain.ErrShapeMismatch, name, len(vectors), len(ids))
	}
	return Batch{name: name, vectors: vectors, ids: ids}, nil
}

// FromFloats builds a batch from raw float rows without IDs.
func FromFloats(name string, rows [][]float32) Batch {
	vectors := make([]Vector, len(rows))
	for i, r := range rows {
		vectors[i] = r
	}
	return Batch{name: name, vectors: vectors}
}

// Name returns the batch label ("instruction" or "input").
func (b Batch) Name() string { return b.name }

// Len returns the number of vectors.
func (b Batch) Len() int { return len(b.vectors) }

// At returns vector i.
func (b Batch) At(i int) Vector { return b.vectors[i] }

// IDs returns the per-position identifiers, nil when the batch is positional only.
func (b Batch) IDs() []string { return b.ids }

// Dim returns the dimensionality of the first vector, 0 for an empty batch.
func (b Batch) Dim() int {
	if len(b.vectors) == 0 {
		return 0
	}
	return len(b.vectors[0])
}

// Validate checks the batch is non-empty, uniformly shaped and finite.
func (b Batch) Validate() error {
	if len(b.vectors) == 0 {
		return fmt.Errorf("%s: %w", b.name, domain.ErrEmptyBatch)
	}
	dim := len(b.vectors[0])
	if dim == 0 {
		return domain.NewShapeMismatch(b.name, 0, 1, 0)
	}
	for i, v := range b.vectors {
		if len(v) != dim {
			return domain.NewShapeMismatch(b.name, i, dim, len(v))
		}
		for _, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				return fmt.Errorf("%w: %s[%d] has non-finite component", domain.ErrInvalidVector, b.name, i)
			}
		}
	}
	return nil
}

// ValidatePair checks both batches and the cross-batch invariants:
// equal length, equal dimensionality and, when both carry IDs, equal IDs per position.
// After it succeeds, the ground truth of instruction i is input i.
func ValidatePair(instr, input Batch) error {
	if err := instr.Validate(); err != nil {
		return err
	}
	if err := input.Validate(); err != nil {
		return err
	}
	if instr.Len() != input.Len() {
		return fmt.Errorf("%w: %d instructions vs %d inputs",
			domain.ErrShapeMismatch, instr.Len(), input.Len())
	}
	if instr.Dim() != input.Dim() {
		return domain.NewShapeMismatch("pair", 0, instr.Dim(), input.Dim())
	}
	if instr.ids != nil && input.ids != nil {
		for i := range instr.ids {
			if instr.ids[i] != input.ids[i] {
				return fmt.Errorf("%w: position %d pairs %q with %q",
					domain.ErrPairingMismatch, i, instr.ids[i], input.ids[i])
			}
		}
	}
	return nil
}

// GroundTruth returns the input index paired with instruction i.
func GroundTruth(i int) int { return i }
