package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch signals differing vector dimensionality or batch lengths.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrEmptyBatch signals a zero-length embedding batch.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrEmptyInput signals a zero-length rank sequence.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidVector signals a vector with NaN or infinite components.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrPairingMismatch signals batches whose IDs disagree at the same position.
	ErrPairingMismatch = errors.New("pairing mismatch")
	// ErrInvalidTopK signals a non-positive K.
	ErrInvalidTopK = errors.New("invalid top-k")
	// ErrInvalidRank signals a rank outside [1, N].
	ErrInvalidRank = errors.New("invalid rank")

	// ErrUnknownModel signals a model name missing from the registry.
	ErrUnknownModel = errors.New("unknown model")
	// ErrInvalidDataset signals an unreadable or empty dataset.
	ErrInvalidDataset = errors.New("invalid dataset")
	// ErrReportNotFound signals a missing evaluation report.
	ErrReportNotFound = errors.New("report not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ShapeMismatchError wraps ErrShapeMismatch with the offending position.
type ShapeMismatchError struct {
	Batch string // "instruction", "input" or "pair"
	Index int
	Want  int
	Got   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s[%d] has dimension %d, want %d",
		ErrShapeMismatch.Error(), e.Batch, e.Index, e.Got, e.Want)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// NewShapeMismatch creates a shape mismatch error.
func NewShapeMismatch(batch string, index, want, got int) error {
	return &ShapeMismatchError{Batch: batch, Index: index, Want: want, Got: got}
}
