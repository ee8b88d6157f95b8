package reteval

import (
	"errors"

	"github.com/kailas-cloud/reteval/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrShapeMismatch          = domain.ErrShapeMismatch
	ErrEmptyBatch             = domain.ErrEmptyBatch
	ErrEmptyInput             = domain.ErrEmptyInput
	ErrInvalidVector          = domain.ErrInvalidVector
	ErrPairingMismatch        = domain.ErrPairingMismatch
	ErrInvalidTopK            = domain.ErrInvalidTopK
	ErrInvalidRank            = domain.ErrInvalidRank
	ErrUnknownModel           = domain.ErrUnknownModel
	ErrReportNotFound         = domain.ErrReportNotFound
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)

// ErrNotConfigured is returned when an operation needs an option the client was built without.
var ErrNotConfigured = errors.New("reteval: not configured")

// ShapeMismatchError carries the batch and position of a dimension mismatch.
// Use errors.As() to extract it.
type ShapeMismatchError = domain.ShapeMismatchError
