package chi

import (
	"errors"
	"net/http"

	"github.com/kailas-cloud/reteval/internal/domain"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		shapeMismatchHandler,
		sentinelHandler(domain.ErrShapeMismatch, http.StatusBadRequest, ErrorResponseCodeShapeMismatch),
		sentinelHandler(domain.ErrEmptyBatch, http.StatusBadRequest, ErrorResponseCodeEmptyInput),
		sentinelHandler(domain.ErrEmptyInput, http.StatusBadRequest, ErrorResponseCodeEmptyInput),
		sentinelHandler(domain.ErrInvalidVector, http.StatusBadRequest, ErrorResponseCodeInvalidVector),
		sentinelHandler(domain.ErrPairingMismatch, http.StatusBadRequest, ErrorResponseCodePairingMismatch),
		sentinelHandler(domain.ErrInvalidTopK, http.StatusBadRequest, ErrorResponseCodeInvalidTopK),
		sentinelHandler(domain.ErrInvalidRank, http.StatusBadRequest, ErrorResponseCodeInvalidRank),
		sentinelHandler(domain.ErrUnknownModel, http.StatusBadRequest, ErrorResponseCodeUnknownModel),
		sentinelHandler(domain.ErrInvalidDataset, http.StatusBadRequest, ErrorResponseCodeInvalidDataset),
		sentinelHandler(domain.ErrReportNotFound, http.StatusNotFound, ErrorResponseCodeReportNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
	}
}

// safeDomainMessage returns the sentinel text without exposing wrapped internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrShapeMismatch,
		domain.ErrEmptyBatch,
		domain.ErrEmptyInput,
		domain.ErrInvalidVector,
		domain.ErrPairingMismatch,
		domain.ErrInvalidTopK,
		domain.ErrInvalidRank,
		domain.ErrUnknownModel,
		domain.ErrInvalidDataset,
		domain.ErrReportNotFound,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// shapeMismatchHandler reports the offending position of a typed shape error.
func shapeMismatchHandler(w http.ResponseWriter, err error) bool {
	var sme *domain.ShapeMismatchError
	if !errors.As(err, &sme) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"code":    ErrorResponseCodeShapeMismatch,
		"message": sme.Error(),
		"batch":   sme.Batch,
		"index":   sme.Index,
		"want":    sme.Want,
		"got":     sme.Got,
	})
	return true
}
