package chi

import (
	reportrepo "github.com/kailas-cloud/reteval/internal/repository/report"
)

// ErrorResponseCode is the machine-readable error code of an API error.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeNotFound               ErrorResponseCode = "not_found"
	ErrorResponseCodeMethodNotAllowed       ErrorResponseCode = "method_not_allowed"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeShapeMismatch          ErrorResponseCode = "shape_mismatch"
	ErrorResponseCodeEmptyInput             ErrorResponseCode = "empty_input"
	ErrorResponseCodeInvalidVector          ErrorResponseCode = "invalid_vector"
	ErrorResponseCodePairingMismatch        ErrorResponseCode = "pairing_mismatch"
	ErrorResponseCodeInvalidTopK            ErrorResponseCode = "invalid_top_k"
	ErrorResponseCodeInvalidRank            ErrorResponseCode = "invalid_rank"
	ErrorResponseCodeUnknownModel           ErrorResponseCode = "unknown_model"
	ErrorResponseCodeInvalidDataset         ErrorResponseCode = "invalid_dataset"
	ErrorResponseCodeReportNotFound         ErrorResponseCode = "report_not_found"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeNotImplemented         ErrorResponseCode = "not_implemented"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// ModelInfo names what produced the embeddings of an evaluation.
type ModelInfo struct {
	InstructionModel string `json:"instruction_model"`
	InputModel       string `json:"input_model"`
	Dataset          string `json:"dataset"`
}

// EvaluationRequest is the body of POST /evaluations.
type EvaluationRequest struct {
	InstructionEmbeddings [][]float32 `json:"instruction_embeddings"`
	InputEmbeddings       [][]float32 `json:"input_embeddings"`
	InstructionIDs        []string    `json:"instruction_ids,omitempty"`
	InputIDs              []string    `json:"input_ids,omitempty"`
	ModelInfo             ModelInfo   `json:"model_info"`
}

// AnalysisRequest is the body of POST /analyses.
type AnalysisRequest struct {
	Dataset          string `json:"dataset"`
	InstructionModel string `json:"instruction_model,omitempty"`
	InputModel       string `json:"input_model,omitempty"`
}

// Report is the API form of an evaluation report.
type Report = reportrepo.Document

// ReportListResponse is the body of GET /reports.
type ReportListResponse struct {
	Items []Report `json:"items"`
	Count int      `json:"count"`
}

// Model is one registry entry.
type Model struct {
	Alias string `json:"alias"`
	ID    string `json:"id"`
}

// ModelListResponse is the body of GET /models.
type ModelListResponse struct {
	Items []Model `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
