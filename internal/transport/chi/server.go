package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reteval/internal/domain/report"
	"github.com/kailas-cloud/reteval/internal/domain/vector"
	reportrepo "github.com/kailas-cloud/reteval/internal/repository/report"
	analysisuc "github.com/kailas-cloud/reteval/internal/usecase/analysis"
	healthuc "github.com/kailas-cloud/reteval/internal/usecase/health"
)

const maxBodyBytes = 64 << 20

// Server implements the reteval HTTP API.
type Server struct {
	evaluator     EvaluatorFor
	analyses      Analyzer
	reports       ReportReader
	models        ModelLister
	health        HealthChecker
	logger        *zap.Logger
	datasetRoot   string
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. analyses and reports may be nil;
// their routes then answer 501.
func NewServer(
	evaluator EvaluatorFor,
	analyses Analyzer,
	reports ReportReader,
	models ModelLister,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		evaluator:     evaluator,
		analyses:      analyses,
		reports:       reports,
		models:        models,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithDatasetRoot confines POST /analyses to datasets under dir.
func (s *Server) WithDatasetRoot(dir string) *Server {
	s.datasetRoot = dir
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/models", s.ListModels)
	r.Post("/evaluations", s.CreateEvaluation)
	r.Post("/analyses", s.CreateAnalysis)
	r.Get("/reports", s.ListReports)
	r.Get("/reports/{id}", s.GetReport)
}

// CreateEvaluation handles POST /evaluations?k=1&k=5.
func (s *Server) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	var topK []int
	if err := runtime.BindQueryParameter("form", true, false, "k", r.URL.Query(), &topK); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid parameter k: "+err.Error())
		return
	}

	var req EvaluationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	instr, input, err := batchesFromRequest(req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	rep, err := s.evaluator(topK).Evaluate(r.Context(), instr, input, report.Metadata{
		InstructionModel: req.ModelInfo.InstructionModel,
		InputModel:       req.ModelInfo.InputModel,
		Dataset:          req.ModelInfo.Dataset,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reportrepo.ToDocument(rep))
}

// CreateAnalysis handles POST /analyses.
func (s *Server) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.analyses == nil {
		writeError(w, http.StatusNotImplemented, ErrorResponseCodeNotImplemented, "analyses are not configured")
		return
	}

	var req AnalysisRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Dataset == "" {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "dataset is required")
		return
	}

	path, err := s.datasetPath(req.Dataset)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidDataset, err.Error())
		return
	}

	rep, err := s.analyses.Run(r.Context(), analysisuc.Request{
		Dataset:          path,
		InstructionModel: req.InstructionModel,
		InputModel:       req.InputModel,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reportrepo.ToDocument(rep))
}

// ListReports handles GET /reports?limit=N. Newest reports come first.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusNotImplemented, ErrorResponseCodeNotImplemented, "report storage is not configured")
		return
	}

	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid parameter limit: "+err.Error())
		return
	}
	if limit != nil && *limit <= 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "limit must be positive")
		return
	}

	reps, err := s.reports.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]Report, 0, len(reps))
	for i := len(reps) - 1; i >= 0; i-- {
		if limit != nil && len(items) == *limit {
			break
		}
		items = append(items, reportrepo.ToDocument(reps[i]))
	}

	writeJSON(w, http.StatusOK, ReportListResponse{Items: items, Count: len(items)})
}

// GetReport handles GET /reports/{id}.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusNotImplemented, ErrorResponseCodeNotImplemented, "report storage is not configured")
		return
	}

	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid parameter id: "+err.Error())
		return
	}

	rep, err := s.reports.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportrepo.ToDocument(rep))
}

// ListModels handles GET /models.
func (s *Server) ListModels(w http.ResponseWriter, _ *http.Request) {
	entries := s.models.List()
	items := make([]Model, len(entries))
	for i, e := range entries {
		items[i] = Model{Alias: e.Alias, ID: e.ID}
	}
	writeJSON(w, http.StatusOK, ModelListResponse{Items: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())

	checks := make(map[string]string, len(rep.Checks))
	for k, v := range rep.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if rep.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(rep.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// datasetPath resolves a requested dataset against the configured root.
func (s *Server) datasetPath(name string) (string, error) {
	if s.datasetRoot == "" {
		return name, nil
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("dataset must be relative to the dataset root")
	}
	full := filepath.Join(s.datasetRoot, name)
	rel, err := filepath.Rel(s.datasetRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("dataset escapes the dataset root")
	}
	return full, nil
}

func batchesFromRequest(req EvaluationRequest) (vector.Batch, vector.Batch, error) {
	instr, err := vector.NewBatch(vector.Instruction, toVectors(req.InstructionEmbeddings), req.InstructionIDs)
	if err != nil {
		return vector.Batch{}, vector.Batch{}, err //nolint:wrapcheck // domain error
	}
	input, err := vector.NewBatch(vector.Input, toVectors(req.InputEmbeddings), req.InputIDs)
	if err != nil {
		return vector.Batch{}, vector.Batch{}, err //nolint:wrapcheck // domain error
	}
	return instr, input, nil
}

func toVectors(rows [][]float32) []vector.Vector {
	out := make([]vector.Vector, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
