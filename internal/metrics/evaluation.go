package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/domain/report"
)

// Evaluation Prometheus metrics.
var (
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reteval",
			Name:      "evaluations_total",
			Help:      "Total number of retrieval evaluations",
		},
		[]string{"status", "error_type"},
	)

	EvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reteval",
			Name:      "evaluation_duration_seconds",
			Help:      "Retrieval evaluation duration in seconds (similarity, ranking, aggregation, sink)",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	EvaluationQueries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reteval",
			Name:      "evaluation_queries",
			Help:      "Number of instruction rows per evaluation",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
		},
	)

	EvaluationTopKAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "reteval",
			Name:      "evaluation_top_k_accuracy",
			Help:      "Top-K accuracy of the latest evaluation per model pair",
		},
		[]string{"instruction_model", "input_model", "k"},
	)

	EvaluationMRR = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "reteval",
			Name:      "evaluation_mrr",
			Help:      "Mean reciprocal rank of the latest evaluation per model pair",
		},
		[]string{"instruction_model", "input_model"},
	)
)

var evalMetricsRegistered bool

// RegisterEvaluationMetrics registers evaluation metrics. Must be called once from main.
func RegisterEvaluationMetrics() {
	if evalMetricsRegistered {
		return
	}
	prometheus.MustRegister(EvaluationsTotal)
	prometheus.MustRegister(EvaluationDuration)
	prometheus.MustRegister(EvaluationQueries)
	prometheus.MustRegister(EvaluationTopKAccuracy)
	prometheus.MustRegister(EvaluationMRR)
	evalMetricsRegistered = true
}

// EvaluationRecorder publishes evaluation outcomes to Prometheus.
type EvaluationRecorder struct{}

// NewEvaluationRecorder creates a recorder backed by the package-level collectors.
func NewEvaluationRecorder() *EvaluationRecorder {
	return &EvaluationRecorder{}
}

// RecordSuccess records a completed evaluation.
func (EvaluationRecorder) RecordSuccess(r report.Report, duration time.Duration) {
	EvaluationsTotal.WithLabelValues("success", "").Inc()
	EvaluationDuration.Observe(duration.Seconds())
	EvaluationQueries.Observe(float64(r.Queries()))

	meta := r.Metadata()
	for _, tk := range r.TopK() {
		EvaluationTopKAccuracy.
			WithLabelValues(meta.InstructionModel, meta.InputModel, strconv.Itoa(tk.K)).
			Set(tk.Accuracy)
	}
	EvaluationMRR.WithLabelValues(meta.InstructionModel, meta.InputModel).Set(r.MRR())
}

// RecordFailure records a failed evaluation.
func (EvaluationRecorder) RecordFailure(_ report.Metadata, err error) {
	EvaluationsTotal.WithLabelValues("error", ErrorType(err)).Inc()
}

// ErrorType classifies an evaluation error into a low-cardinality label.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, domain.ErrEmptyBatch), errors.Is(err, domain.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, domain.ErrInvalidVector):
		return "invalid_vector"
	case errors.Is(err, domain.ErrPairingMismatch):
		return "pairing_mismatch"
	case errors.Is(err, domain.ErrInvalidTopK):
		return "invalid_top_k"
	case errors.Is(err, domain.ErrInvalidRank):
		return "invalid_rank"
	default:
		return "internal"
	}
}
