package chi

import (
	"context"

	"github.com/kailas-cloud/reteval/internal/domain/model"
	"github.com/kailas-cloud/reteval/internal/domain/report"
	"github.com/kailas-cloud/reteval/internal/domain/vector"
	analysisuc "github.com/kailas-cloud/reteval/internal/usecase/analysis"
	healthuc "github.com/kailas-cloud/reteval/internal/usecase/health"
)

// Evaluator scores paired embedding batches.
type Evaluator interface {
	Evaluate(ctx context.Context, instr, input vector.Batch, meta report.Metadata) (report.Report, error)
}

// EvaluatorFor returns an evaluator reporting the given cutoffs.
// Empty topK means the configured default.
type EvaluatorFor func(topK []int) Evaluator

// Analyzer runs dataset-driven analyses.
type Analyzer interface {
	Run(ctx context.Context, req analysisuc.Request) (report.Report, error)
}

// ReportReader reads persisted reports.
type ReportReader interface {
	Get(ctx context.Context, id string) (report.Report, error)
	List(ctx context.Context) ([]report.Report, error)
}

// ModelLister lists known model aliases.
type ModelLister interface {
	List() []model.Entry
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
