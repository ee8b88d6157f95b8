package retrieval

import (
	"context"
	"time"

	"github.com/kailas-cloud/reteval/internal/domain/report"
)

// Sink persists a finished report. Called once per successful evaluation.
type Sink interface {
	Save(ctx context.Context, r report.Report) error
}

// Recorder observes evaluation outcomes (metrics).
type Recorder interface {
	RecordSuccess(r report.Report, duration time.Duration)
	RecordFailure(meta report.Metadata, err error)
}
