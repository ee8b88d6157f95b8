package analysis

import (
	"context"

	"github.com/kailas-cloud/reteval/internal/dataset"
	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/domain/report"
	"github.com/kailas-cloud/reteval/internal/domain/vector"
)

// Evaluator scores paired embedding batches (retrieval.Service).
type Evaluator interface {
	Evaluate(ctx context.Context, instr, input vector.Batch, meta report.Metadata) (report.Report, error)
}

// EmbedderFactory returns the embedder chain for one role and a resolved model ID.
// role is vector.Instruction or vector.Input and selects the text prefix.
type EmbedderFactory interface {
	Embedder(role, model string) (domain.Embedder, error)
}

// ModelResolver maps a model alias to its full ID.
type ModelResolver interface {
	Resolve(name string) (string, error)
}

// Loader reads a dataset from a path.
type Loader func(path string) (dataset.Dataset, error)
