package reteval

import (
	"time"

	domrep "github.com/kailas-cloud/reteval/internal/domain/report"
)

// ModelInfo names what produced the evaluated embeddings.
type ModelInfo struct {
	InstructionModel string
	InputModel       string
	Dataset          string
}

// TopK is the accuracy for one cutoff.
type TopK struct {
	K        int
	Accuracy float64
}

// Report is the outcome of one evaluation.
type Report struct {
	ID        string
	CreatedAt time.Time
	Queries   int
	TopK      []TopK // sorted by K
	MRR       float64
	Model     ModelInfo
}

// Accuracy returns Top-K accuracy for k and whether k was evaluated.
func (r Report) Accuracy(k int) (float64, bool) {
	for _, t := range r.TopK {
		if t.K == k {
			return t.Accuracy, true
		}
	}
	return 0, false
}

// Pair is one instruction and the input it should retrieve.
type Pair struct {
	ID          string
	Instruction string
	Input       string
}

// ModelEntry is one known model alias.
type ModelEntry struct {
	Alias string
	ID    string
}

func reportFromDomain(r domrep.Report) Report {
	topK := r.TopK()
	out := make([]TopK, len(topK))
	for i, t := range topK {
		out[i] = TopK{K: t.K, Accuracy: t.Accuracy}
	}
	meta := r.Metadata()
	return Report{
		ID:        r.ID(),
		CreatedAt: r.CreatedAt(),
		Queries:   r.Queries(),
		TopK:      out,
		MRR:       r.MRR(),
		Model: ModelInfo{
			InstructionModel: meta.InstructionModel,
			InputModel:       meta.InputModel,
			Dataset:          meta.Dataset,
		},
	}
}

func (m ModelInfo) toDomain() domrep.Metadata {
	return domrep.Metadata{
		InstructionModel: m.InstructionModel,
		InputModel:       m.InputModel,
		Dataset:          m.Dataset,
	}
}
