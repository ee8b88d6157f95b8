// Package report defines the immutable result of one retrieval evaluation run.
package report

import (
	"time"
)

// Metadata identifies what was evaluated.
type Metadata struct {
	InstructionModel string
	InputModel       string
	Dataset          string
}

// TopK is the accuracy for one cutoff.
type TopK struct {
	K        int
	Accuracy float64
}

// Report is an evaluation outcome. Created once, never mutated.
type Report struct {
	id        string
	createdAt time.Time
	queries   int
	topK      []TopK
	mrr       float64
	metadata  Metadata
}

// New creates a report. topK is copied.
func New(id string, createdAt time.Time, queries int, topK []TopK, mrr float64, meta Metadata) Report {
	return Report{
		id:        id,
		createdAt: createdAt.UTC(),
		queries:   queries,
		topK:      append([]TopK(nil), topK...),
		mrr:       mrr,
		metadata:  meta,
	}
}

// Reconstruct restores a report from storage.
func Reconstruct(id string, createdAt time.Time, queries int, topK []TopK, mrr float64, meta Metadata) Report {
	return New(id, createdAt, queries, topK, mrr, meta)
}

// ID returns the report identifier.
func (r Report) ID() string { return r.id }

// CreatedAt returns the evaluation timestamp (UTC).
func (r Report) CreatedAt() time.Time { return r.createdAt }

// Queries returns the number of evaluated instruction rows.
func (r Report) Queries() int { return r.queries }

// TopK returns a copy of the per-K accuracies, sorted by K.
func (r Report) TopK() []TopK { return append([]TopK(nil), r.topK...) }

// Accuracy returns Top-K accuracy for k and whether k was evaluated.
func (r Report) Accuracy(k int) (float64, bool) {
	for _, t := range r.topK {
		if t.K == k {
			return t.Accuracy, true
		}
	}
	return 0, false
}

// MRR returns the mean reciprocal rank.
func (r Report) MRR() float64 { return r.mrr }

// Metadata returns the run metadata.
func (r Report) Metadata() Metadata { return r.metadata }
