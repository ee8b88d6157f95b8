package report

import (
	"encoding/json"
	"fmt"
	"time"

	domrep "github.com/kailas-cloud/reteval/internal/domain/report"
)

// ModelInfo is the metadata block of a persisted report.
type ModelInfo struct {
	InstructionModel string `json:"instruction_model"`
	InputModel       string `json:"input_model"`
	Dataset          string `json:"dataset"`
}

// TopKRow is one cutoff in the persisted form.
type TopKRow struct {
	K        int     `json:"k"`
	Accuracy float64 `json:"accuracy"`
}

// Document is the JSON shape of a report, shared by sinks and the HTTP API.
// Top-1 and Top-5 are flattened for readers of the summary file; top_k holds
// every requested cutoff.
type Document struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Queries      int       `json:"queries"`
	Top1Accuracy *float64  `json:"top_1_accuracy,omitempty"`
	Top5Accuracy *float64  `json:"top_5_accuracy,omitempty"`
	MRR          float64   `json:"mrr"`
	TopK         []TopKRow `json:"top_k"`
	ModelInfo    ModelInfo `json:"model_info"`
}

// ToDocument converts a domain report to its persisted form.
func ToDocument(r domrep.Report) Document {
	topK := r.TopK()
	rows := make([]TopKRow, len(topK))
	for i, t := range topK {
		rows[i] = TopKRow{K: t.K, Accuracy: t.Accuracy}
	}

	meta := r.Metadata()
	doc := Document{
		ID:        r.ID(),
		CreatedAt: r.CreatedAt(),
		Queries:   r.Queries(),
		MRR:       r.MRR(),
		TopK:      rows,
		ModelInfo: ModelInfo{
			InstructionModel: meta.InstructionModel,
			InputModel:       meta.InputModel,
			Dataset:          meta.Dataset,
		},
	}
	if acc, ok := r.Accuracy(1); ok {
		doc.Top1Accuracy = &acc
	}
	if acc, ok := r.Accuracy(5); ok {
		doc.Top5Accuracy = &acc
	}
	return doc
}

// FromDocument restores a domain report.
func FromDocument(d Document) domrep.Report {
	topK := make([]domrep.TopK, len(d.TopK))
	for i, t := range d.TopK {
		topK[i] = domrep.TopK{K: t.K, Accuracy: t.Accuracy}
	}
	return domrep.Reconstruct(d.ID, d.CreatedAt, d.Queries, topK, d.MRR, domrep.Metadata{
		InstructionModel: d.ModelInfo.InstructionModel,
		InputModel:       d.ModelInfo.InputModel,
		Dataset:          d.ModelInfo.Dataset,
	})
}

func marshalReport(r domrep.Report) ([]byte, error) {
	data, err := json.Marshal(ToDocument(r))
	if err != nil {
		return nil, fmt.Errorf("marshal report %s: %w", r.ID(), err)
	}
	return data, nil
}

func unmarshalReport(data []byte) (domrep.Report, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return domrep.Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return FromDocument(d), nil
}
