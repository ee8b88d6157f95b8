// Package dataset loads instruction/input text pairs for a retrieval analysis.
package dataset

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/reteval/internal/domain"
)

// Column names shared by every format.
const (
	ColumnInstruction = "instruction"
	ColumnInput       = "input"
	ColumnID          = "id"
)

// Pair is one row: an instruction and the input it should retrieve.
type Pair struct {
	ID          string `json:"id,omitempty"`
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
}

// Dataset is an ordered list of pairs. Row order defines the ground truth.
type Dataset struct {
	Name  string
	Pairs []Pair
}

// Len returns the number of pairs.
func (d Dataset) Len() int { return len(d.Pairs) }

// Instructions returns the instruction column.
func (d Dataset) Instructions() []string {
	out := make([]string, len(d.Pairs))
	for i, p := range d.Pairs {
		out[i] = p.Instruction
	}
	return out
}

// Inputs returns the input column.
func (d Dataset) Inputs() []string {
	out := make([]string, len(d.Pairs))
	for i, p := range d.Pairs {
		out[i] = p.Input
	}
	return out
}

// IDs returns per-row identifiers. Rows without an id get "row-<index>".
func (d Dataset) IDs() []string {
	out := make([]string, len(d.Pairs))
	for i, p := range d.Pairs {
		if p.ID != "" {
			out[i] = p.ID
		} else {
			out[i] = "row-" + strconv.Itoa(i)
		}
	}
	return out
}

// Load reads a dataset, picking the decoder by file extension
// (.jsonl, .ndjson, .json, .parquet).
func Load(path string) (Dataset, error) {
	var (
		pairs []Pair
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jsonl", ".ndjson":
		pairs, err = readJSONL(path)
	case ".json":
		pairs, err = readJSON(path)
	case ".parquet":
		pairs, err = readParquet(path)
	default:
		return Dataset{}, fmt.Errorf("%w: unsupported extension %q", domain.ErrInvalidDataset, ext)
	}
	if err != nil {
		return Dataset{}, err
	}

	if err := validate(pairs); err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return Dataset{Name: filepath.Base(path), Pairs: pairs}, nil
}

func validate(pairs []Pair) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: no rows", domain.ErrInvalidDataset)
	}
	seen := make(map[string]int, len(pairs))
	for i, p := range pairs {
		if strings.TrimSpace(p.Instruction) == "" {
			return fmt.Errorf("%w: row %d has empty %s", domain.ErrInvalidDataset, i, ColumnInstruction)
		}
		if strings.TrimSpace(p.Input) == "" {
			return fmt.Errorf("%w: row %d has empty %s", domain.ErrInvalidDataset, i, ColumnInput)
		}
		if p.ID == "" {
			continue
		}
		if prev, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: rows %d and %d share id %q", domain.ErrInvalidDataset, prev, i, p.ID)
		}
		seen[p.ID] = i
	}
	return nil
}
