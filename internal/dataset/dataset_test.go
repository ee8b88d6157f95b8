package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/reteval/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_JSONL(t *testing.T) {
	path := writeFile(t, "personas.jsonl", `{"instruction":"write a poem","input":"a poet"}

{"id":"p2","instruction":"fix my sink","input":"a plumber"}
`)

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Name != "personas.jsonl" {
		t.Errorf("expected name personas.jsonl, got %q", ds.Name)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 pairs (blank line skipped), got %d", ds.Len())
	}
	if got := ds.Instructions(); got[0] != "write a poem" || got[1] != "fix my sink" {
		t.Errorf("unexpected instructions: %v", got)
	}
	if got := ds.Inputs(); got[0] != "a poet" || got[1] != "a plumber" {
		t.Errorf("unexpected inputs: %v", got)
	}
	if got := ds.IDs(); got[0] != "row-0" || got[1] != "p2" {
		t.Errorf("unexpected ids: %v", got)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "pairs.json", `[
  {"instruction":"a","input":"b"},
  {"instruction":"c","input":"d"},
  {"instruction":"e","input":"f"}
]`)

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 3 || ds.Pairs[2].Input != "f" {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
}

func TestLoad_Parquet(t *testing.T) {
	type row struct {
		ID          string `parquet:"id"`
		Instruction string `parquet:"instruction"`
		Input       string `parquet:"input"`
		Extra       int64  `parquet:"extra"`
	}
	path := filepath.Join(t.TempDir(), "pairs.parquet")
	rows := []row{
		{ID: "a", Instruction: "plan a trip", Input: "a travel agent", Extra: 1},
		{ID: "b", Instruction: "teach me chess", Input: "a chess coach", Extra: 2},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 pairs, got %d", ds.Len())
	}
	if ds.Pairs[1] != (Pair{ID: "b", Instruction: "teach me chess", Input: "a chess coach"}) {
		t.Errorf("unexpected pair: %+v", ds.Pairs[1])
	}
}

func TestLoad_ParquetMissingColumn(t *testing.T) {
	type row struct {
		Instruction string `parquet:"instruction"`
	}
	path := filepath.Join(t.TempDir(), "bad.parquet")
	if err := parquet.WriteFile(path, []row{{Instruction: "x"}}); err != nil {
		t.Fatalf("write parquet: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, domain.ErrInvalidDataset) {
		t.Fatalf("expected ErrInvalidDataset, got %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"empty jsonl", "empty.jsonl", "\n\n"},
		{"empty json array", "empty.json", "[]"},
		{"malformed line", "bad.jsonl", `{"instruction":"a","input":"b"}` + "\n{oops\n"},
		{"malformed json", "bad.json", `{"instruction":`},
		{"empty instruction", "blank.jsonl", `{"instruction":"  ","input":"b"}`},
		{"missing input", "noinput.jsonl", `{"instruction":"a"}`},
		{"duplicate id", "dup.jsonl", `{"id":"x","instruction":"a","input":"b"}` + "\n" + `{"id":"x","instruction":"c","input":"d"}`},
		{"unsupported extension", "data.csv", "instruction,input\na,b\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.file, tc.content)
			if _, err := Load(path); !errors.Is(err, domain.ErrInvalidDataset) {
				t.Fatalf("expected ErrInvalidDataset, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrInvalidDataset) {
		t.Error("a missing file is an I/O error, not an invalid dataset")
	}
}
