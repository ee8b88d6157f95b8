package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/reteval/internal/domain"
)

const rowBufferSize = 1000

type pairColumns struct {
	id          int
	instruction int
	input       int
}

// resolvePairColumns finds leaf column indexes by name.
func resolvePairColumns(pf *parquet.File) (pairColumns, error) {
	cols := pairColumns{id: -1, instruction: -1, input: -1}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case ColumnID:
			cols.id = i
		case ColumnInstruction:
			cols.instruction = i
		case ColumnInput:
			cols.input = i
		}
	}
	if cols.instruction < 0 || cols.input < 0 {
		return cols, fmt.Errorf("%w: parquet schema needs %q and %q columns",
			domain.ErrInvalidDataset, ColumnInstruction, ColumnInput)
	}
	return cols, nil
}

func readParquet(path string) ([]Pair, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: open parquet: %v", domain.ErrInvalidDataset, err)
	}

	cols, err := resolvePairColumns(pf)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, pf.NumRows())
	buf := make([]parquet.Row, rowBufferSize)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := range n {
				pairs = append(pairs, rowToPair(buf[i], cols))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return pairs, nil
}

func rowToPair(row parquet.Row, cols pairColumns) Pair {
	var p Pair
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols.id:
			p.ID = v.String()
		case cols.instruction:
			p.Instruction = v.String()
		case cols.input:
			p.Input = v.String()
		}
	}
	return p
}
