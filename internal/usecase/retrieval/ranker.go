package retrieval

import (
	"github.com/kailas-cloud/reteval/internal/domain/rank"
	"github.com/kailas-cloud/reteval/internal/domain/vector"
)

// Rank returns, for every row of m, the 1-based rank of its ground-truth column.
//
// Columns are ordered by similarity descending; equal similarities are ordered
// by ascending column index. The result does not depend on sort stability.
func Rank(m Matrix) []rank.Record {
	return rankRows(m, 1)
}

func rankRows(m Matrix, workers int) []rank.Record {
	out := make([]rank.Record, m.Size())
	forEachRow(m.Size(), workers, func(i int) {
		out[i] = rank.New(i, rankOf(m.Row(i), vector.GroundTruth(i)))
	})
	return out
}

// rankOf counts the columns that sort strictly before truth.
func rankOf(row []float64, truth int) int {
	target := row[truth]
	r := 1
	for j, s := range row {
		if s > target || (s == target && j < truth) {
			r++
		}
	}
	return r
}
