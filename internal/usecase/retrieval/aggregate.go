package retrieval

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/domain/rank"
	"github.com/kailas-cloud/reteval/internal/domain/report"
)

// DefaultTopK are the cutoffs reported when none are requested.
var DefaultTopK = []int{1, 5}

// Metrics is the aggregate of one rank sequence.
type Metrics struct {
	Queries int
	TopK    []report.TopK // sorted by K
	MRR     float64
}

// Aggregate computes Top-K accuracy for each k and the mean reciprocal rank.
// A k at or above the number of queries always yields accuracy 1.
func Aggregate(ranks []rank.Record, ks []int) (Metrics, error) {
	if len(ranks) == 0 {
		return Metrics{}, domain.ErrEmptyInput
	}
	cutoffs, err := normalizeTopK(ks)
	if err != nil {
		return Metrics{}, err
	}

	n := len(ranks)
	var reciprocal float64
	for _, r := range ranks {
		if r.Rank() < 1 || r.Rank() > n {
			return Metrics{}, fmt.Errorf("%w: query %d has rank %d outside [1, %d]",
				domain.ErrInvalidRank, r.Query(), r.Rank(), n)
		}
		reciprocal += r.Reciprocal()
	}

	topK := make([]report.TopK, len(cutoffs))
	for i, k := range cutoffs {
		topK[i] = report.TopK{K: k, Accuracy: accuracyAt(ranks, k)}
	}

	return Metrics{
		Queries: n,
		TopK:    topK,
		MRR:     reciprocal / float64(n),
	}, nil
}

func accuracyAt(ranks []rank.Record, k int) float64 {
	if k >= len(ranks) {
		return 1.0
	}
	hits := 0
	for _, r := range ranks {
		if r.Hit(k) {
			hits++
		}
	}
	return float64(hits) / float64(len(ranks))
}

// normalizeTopK validates, deduplicates and sorts the requested cutoffs.
func normalizeTopK(ks []int) ([]int, error) {
	if len(ks) == 0 {
		ks = DefaultTopK
	}
	seen := make(map[int]struct{}, len(ks))
	out := make([]int, 0, len(ks))
	for _, k := range ks {
		if k <= 0 {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidTopK, k)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Ints(out)
	return out, nil
}
