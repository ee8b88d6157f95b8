package rank

// Record is the 1-based rank of query's ground-truth candidate.
type Record struct {
	query int
	rank  int
}

// New creates a rank record.
func New(query, rank int) Record {
	return Record{query: query, rank: rank}
}

// Query returns the instruction row index.
func (r Record) Query() int { return r.query }

// Rank returns the 1-based rank of the ground truth among all candidates.
func (r Record) Rank() int { return r.rank }

// Hit reports whether the ground truth is within the top k candidates.
func (r Record) Hit(k int) bool { return r.rank <= k }

// Reciprocal returns 1/rank.
func (r Record) Reciprocal() float64 { return 1.0 / float64(r.rank) }
