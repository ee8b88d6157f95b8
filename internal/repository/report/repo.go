// Package report persists evaluation reports to the KV store and to disk.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/reteval/internal/db"
	"github.com/kailas-cloud/reteval/internal/domain"
	domrep "github.com/kailas-cloud/reteval/internal/domain/report"
)

// store is the consumer interface for reports (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores reports as JSON documents under <prefix>report:<id>.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a report repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: domain.KeyPrefix}
}

// WithPrefix overrides the key namespace.
func (r *Repo) WithPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// WithTTL expires reports after ttl. Zero keeps them forever.
func (r *Repo) WithTTL(ttl time.Duration) *Repo {
	r.ttl = ttl
	return r
}

// Save writes a report. Reports are never updated, so the ID is the only key.
func (r *Repo) Save(ctx context.Context, rep domrep.Report) error {
	data, err := marshalReport(rep)
	if err != nil {
		return err
	}

	key := r.key(rep.ID())
	if r.ttl > 0 {
		err = r.store.SetWithTTL(ctx, key, data, r.ttl)
	} else {
		err = r.store.Set(ctx, key, data)
	}
	if err != nil {
		return fmt.Errorf("set report %s: %w", rep.ID(), err)
	}
	return nil
}

// Get returns a report by ID or domain.ErrReportNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domrep.Report, error) {
	data, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domrep.Report{}, domain.ErrReportNotFound
		}
		return domrep.Report{}, fmt.Errorf("get report %s: %w", id, err)
	}
	return unmarshalReport(data)
}

// List returns all stored reports sorted by CreatedAt, oldest first.
func (r *Repo) List(ctx context.Context) ([]domrep.Report, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan reports: %w", err)
	}
	if len(keys) == 0 {
		return []domrep.Report{}, nil
	}

	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget reports: %w", err)
	}

	reports := make([]domrep.Report, 0, len(values))
	for i, data := range values {
		// expired between SCAN and MGET
		if data == nil {
			continue
		}
		rep, err := unmarshalReport(data)
		if err != nil {
			return nil, fmt.Errorf("parse report %s: %w", keys[i], err)
		}
		reports = append(reports, rep)
	}

	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].CreatedAt().Equal(reports[j].CreatedAt()) {
			return reports[i].CreatedAt().Before(reports[j].CreatedAt())
		}
		return reports[i].ID() < reports[j].ID()
	})

	return reports, nil
}

func (r *Repo) key(id string) string {
	return fmt.Sprintf("%sreport:%s", r.prefix, id)
}
