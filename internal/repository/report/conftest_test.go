package report

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/reteval/internal/db"
	domrep "github.com/kailas-cloud/reteval/internal/domain/report"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	setErr  error
	getErr  error
	scanErr error
	mgetErr error
	// dropOnMGet simulates keys expiring between SCAN and MGET.
	dropOnMGet map[string]bool
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if m.dropOnMGet[k] {
			continue
		}
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := m.Set(ctx, key, value); err != nil {
		return err
	}
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func testReport(t *testing.T, id string, at time.Time) domrep.Report {
	t.Helper()
	return domrep.New(id, at, 4,
		[]domrep.TopK{{K: 1, Accuracy: 0.75}, {K: 5, Accuracy: 1}},
		0.875,
		domrep.Metadata{
			InstructionModel: "intfloat/multilingual-e5-large-instruct",
			InputModel:       "BAAI/bge-m3",
			Dataset:          "data/personas.jsonl",
		})
}
