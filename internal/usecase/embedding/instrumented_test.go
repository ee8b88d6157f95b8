package embedding

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error

	mu         sync.Mutex
	batchErr   error
	batchSizes []int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

// BatchEmbed returns [n] for text "n" so ordering can be checked.
func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.batchSizes = append(m.batchSizes, len(texts))
	m.mu.Unlock()

	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	embeddings := make([][]float32, len(texts))
	for i, t := range texts {
		n, _ := strconv.Atoi(t)
		embeddings[i] = []float32{float32(n)}
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: len(texts),
		TotalTokens:  len(texts),
	}, nil
}

// singleOnly has no BatchEmbed method.
type singleOnly struct{ calls int }

func (s *singleOnly) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
}

func numberedTexts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Chunks(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop()).WithMaxBatchSize(4)

	texts := numberedTexts(10)
	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inner.batchSizes) != 3 {
		t.Fatalf("expected 3 chunks, got %v", inner.batchSizes)
	}
	if len(res.Embeddings) != 10 {
		t.Fatalf("expected 10 embeddings, got %d", len(res.Embeddings))
	}
	for i, e := range res.Embeddings {
		if e[0] != float32(i) {
			t.Fatalf("embedding %d = %v, out of order", i, e)
		}
	}
	if res.TotalTokens != 10 {
		t.Errorf("expected 10 tokens, got %d", res.TotalTokens)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_ConcurrentKeepsOrder(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop()).
		WithMaxBatchSize(3).
		WithConcurrency(4)

	res, err := p.BatchEmbed(context.Background(), numberedTexts(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, e := range res.Embeddings {
		if e[0] != float32(i) {
			t.Fatalf("embedding %d = %v, out of order", i, e)
		}
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 0 || len(inner.batchSizes) != 0 {
		t.Fatal("expected no inner calls for empty input")
	}
}

func TestInstrumentedEmbedder_BatchEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{batchErr: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	_, err := p.BatchEmbed(context.Background(), []string{"1", "2"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_FallbackToSingle(t *testing.T) {
	inner := &singleOnly{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 single calls, got %d", inner.calls)
	}
	if res.Embeddings[2][0] != 3 || res.TotalTokens != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	p := NewInstrumentedEmbedder(&mockEmbedder{}, "test", "test-model", zap.NewNop())
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected nil for inner without health check, got %v", err)
	}
}
