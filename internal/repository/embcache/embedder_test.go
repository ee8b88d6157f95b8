package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reteval/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if len(ms.data) != 1 {
		t.Fatal("expected vector to be cached")
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.data[ce.cacheKey("test text")] = vectorToCacheBytes([]float32{0.4, 0.5, 0.6})

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, ms := newTestCachedEmbedder(t, inner)

	if _, err := ce.Embed(context.Background(), "test"); err == nil {
		t.Fatal("expected error")
	}
	if len(ms.data) != 0 {
		t.Fatal("failed embeddings must not be cached")
	}
}

func TestEmbed_StoreErrorFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getErr = errors.New("connection reset")
	ms.setErr = errors.New("connection reset")

	result, err := ce.Embed(context.Background(), "test")
	if err != nil {
		t.Fatalf("store errors must not fail embedding: %v", err)
	}
	if result.Embedding[0] != 1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
}

func TestCacheKey_ScopedByModel(t *testing.T) {
	a := New(&mockEmbedder{}, newMockKVStore(), "model-a", nil, zap.NewNop())
	b := New(&mockEmbedder{}, newMockKVStore(), "model-b", nil, zap.NewNop())

	if a.cacheKey("same text") == b.cacheKey("same text") {
		t.Fatal("cache keys must differ across models")
	}
	if a.cacheKey("x") != a.cacheKey("x") {
		t.Fatal("cache key must be deterministic")
	}
}

func TestCacheKey_Prefix(t *testing.T) {
	def := New(&mockEmbedder{}, newMockKVStore(), "m", nil, zap.NewNop())
	if !strings.HasPrefix(def.cacheKey("x"), "reteval:emb_cache:") {
		t.Errorf("default key = %q", def.cacheKey("x"))
	}

	custom := New(&mockEmbedder{}, newMockKVStore(), "m", nil, zap.NewNop()).WithPrefix("team-a:")
	if !strings.HasPrefix(custom.cacheKey("x"), "team-a:emb_cache:") {
		t.Errorf("custom key = %q", custom.cacheKey("x"))
	}

	ms := newMockKVStore()
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	ce := New(inner, ms, "m", nil, zap.NewNop()).WithPrefix("team-a:")
	if _, err := ce.Embed(context.Background(), "stored"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k := range ms.data {
		if !strings.HasPrefix(k, "team-a:emb_cache:") {
			t.Errorf("stored key %q outside configured prefix", k)
		}
	}
}

func TestBatchEmbed_PartialHit(t *testing.T) {
	inner := &mockEmbedder{}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data[ce.cacheKey("bb")] = vectorToCacheBytes([]float32{42})

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float32{1, 42, 3}
	for i, w := range want {
		if res.Embeddings[i][0] != w {
			t.Errorf("embedding %d = %v, want %v", i, res.Embeddings[i], w)
		}
	}
	if inner.batchCalls != 1 {
		t.Fatalf("expected 1 inner batch call, got %d", inner.batchCalls)
	}
	if got := inner.batchTexts[0]; len(got) != 2 || got[0] != "a" || got[1] != "ccc" {
		t.Errorf("expected only misses embedded, got %v", got)
	}
	if res.TotalTokens != 2 {
		t.Errorf("expected tokens for 2 misses, got %d", res.TotalTokens)
	}
	if len(ms.data) != 3 {
		t.Errorf("expected misses written back, cache has %d keys", len(ms.data))
	}
}

func TestBatchEmbed_AllHits(t *testing.T) {
	inner := &mockEmbedder{}
	ce, ms := newTestCachedEmbedder(t, inner)
	for _, text := range []string{"x", "y"} {
		ms.data[ce.cacheKey(text)] = vectorToCacheBytes([]float32{7})
	}

	res, err := ce.BatchEmbed(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 0 {
		t.Fatalf("expected no inner call, got %d", inner.batchCalls)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestBatchEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{batchErr: domain.ErrEmbeddingProviderError}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestBatchEmbed_StoreReadErrorEmbedsAll(t *testing.T) {
	inner := &mockEmbedder{}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getErr = errors.New("timeout")

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "bb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batchTexts) != 1 || len(inner.batchTexts[0]) != 2 {
		t.Fatalf("expected both texts embedded, got %v", inner.batchTexts)
	}
	if res.Embeddings[1][0] != 2 {
		t.Errorf("unexpected embeddings: %v", res.Embeddings)
	}
}

func TestWithTTL(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ce.WithTTL(24 * time.Hour)

	if _, err := ce.Embed(context.Background(), "t"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.ttls) != 1 || ms.ttls[0] != 24*time.Hour {
		t.Fatalf("expected ttl 24h, got %v", ms.ttls)
	}
}

func TestCacheCounter(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockEmbedder{}
	ms := newMockKVStore()
	ce := New(inner, ms, "m", counter, zap.NewNop())
	ms.data[ce.cacheKey("hit")] = vectorToCacheBytes([]float32{1})

	if _, err := ce.BatchEmbed(context.Background(), []string{"hit", "miss1", "miss2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 hit, got %f", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 2 {
		t.Errorf("expected 2 misses, got %f", got)
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	vec := []float32{-1.5, 0, 3.25}
	got, err := bytesToVector(vectorToCacheBytes(vec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Fatalf("got %v, want %v", got, vec)
		}
	}

	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated data")
	}
}
