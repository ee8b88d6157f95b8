package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// embeddingResponse mirrors the OpenAI-compatible API embedding response.
type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func newTestEmbedder(url string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "test-model",
		Dimensions: 2,
		Provider:   "test",
		Logger:     zap.NewNop(),
	})
}

// echoServer returns [len(text), index] for every input, listing items in reverse order.
func echoServer(t *testing.T, got *embeddingRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got != nil {
			*got = req
		}

		resp := embeddingResponse{Object: "list", Model: req.Model}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingItem{
				Object:    "embedding",
				Embedding: []float32{float32(len(req.Input[i])), float32(i)},
				Index:     i,
			})
		}
		resp.Usage.PromptTokens = 3 * len(req.Input)
		resp.Usage.TotalTokens = 3 * len(req.Input)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbedder_Embed(t *testing.T) {
	var req embeddingRequest
	server := echoServer(t, &req)
	defer server.Close()

	result, err := newTestEmbedder(server.URL).Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(req.Input) != 1 || req.Input[0] != "hello" {
		t.Errorf("unexpected request input: %v", req.Input)
	}
	if req.Model != "test-model" || req.Dimensions != 2 {
		t.Errorf("unexpected model/dimensions: %s/%d", req.Model, req.Dimensions)
	}
	if len(result.Embedding) != 2 || result.Embedding[0] != 5 {
		t.Errorf("unexpected embedding: %v", result.Embedding)
	}
	if result.TotalTokens != 3 {
		t.Errorf("expected 3 tokens, got %d", result.TotalTokens)
	}
}

func TestEmbedder_BatchEmbedOrdersByIndex(t *testing.T) {
	server := echoServer(t, nil)
	defer server.Close()

	texts := []string{"a", "bbb", "cc"}
	res, err := newTestEmbedder(server.URL).BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}

	if len(res.Embeddings) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))
	}
	for i, text := range texts {
		if res.Embeddings[i][0] != float32(len(text)) || res.Embeddings[i][1] != float32(i) {
			t.Errorf("embedding %d = %v, want [%d %d]", i, res.Embeddings[i], len(text), i)
		}
	}
	if res.TotalTokens != 9 {
		t.Errorf("expected 9 tokens, got %d", res.TotalTokens)
	}
}

func TestEmbedder_BatchEmbedEmpty(t *testing.T) {
	res, err := newTestEmbedder("http://unused.invalid").BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 0 {
		t.Errorf("expected no embeddings, got %d", len(res.Embeddings))
	}
}

func TestEmbedder_ShortResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Object: "list",
			Data:   []embeddingItem{{Object: "embedding", Embedding: []float32{1, 2}, Index: 0}},
		})
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError for 429, got %v", err)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"test-model","object":"model"}]}`))
	}))
	defer server.Close()

	if err := newTestEmbedder(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"model not found"}`, "model not found"},
		{`{"error":"x"}`, ""},
		{`not json`, ""},
	}
	for _, tc := range tests {
		if got := extractDetail([]byte(tc.body)); got != tc.want {
			t.Errorf("extractDetail(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
