package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest batch sent in a single API request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder wraps Embedder with sub-batching, logging and error metrics.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner        domain.Embedder
	provider     string
	model        string
	maxBatchSize int
	concurrency  int
	logger       *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:        inner,
		provider:     provider,
		model:        model,
		maxBatchSize: DefaultMaxAPIBatchSize,
		concurrency:  1,
		logger:       logger,
	}
}

// WithMaxBatchSize overrides the per-request batch size.
func (p *InstrumentedEmbedder) WithMaxBatchSize(n int) *InstrumentedEmbedder {
	if n > 0 {
		p.maxBatchSize = n
	}
	return p
}

// WithConcurrency sets how many sub-batches may be in flight at once.
func (p *InstrumentedEmbedder) WithConcurrency(n int) *InstrumentedEmbedder {
	if n > 0 {
		p.concurrency = n
	}
	return p
}

// Embed delegates to the inner embedder and logs the outcome.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, "embed").Inc()
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEmbed splits texts into sub-batches of at most maxBatchSize and delegates each to inner.
// Embeddings[i] belongs to texts[i] regardless of completion order.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, "batch").Inc()
		return domain.BatchEmbeddingResult{}, err
	}

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through decorator
	}
	return nil
}

func (p *InstrumentedEmbedder) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	numChunks := (len(texts) + p.maxBatchSize - 1) / p.maxBatchSize
	chunks := make([]domain.BatchEmbeddingResult, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for c := range numChunks {
		offset := c * p.maxBatchSize
		end := min(offset+p.maxBatchSize, len(texts))
		chunk := texts[offset:end]

		g.Go(func() error {
			res, err := domain.EmbedAll(gctx, p.inner, chunk)
			if err != nil {
				p.logger.Error("Batch embedding request failed",
					zap.String("provider", p.provider),
					zap.String("model", p.model),
					zap.Int("chunk_offset", offset),
					zap.Int("chunk_size", len(chunk)),
					zap.Error(err),
				)
				return fmt.Errorf("batch embed chunk at %d: %w", offset, err)
			}
			if len(res.Embeddings) != len(chunk) {
				return fmt.Errorf("chunk at %d: got %d vectors for %d texts: %w",
					offset, len(res.Embeddings), len(chunk), domain.ErrEmbeddingProviderError)
			}
			chunks[c] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // wrapped per chunk
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for _, res := range chunks {
		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}
