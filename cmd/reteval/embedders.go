package main

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reteval/internal/config"
	"github.com/kailas-cloud/reteval/internal/db"
	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/domain/model"
	"github.com/kailas-cloud/reteval/internal/metrics"
	"github.com/kailas-cloud/reteval/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/reteval/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/reteval/internal/usecase/embedding"
)

const maxCachedChains = 32

// embedderFactory builds and memoizes one decorator chain per (role, model).
// A role is a vectorizer name: "instruction" or "input".
type embedderFactory struct {
	cfg    config.EmbeddingConfig
	store  db.KVStore // nil disables the embedding cache
	prefix string
	models *model.Registry
	logger *zap.Logger
	chains *lru.Cache[string, domain.Embedder]
}

func newEmbedderFactory(
	cfg config.EmbeddingConfig,
	store db.KVStore,
	prefix string,
	models *model.Registry,
	logger *zap.Logger,
) (*embedderFactory, error) {
	chains, err := lru.New[string, domain.Embedder](maxCachedChains)
	if err != nil {
		return nil, fmt.Errorf("create embedder cache: %w", err)
	}
	if !cfg.Cache.Enabled {
		store = nil
	}
	return &embedderFactory{cfg: cfg, store: store, prefix: prefix, models: models, logger: logger, chains: chains}, nil
}

// Embedder implements analysis.EmbedderFactory. modelID is already resolved.
func (f *embedderFactory) Embedder(role, modelID string) (domain.Embedder, error) {
	key := role + "\x00" + modelID
	if e, ok := f.chains.Get(key); ok {
		return e, nil
	}

	vecCfg, ok := f.cfg.Vectorizers[role]
	if !ok {
		return nil, fmt.Errorf("no vectorizer configured for %q", role)
	}
	provCfg, ok := f.cfg.Providers[vecCfg.Provider]
	if !ok {
		return nil, fmt.Errorf("vectorizer %q references unknown provider %q", role, vecCfg.Provider)
	}

	// Dimensions only apply to the model they were configured for.
	dims := 0
	if configured, err := f.models.Resolve(vecCfg.Model); err == nil && configured == modelID {
		dims = vecCfg.Dimensions
	}

	e := f.build(vecCfg.Provider, provCfg, modelID, dims, vecCfg.Instruction)
	f.chains.Add(key, e)
	return e, nil
}

// build assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func (f *embedderFactory) build(
	provName string, provCfg config.ProviderConfig, modelID string, dims int, instruction string,
) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      modelID,
		Dimensions: dims,
		Provider:   provName,
		Logger:     f.logger,
	})

	var embedder domain.Embedder = base
	if f.store != nil {
		embedder = embcache.New(base, f.store, modelID, metrics.EmbeddingCacheTotal, f.logger).
			WithPrefix(f.prefix).
			WithTTL(time.Duration(f.cfg.Cache.TTLHours) * time.Hour)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provName, modelID, f.logger)

	// Instruction prefix is outermost, so the cache key includes it.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
