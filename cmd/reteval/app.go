package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reteval/internal/config"
	"github.com/kailas-cloud/reteval/internal/db"
	"github.com/kailas-cloud/reteval/internal/db/memory"
	dbRedis "github.com/kailas-cloud/reteval/internal/db/redis"
	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/domain/model"
	logpkg "github.com/kailas-cloud/reteval/internal/logger"
	"github.com/kailas-cloud/reteval/internal/metrics"
	reportrepo "github.com/kailas-cloud/reteval/internal/repository/report"
	analysisuc "github.com/kailas-cloud/reteval/internal/usecase/analysis"
	healthuc "github.com/kailas-cloud/reteval/internal/usecase/health"
	"github.com/kailas-cloud/reteval/internal/usecase/retrieval"
)

// app is the composition root shared by every command.
type app struct {
	env       string
	cfg       config.Config
	logger    *zap.Logger
	store     db.Store
	cache     db.Store // embedding cache; a separate LRU for the memory driver
	models    *model.Registry
	reports   *reportrepo.Repo
	files     *reportrepo.FileSink
	embedders *embedderFactory
	recorder  retrieval.Recorder
}

// loadConfig reads config/<env>.yaml, or path when set.
func loadConfig(env, path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path) //nolint:wrapcheck // config errors carry the path
	}
	return config.Load(env) //nolint:wrapcheck // config errors carry the path
}

func newApp(ctx context.Context, env string, cfg config.Config) (*app, error) {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := newStore(cfg.Database)
	if err != nil {
		return nil, err
	}

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Debug("Connected to database", zap.String("driver", cfg.Database.Driver))

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterEvaluationMetrics()
	metrics.RegisterHTTPMetrics()

	// Cached vectors must never evict reports from a bounded memory store.
	cache, err := newCacheStore(cfg.Database, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	models := model.Default()
	embedders, err := newEmbedderFactory(cfg.Embedding, cache, cfg.Storage.KeyPrefix, models, logger)
	if err != nil {
		closeStores(store, cache)
		return nil, err
	}

	reports := reportrepo.New(store).
		WithPrefix(cfg.Storage.KeyPrefix).
		WithTTL(time.Duration(cfg.Storage.ReportTTLHours) * time.Hour)

	return &app{
		env:       env,
		cfg:       cfg,
		logger:    logger,
		store:     store,
		cache:     cache,
		models:    models,
		reports:   reports,
		files:     reportrepo.NewFileSink(cfg.Evaluation.OutputDir, cfg.Evaluation.SummaryFile),
		embedders: embedders,
		recorder:  metrics.NewEvaluationRecorder(),
	}, nil
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		s, err := memory.NewStore(cfg.MemoryCapacity)
		if err != nil {
			return nil, fmt.Errorf("create memory store: %w", err)
		}
		return s, nil
	case config.DriverRedis, config.DriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// newCacheStore returns the store backing the embedding cache. Redis and Valkey
// share the report store; the memory driver gets its own LRU.
func newCacheStore(cfg config.DatabaseConfig, reports db.Store) (db.Store, error) {
	if cfg.Driver != config.DriverMemory {
		return reports, nil
	}
	s, err := memory.NewStore(cfg.MemoryCapacity)
	if err != nil {
		return nil, fmt.Errorf("create memory cache store: %w", err)
	}
	return s, nil
}

func closeStores(store, cache db.Store) {
	if cache != store {
		cache.Close()
	}
	store.Close()
}

func (a *app) close() {
	closeStores(a.store, a.cache)
	_ = a.logger.Sync()
}

// evaluator returns a retrieval service persisting to the store and the output dir.
// Empty topK uses the configured cutoffs.
func (a *app) evaluator(topK []int) *retrieval.Service {
	if len(topK) == 0 {
		topK = a.cfg.Evaluation.TopK
	}
	return retrieval.New(reportrepo.MultiSink{a.reports, a.files}).
		WithTopK(topK...).
		WithWorkers(a.cfg.Evaluation.Workers).
		WithRecorder(a.recorder)
}

// analysis wires the dataset-driven use case with the configured default models.
func (a *app) analysis(eval analysisuc.Evaluator) *analysisuc.Service {
	vz := a.cfg.Embedding.Vectorizers
	return analysisuc.New(eval, a.embedders, a.models).
		WithDefaultModels(vz[config.VectorizerInstruction].Model, vz[config.VectorizerInput].Model)
}

// health checks the store and the default embedder of every vectorizer.
func (a *app) health() *healthuc.Service {
	svc := healthuc.New(a.store)
	for name, vz := range a.cfg.Embedding.Vectorizers {
		id, err := a.models.Resolve(vz.Model)
		if err != nil {
			a.logger.Warn("Skipping health check for vectorizer", zap.String("vectorizer", name), zap.Error(err))
			continue
		}
		emb, err := a.embedders.Embedder(name, id)
		if err != nil {
			a.logger.Warn("Skipping health check for vectorizer", zap.String("vectorizer", name), zap.Error(err))
			continue
		}
		if hc, ok := emb.(domain.HealthChecker); ok {
			svc = svc.WithEmbedder(name, hc)
		}
	}
	return svc
}
