package reteval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/reteval/internal/db"
	"github.com/kailas-cloud/reteval/internal/db/memory"
	dbRedis "github.com/kailas-cloud/reteval/internal/db/redis"
	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/domain/model"
	domrep "github.com/kailas-cloud/reteval/internal/domain/report"
	"github.com/kailas-cloud/reteval/internal/domain/vector"
	reportrepo "github.com/kailas-cloud/reteval/internal/repository/report"
	"github.com/kailas-cloud/reteval/internal/usecase/retrieval"
)

const (
	defaultReadinessTimeout  = 10 * time.Second
	defaultMemoryCapacity    = 10000
	defaultSummaryFile       = "retrieval_analysis_summary.json"
	defaultInstructionPrefix = "Instruct: "
	defaultInputPrefix       = "Persona: "
)

// Internal interfaces, swapped in tests.
type evaluator interface {
	Evaluate(ctx context.Context, instr, input vector.Batch, meta domrep.Metadata) (domrep.Report, error)
}

type reportReader interface {
	Get(ctx context.Context, id string) (domrep.Report, error)
	List(ctx context.Context) ([]domrep.Report, error)
}

// Client is the reteval SDK entry point. It is safe for concurrent use.
type Client struct {
	store       db.Store // nil without a report store
	eval        evaluator
	reports     reportReader
	instruction domain.Embedder
	input       domain.Embedder
	models      *model.Registry
	obs         *observer
}

// New creates a Client. Without store options reports are only returned, not persisted.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		topK:              retrieval.DefaultTopK,
		workers:           1,
		summaryFile:       defaultSummaryFile,
		instructionPrefix: defaultInstructionPrefix,
		inputPrefix:       defaultInputPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	for _, k := range cfg.topK {
		if k <= 0 {
			return nil, fmt.Errorf("reteval: %w: %d", ErrInvalidTopK, k)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), defaultReadinessTimeout)
		defer cancel()
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("reteval: database not ready: %w", err)
		}
	}

	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "":
		return nil, nil
	case "memory":
		capacity := cfg.memoryCapacity
		if capacity <= 0 {
			capacity = defaultMemoryCapacity
		}
		s, err := memory.NewStore(capacity)
		if err != nil {
			return nil, fmt.Errorf("reteval: create memory store: %w", err)
		}
		return s, nil
	case "valkey", "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, errors.New("reteval: database address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("reteval: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("reteval: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	var sinks reportrepo.MultiSink
	var reports reportReader
	if store != nil {
		repo := reportrepo.New(store).WithPrefix(cfg.keyPrefix).WithTTL(cfg.reportTTL)
		sinks = append(sinks, repo)
		reports = repo
	}
	if cfg.outputDir != "" {
		sinks = append(sinks, reportrepo.NewFileSink(cfg.outputDir, cfg.summaryFile))
	}

	var sink retrieval.Sink
	if len(sinks) > 0 {
		sink = sinks
	}

	return &Client{
		store:       store,
		eval:        retrieval.New(sink).WithTopK(cfg.topK...).WithWorkers(cfg.workers),
		reports:     reports,
		instruction: withPrefix(adaptEmbedder(cfg.instructionEmbedder), cfg.instructionPrefix),
		input:       withPrefix(adaptEmbedder(cfg.inputEmbedder), cfg.inputPrefix),
		models:      model.Default(),
		obs:         obs,
	}
}

func withPrefix(e domain.Embedder, prefix string) domain.Embedder {
	if prefix == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, prefix)
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks report store connectivity. Without a store it always succeeds.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.store == nil {
		return nil
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Evaluate ranks every input vector against every instruction vector.
// instr[i] is paired with input[i].
func (c *Client) Evaluate(ctx context.Context, instr, input [][]float32, info ModelInfo) (rep Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("evaluate", start, err) }()

	return c.evaluate(ctx,
		vector.FromFloats(vector.Instruction, instr),
		vector.FromFloats(vector.Input, input),
		info)
}

// EvaluatePairs embeds both sides of every pair and evaluates them.
// Needs WithEmbedders.
func (c *Client) EvaluatePairs(ctx context.Context, pairs []Pair, info ModelInfo) (rep Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("evaluate_pairs", start, err) }()

	if len(pairs) == 0 {
		return Report{}, ErrEmptyBatch
	}

	instrTexts := make([]string, len(pairs))
	inputTexts := make([]string, len(pairs))
	var ids []string
	for i, p := range pairs {
		instrTexts[i] = p.Instruction
		inputTexts[i] = p.Input
		if p.ID != "" {
			if ids == nil {
				ids = make([]string, len(pairs))
			}
			ids[i] = p.ID
		}
	}

	instr, err := embedBatch(ctx, c.instruction, vector.Instruction, instrTexts, ids)
	if err != nil {
		return Report{}, err
	}
	input, err := embedBatch(ctx, c.input, vector.Input, inputTexts, ids)
	if err != nil {
		return Report{}, err
	}

	return c.evaluate(ctx, instr, input, info)
}

func (c *Client) evaluate(ctx context.Context, instr, input vector.Batch, info ModelInfo) (Report, error) {
	dr, err := c.eval.Evaluate(ctx, instr, input, info.toDomain())
	if err != nil {
		return Report{}, fmt.Errorf("evaluate: %w", err)
	}
	rep := reportFromDomain(dr)
	c.obs.report(rep)
	return rep, nil
}

func embedBatch(
	ctx context.Context, e domain.Embedder, name string, texts, ids []string,
) (vector.Batch, error) {
	res, err := domain.EmbedAll(ctx, e, texts)
	if err != nil {
		return vector.Batch{}, fmt.Errorf("embed %s: %w", name, err)
	}
	if len(res.Embeddings) != len(texts) {
		return vector.Batch{}, fmt.Errorf("%w: %s: got %d embeddings for %d texts",
			ErrEmbeddingProviderError, name, len(res.Embeddings), len(texts))
	}

	vecs := make([]vector.Vector, len(res.Embeddings))
	for i, v := range res.Embeddings {
		vecs[i] = v
	}
	b, err := vector.NewBatch(name, vecs, ids)
	if err != nil {
		return vector.Batch{}, fmt.Errorf("build %s batch: %w", name, err)
	}
	return b, nil
}

// Report returns a stored report. Needs a store option.
func (c *Client) Report(ctx context.Context, id string) (rep Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("report.get", start, err) }()

	if c.reports == nil {
		return Report{}, fmt.Errorf("%w: no report store (use WithValkey, WithRedis or WithMemoryStore)", ErrNotConfigured)
	}
	dr, err := c.reports.Get(ctx, id)
	if err != nil {
		return Report{}, fmt.Errorf("get report: %w", err)
	}
	return reportFromDomain(dr), nil
}

// Reports returns all stored reports, oldest first. Needs a store option.
func (c *Client) Reports(ctx context.Context) (reps []Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("report.list", start, err) }()

	if c.reports == nil {
		return nil, fmt.Errorf("%w: no report store (use WithValkey, WithRedis or WithMemoryStore)", ErrNotConfigured)
	}
	drs, err := c.reports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]Report, len(drs))
	for i, r := range drs {
		out[i] = reportFromDomain(r)
	}
	return out, nil
}

// Models lists the known embedding model aliases.
func (c *Client) Models() []ModelEntry {
	entries := c.models.List()
	out := make([]ModelEntry, len(entries))
	for i, e := range entries {
		out[i] = ModelEntry{Alias: e.Alias, ID: e.ID}
	}
	return out
}

// ResolveModel maps an alias to its full model ID. Full IDs pass through.
func (c *Client) ResolveModel(name string) (string, error) {
	id, err := c.models.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("resolve model: %w", err)
	}
	return id, nil
}
