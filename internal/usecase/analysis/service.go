// Package analysis runs an end-to-end retrieval analysis: load a dataset,
// embed both columns and score how well instructions retrieve their inputs.
package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/reteval/internal/dataset"
	"github.com/kailas-cloud/reteval/internal/domain"
	"github.com/kailas-cloud/reteval/internal/domain/report"
	"github.com/kailas-cloud/reteval/internal/domain/vector"
	logpkg "github.com/kailas-cloud/reteval/internal/logger"
)

// Request describes one analysis. Empty model names fall back to the service defaults.
type Request struct {
	Dataset          string
	InstructionModel string
	InputModel       string
}

// Service orchestrates dataset → embeddings → evaluation.
type Service struct {
	eval      Evaluator
	embedders EmbedderFactory
	models    ModelResolver
	load      Loader

	defaultInstruction string
	defaultInput       string
}

// New creates an analysis service.
func New(eval Evaluator, embedders EmbedderFactory, models ModelResolver) *Service {
	return &Service{
		eval:      eval,
		embedders: embedders,
		models:    models,
		load:      dataset.Load,
	}
}

// WithDefaultModels sets the models used when a request leaves them empty.
func (s *Service) WithDefaultModels(instruction, input string) *Service {
	s.defaultInstruction = instruction
	s.defaultInput = input
	return s
}

// WithLoader overrides dataset loading.
func (s *Service) WithLoader(l Loader) *Service {
	if l != nil {
		s.load = l
	}
	return s
}

// Run executes an analysis and returns the saved report.
func (s *Service) Run(ctx context.Context, req Request) (report.Report, error) {
	instrModel, err := s.resolve(req.InstructionModel, s.defaultInstruction)
	if err != nil {
		return report.Report{}, fmt.Errorf("instruction model: %w", err)
	}
	inputModel, err := s.resolve(req.InputModel, s.defaultInput)
	if err != nil {
		return report.Report{}, fmt.Errorf("input model: %w", err)
	}

	ds, err := s.load(req.Dataset)
	if err != nil {
		return report.Report{}, fmt.Errorf("load dataset: %w", err)
	}

	log := logpkg.FromContext(ctx)
	log.Info("Starting retrieval analysis",
		zap.String("dataset", req.Dataset),
		zap.Int("pairs", ds.Len()),
		zap.String("instruction_model", instrModel),
		zap.String("input_model", inputModel),
	)

	start := time.Now()
	instr, input, err := s.embedPairs(ctx, ds, instrModel, inputModel)
	if err != nil {
		return report.Report{}, err
	}
	log.Debug("Embeddings generated", zap.Duration("duration", time.Since(start)))

	rep, err := s.eval.Evaluate(ctx, instr, input, report.Metadata{
		InstructionModel: instrModel,
		InputModel:       inputModel,
		Dataset:          req.Dataset,
	})
	if err != nil {
		return report.Report{}, fmt.Errorf("evaluate: %w", err)
	}
	return rep, nil
}

func (s *Service) resolve(name, fallback string) (string, error) {
	if name == "" {
		name = fallback
	}
	if name == "" {
		return "", fmt.Errorf("%w: no model given and no default configured", domain.ErrUnknownModel)
	}
	id, err := s.models.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", name, err)
	}
	return id, nil
}

// embedPairs embeds both columns concurrently and builds ID-tagged batches.
func (s *Service) embedPairs(
	ctx context.Context, ds dataset.Dataset, instrModel, inputModel string,
) (vector.Batch, vector.Batch, error) {
	var instrVecs, inputVecs []vector.Vector

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		instrVecs, err = s.embedColumn(gctx, vector.Instruction, instrModel, ds.Instructions())
		return err
	})
	g.Go(func() error {
		var err error
		inputVecs, err = s.embedColumn(gctx, vector.Input, inputModel, ds.Inputs())
		return err
	})
	if err := g.Wait(); err != nil {
		return vector.Batch{}, vector.Batch{}, err //nolint:wrapcheck // embedColumn wraps
	}

	ids := ds.IDs()
	instr, err := vector.NewBatch(vector.Instruction, instrVecs, ids)
	if err != nil {
		return vector.Batch{}, vector.Batch{}, err //nolint:wrapcheck // domain error
	}
	input, err := vector.NewBatch(vector.Input, inputVecs, ids)
	if err != nil {
		return vector.Batch{}, vector.Batch{}, err //nolint:wrapcheck // domain error
	}
	return instr, input, nil
}

func (s *Service) embedColumn(ctx context.Context, role, model string, texts []string) ([]vector.Vector, error) {
	emb, err := s.embedders.Embedder(role, model)
	if err != nil {
		return nil, fmt.Errorf("%s embedder: %w", role, err)
	}

	res, err := domain.EmbedAll(ctx, emb, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s column: %w", role, err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: %s column got %d embeddings for %d texts",
			domain.ErrEmbeddingProviderError, role, len(res.Embeddings), len(texts))
	}

	out := make([]vector.Vector, len(res.Embeddings))
	for i, e := range res.Embeddings {
		out[i] = e
	}
	return out, nil
}
