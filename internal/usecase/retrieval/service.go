package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reteval/internal/domain/report"
	"github.com/kailas-cloud/reteval/internal/domain/vector"
	logpkg "github.com/kailas-cloud/reteval/internal/logger"
)

// Service runs similarity → ranking → aggregation and hands the report to a sink.
// It holds no state between calls.
type Service struct {
	sink     Sink
	recorder Recorder
	topK     []int
	workers  int
	now      func() time.Time
	newID    func() string
}

// New creates an evaluation service. sink may be nil to skip persistence.
func New(sink Sink) *Service {
	return &Service{
		sink:    sink,
		topK:    DefaultTopK,
		workers: 1,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithTopK sets the reported cutoffs. Validation happens in Evaluate.
func (s *Service) WithTopK(ks ...int) *Service {
	if len(ks) > 0 {
		s.topK = append([]int(nil), ks...)
	}
	return s
}

// WithWorkers sets the number of goroutines used per evaluation (1 = sequential).
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// WithClock overrides the report timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithIDFunc overrides report ID generation.
func (s *Service) WithIDFunc(fn func() string) *Service {
	s.newID = fn
	return s
}

// TopK returns the configured cutoffs.
func (s *Service) TopK() []int { return append([]int(nil), s.topK...) }

// Evaluate ranks every input against every instruction and reports Top-K accuracy and MRR.
// Instruction i is paired with input i. On error no report is produced or saved.
func (s *Service) Evaluate(
	ctx context.Context, instr, input vector.Batch, meta report.Metadata,
) (report.Report, error) {
	start := time.Now()

	rep, err := s.evaluate(instr, input, meta)
	if err != nil {
		s.fail(meta, err)
		return report.Report{}, err
	}

	if s.sink != nil {
		if err := s.sink.Save(ctx, rep); err != nil {
			err = fmt.Errorf("save report: %w", err)
			s.fail(meta, err)
			return report.Report{}, err
		}
	}

	duration := time.Since(start)
	if s.recorder != nil {
		s.recorder.RecordSuccess(rep, duration)
	}

	top1, _ := rep.Accuracy(1)
	logpkg.FromContext(ctx).Info("Retrieval evaluation completed",
		zap.String("report_id", rep.ID()),
		zap.String("instruction_model", meta.InstructionModel),
		zap.String("input_model", meta.InputModel),
		zap.String("dataset", meta.Dataset),
		zap.Int("queries", rep.Queries()),
		zap.Float64("top_1_accuracy", top1),
		zap.Float64("mrr", rep.MRR()),
		zap.Duration("duration", duration),
	)

	return rep, nil
}

func (s *Service) evaluate(instr, input vector.Batch, meta report.Metadata) (report.Report, error) {
	m, err := similarity(instr, input, s.workers)
	if err != nil {
		return report.Report{}, fmt.Errorf("similarity: %w", err)
	}

	agg, err := Aggregate(rankRows(m, s.workers), s.topK)
	if err != nil {
		return report.Report{}, fmt.Errorf("aggregate: %w", err)
	}

	return report.New(s.newID(), s.now(), agg.Queries, agg.TopK, agg.MRR, meta), nil
}

func (s *Service) fail(meta report.Metadata, err error) {
	if s.recorder != nil {
		s.recorder.RecordFailure(meta, err)
	}
}
