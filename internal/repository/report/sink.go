package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domrep "github.com/kailas-cloud/reteval/internal/domain/report"
)

// Sink matches retrieval.Sink.
type Sink interface {
	Save(ctx context.Context, r domrep.Report) error
}

// FileSink writes the latest report to a summary file and keeps a per-run copy.
type FileSink struct {
	dir     string
	summary string
}

// NewFileSink creates a sink writing into dir. summary is the file name of the latest-run summary.
func NewFileSink(dir, summary string) *FileSink {
	return &FileSink{dir: dir, summary: summary}
}

// SummaryPath returns the full path of the summary file.
func (s *FileSink) SummaryPath() string {
	return filepath.Join(s.dir, s.summary)
}

// Save writes <dir>/<id>.json and then overwrites the summary file.
func (s *FileSink) Save(_ context.Context, r domrep.Report) error {
	data, err := json.MarshalIndent(ToDocument(r), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", r.ID(), err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, r.ID()+".json"), data); err != nil {
		return err
	}
	return writeAtomic(s.SummaryPath(), data)
}

// writeAtomic writes through a temp file so readers never see a partial summary.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".reteval-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error wins
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// MultiSink saves to every sink in order and stops at the first error.
type MultiSink []Sink

// Save implements Sink.
func (m MultiSink) Save(ctx context.Context, r domrep.Report) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, r); err != nil {
			return err //nolint:wrapcheck // sinks wrap their own errors
		}
	}
	return nil
}
