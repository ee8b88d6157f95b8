package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultCheckTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedders map[string]EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service backed by the report store.
func New(db DBPinger) *Service {
	return &Service{
		db:        db,
		embedders: make(map[string]EmbeddingChecker),
		timeout:   defaultCheckTimeout,
	}
}

// WithEmbedder registers a named embedding provider check ("instruction", "input").
// A nil checker is ignored.
func (s *Service) WithEmbedder(name string, c EmbeddingChecker) *Service {
	if c != nil {
		s.embedders[name] = c
	}
	return s
}

// WithTimeout bounds each individual check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	type probe struct {
		name string
		fn   func(context.Context) error
	}
	probes := []probe{{name: "database", fn: s.db.Ping}}

	names := make([]string, 0, len(s.embedders))
	for n := range s.embedders {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		probes = append(probes, probe{name: "embedding_" + n, fn: s.embedders[n].HealthCheck})
	}

	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]CheckResult, len(probes))
	)
	for _, p := range probes {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := p.fn(cctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[p.name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // probes record failures instead of returning them

	return Report{Status: aggregate(checks), Checks: checks}
}

func aggregate(checks map[string]CheckResult) Status {
	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}
	switch {
	case failed == 0:
		return Healthy
	case failed == len(checks):
		return Unhealthy
	default:
		return Degraded
	}
}
