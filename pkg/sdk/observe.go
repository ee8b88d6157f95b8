package reteval

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	queries    prometheus.Counter
	accuracy   *prometheus.GaugeVec
	mrr        prometheus.Gauge
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reteval",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reteval",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reteval",
			Subsystem: "sdk",
			Name:      "evaluated_queries_total",
			Help:      "Instruction rows ranked by successful evaluations.",
		}),
		accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "reteval",
			Subsystem: "sdk",
			Name:      "last_top_k_accuracy",
			Help:      "Top-K accuracy of the latest successful evaluation.",
		}, []string{"k"}),
		mrr: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reteval",
			Subsystem: "sdk",
			Name:      "last_mrr",
			Help:      "Mean reciprocal rank of the latest successful evaluation.",
		}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.queries); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.accuracy); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.mrr); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("reteval: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("reteval: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				"op", op,
				"duration", dur,
				"error", err,
			)
		} else {
			o.logger.Debug("operation completed",
				"op", op,
				"duration", dur,
			)
		}
	}
}

// report records the outcome of a successful evaluation.
func (o *observer) report(r Report) {
	if o == nil {
		return
	}

	if o.metrics != nil {
		o.metrics.queries.Add(float64(r.Queries))
		for _, t := range r.TopK {
			o.metrics.accuracy.WithLabelValues(strconv.Itoa(t.K)).Set(t.Accuracy)
		}
		o.metrics.mrr.Set(r.MRR)
	}

	if o.logger != nil {
		attrs := []any{
			"report_id", r.ID,
			"queries", r.Queries,
			"mrr", r.MRR,
			"instruction_model", r.Model.InstructionModel,
			"input_model", r.Model.InputModel,
		}
		for _, t := range r.TopK {
			attrs = append(attrs, "top_"+strconv.Itoa(t.K)+"_accuracy", t.Accuracy)
		}
		o.logger.Info("evaluation completed", attrs...)
	}
}
