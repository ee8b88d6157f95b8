package reteval

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	topK    []int
	workers int

	driver         string // "", "memory", "valkey" or "redis"
	addrs          []string
	password       string
	memoryCapacity int
	keyPrefix      string
	reportTTL      time.Duration

	outputDir   string
	summaryFile string

	instructionEmbedder Embedder
	inputEmbedder       Embedder
	instructionPrefix   string
	inputPrefix         string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithTopK sets the reported cutoffs. Defaults to 1 and 5.
func WithTopK(ks ...int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = append([]int(nil), ks...)
	})
}

// WithWorkers parallelizes similarity and ranking over n goroutines.
// Default: 1 (sequential). Results do not depend on n.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithValkey persists reports to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis persists reports to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemoryStore keeps reports in an in-process LRU of the given capacity.
func WithMemoryStore(capacity int) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.memoryCapacity = capacity
	})
}

// WithKeyPrefix namespaces stored reports. Default: "reteval:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithReportTTL expires stored reports. Default: keep forever.
func WithReportTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.reportTTL = ttl
	})
}

// WithOutputDir writes every report as JSON into dir, plus a summary file
// holding the latest run.
func WithOutputDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.outputDir = dir
	})
}

// WithEmbedders sets the embedders used by EvaluatePairs.
func WithEmbedders(instruction, input Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.instructionEmbedder = instruction
		c.inputEmbedder = input
	})
}

// WithPrefixes overrides the text prepended before embedding.
// Defaults: "Instruct: " and "Persona: ". Empty strings disable a prefix.
func WithPrefixes(instruction, input string) Option {
	return optionFunc(func(c *clientConfig) {
		c.instructionPrefix = instruction
		c.inputPrefix = input
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
