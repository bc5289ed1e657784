package pgengine

import (
	"github.com/lobsterload/lobsterload/workload"
)

const defaultVariantName = "original"

type engineConfig struct {
	variantName string
	logger      workload.Logger
	metrics     workload.MetricsCollector
}

// Option defines a functional option for configuring an Engine.
type Option func(*engineConfig) error

// WithVariant selects the query variant by name. The default is
// "original"; an unregistered name fails engine construction.
func WithVariant(name string) Option {
	return func(cfg *engineConfig) error {
		cfg.variantName = name
		return nil
	}
}

// WithLogger sets the logger for the engine and its handlers.
//
// Debug level: per-request completions and SQL-adjacent tracing
// Warn level: non-fatal data oddities (e.g. a dangling parent comment)
// Error level: request failures.
func WithLogger(logger workload.Logger) Option {
	return func(cfg *engineConfig) error {
		cfg.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector. It receives per-request
// durations and outcome counters labeled by page kind and variant.
func WithMetrics(collector workload.MetricsCollector) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = collector
		return nil
	}
}
