package workload

import "time"

// Logger interface for SQL tracing, handler warnings, and error reporting.
//
// Debug level: individual SQL statements with timing (development use)
// Info level: per-request completions (production-safe)
// Warn level: non-fatal data oddities, e.g. a missing parent comment
// Error level: request failures.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector interface for request-level performance counters.
// Implementations must be safe for concurrent use by many workers.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
}
