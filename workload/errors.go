package workload

import "errors"

var (
	// ErrUnknownVariant is returned when the configured query variant has
	// no registered implementation. This is a startup configuration
	// fault, never a runtime one.
	ErrUnknownVariant = errors.New("unknown query variant")

	// ErrNilPool is returned by engine constructors when no database
	// pool is supplied.
	ErrNilPool = errors.New("nil database pool supplied")

	// ErrPoolClosed marks checkout or query failures caused by the pool
	// being shut down while requests were still in flight. The router
	// downgrades it to a benign outcome during shutdown.
	ErrPoolClosed = errors.New("connection pool is closed")

	// ErrAcquireFailed wraps a failed asynchronous connection checkout.
	ErrAcquireFailed = errors.New("connection checkout failed")

	// ErrBootstrapFailed wraps any failure while dropping, creating or
	// populating the target database schema. Partial application is
	// fatal to the run.
	ErrBootstrapFailed = errors.New("schema bootstrap failed")

	// ErrEmptyDDL is returned when a variant's schema asset contains no
	// executable statements.
	ErrEmptyDDL = errors.New("schema asset contains no statements")
)
