package adapters

import "context"

// Pool is the bounded connection pool the engine drives traffic through.
// Acquire blocks until a connection is free, the context is done, or the
// pool is closed; closed-pool failures satisfy errors.Is with
// workload.ErrPoolClosed so the router can treat them as benign shutdown.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Close()
}

// Conn is a single checked-out connection. A page handler runs its whole
// query sequence on one Conn; Release returns it to the pool.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Release()
}

// Rows is the result of a query. Columns exposes the result's column names
// so callers can read wide SELECT ... * results by name.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}
