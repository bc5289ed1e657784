package adapters

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lobsterload/lobsterload/workload"
)

// PGXPool implements Pool on top of a pgxpool.Pool.
type PGXPool struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
}

// NewPGXPool wraps an existing pgx pool. The pool's MaxConns should equal
// the driver's in-flight request limit; the admission gate relies on the
// pool itself to bound concurrent checkouts.
func NewPGXPool(pool *pgxpool.Pool) *PGXPool {
	return &PGXPool{pool: pool}
}

// Acquire checks a connection out of the pool.
func (p *PGXPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		if p.closed.Load() {
			return nil, errors.Join(workload.ErrPoolClosed, err)
		}
		return nil, errors.Join(workload.ErrAcquireFailed, err)
	}

	return &pgxConn{conn: conn}, nil
}

// Close shuts the pool down. Acquire calls racing with Close surface
// workload.ErrPoolClosed.
func (p *PGXPool) Close() {
	p.closed.Store(true)
	p.pool.Close()
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.conn.Exec(ctx, sql, args...)
	return err
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

func (c *pgxConn) Release() {
	c.conn.Release()
}

// pgxRows wraps pgx.Rows to implement the Rows interface.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool {
	return r.rows.Next()
}

func (r *pgxRows) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

// Columns derives the column names from the pgx field descriptions.
func (r *pgxRows) Columns() ([]string, error) {
	fields := r.rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name
	}

	return names, nil
}

func (r *pgxRows) Err() error {
	return r.rows.Err()
}

func (r *pgxRows) Close() error {
	r.rows.Close()
	return nil
}
