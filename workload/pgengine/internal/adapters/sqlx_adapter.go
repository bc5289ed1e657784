package adapters

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/lobsterload/lobsterload/workload"
)

// SQLXPool implements Pool on top of a sqlx.DB (lib/pq driver). It exists
// so the same workload can be replayed through database/sql's pooling and
// prepared-statement behavior instead of pgx's.
type SQLXPool struct {
	db     *sqlx.DB
	closed atomic.Bool
}

// NewSQLXPool wraps an existing sqlx.DB. SetMaxOpenConns on the db should
// equal the driver's in-flight request limit.
func NewSQLXPool(db *sqlx.DB) *SQLXPool {
	return &SQLXPool{db: db}
}

// Acquire checks a dedicated connection out of the database/sql pool.
func (p *SQLXPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		if p.closed.Load() {
			return nil, errors.Join(workload.ErrPoolClosed, err)
		}
		return nil, errors.Join(workload.ErrAcquireFailed, err)
	}

	return &sqlxConn{conn: conn}, nil
}

// Close shuts the pool down.
func (p *SQLXPool) Close() {
	p.closed.Store(true)
	_ = p.db.Close()
}

type sqlxConn struct {
	conn *sqlx.Conn
}

func (c *sqlxConn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.conn.ExecContext(ctx, sql, args...)
	return err
}

func (c *sqlxConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := c.conn.QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return &sqlxRows{rows: rows}, nil
}

func (c *sqlxConn) Release() {
	_ = c.conn.Close()
}

// sqlxRows wraps sqlx.Rows to implement the Rows interface.
type sqlxRows struct {
	rows *sqlx.Rows
}

func (r *sqlxRows) Next() bool {
	return r.rows.Next()
}

func (r *sqlxRows) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

func (r *sqlxRows) Columns() ([]string, error) {
	return r.rows.Columns()
}

func (r *sqlxRows) Err() error {
	return r.rows.Err()
}

func (r *sqlxRows) Close() error {
	return r.rows.Close()
}
