// Package handlertest provides in-memory fakes for the adapter
// interfaces. Tests script the rows individual queries return and
// assert on the SQL the handlers executed.
package handlertest

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
)

// Result is the scripted outcome of one query.
type Result struct {
	Cols []string
	Rows [][]any
}

// Row builds a single-row result over the given columns.
func Row(cols []string, values ...any) Result {
	return Result{Cols: cols, Rows: [][]any{values}}
}

// Call is one executed statement.
type Call struct {
	SQL  string
	Args []any
}

type script struct {
	match  string
	result Result
}

// Conn is a fake adapters.Conn. Queries are answered by the first
// script whose match string is a substring of the SQL; unscripted
// queries return an empty result. All statements are recorded in order.
// Statement execution is single-threaded, but Release may be observed
// from another goroutine, so its counter is atomic.
type Conn struct {
	Calls []Call

	ExecErr  error
	QueryErr error

	released atomic.Int32
	scripts  []script
}

// NewConn creates an empty fake connection.
func NewConn() *Conn {
	return &Conn{}
}

// Script registers a result for queries containing match. Scripts are
// consulted in registration order.
func (c *Conn) Script(match string, result Result) *Conn {
	c.scripts = append(c.scripts, script{match: match, result: result})
	return c
}

// SQL returns every executed statement in order.
func (c *Conn) SQL() []string {
	out := make([]string, len(c.Calls))
	for i, call := range c.Calls {
		out[i] = call.SQL
	}
	return out
}

// Contains reports whether any executed statement contains the fragment.
func (c *Conn) Contains(fragment string) bool {
	for _, call := range c.Calls {
		if strings.Contains(call.SQL, fragment) {
			return true
		}
	}
	return false
}

func (c *Conn) Exec(_ context.Context, sql string, args ...any) error {
	c.Calls = append(c.Calls, Call{SQL: sql, Args: args})
	return c.ExecErr
}

func (c *Conn) Query(_ context.Context, sql string, args ...any) (adapters.Rows, error) {
	c.Calls = append(c.Calls, Call{SQL: sql, Args: args})
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}

	for _, s := range c.scripts {
		if strings.Contains(sql, s.match) {
			return &rows{result: s.result}, nil
		}
	}

	return &rows{}, nil
}

func (c *Conn) Release() {
	c.released.Add(1)
}

// Released reports how many times the connection went back to the pool.
func (c *Conn) Released() int {
	return int(c.released.Load())
}

type rows struct {
	result Result
	cursor int
}

func (r *rows) Next() bool {
	if r.cursor >= len(r.result.Rows) {
		return false
	}
	r.cursor++
	return true
}

func (r *rows) Scan(dest ...any) error {
	row := r.result.Rows[r.cursor-1]
	for i, d := range dest {
		if i < len(row) {
			*(d.(*any)) = row[i]
		}
	}
	return nil
}

func (r *rows) Columns() ([]string, error) {
	return r.result.Cols, nil
}

func (r *rows) Err() error { return nil }

func (r *rows) Close() error { return nil }

// Pool is a fake adapters.Pool driven by a caller-supplied acquire
// function.
type Pool struct {
	AcquireFn func(ctx context.Context) (adapters.Conn, error)
	Closed    bool
}

func (p *Pool) Acquire(ctx context.Context) (adapters.Conn, error) {
	return p.AcquireFn(ctx)
}

func (p *Pool) Close() {
	p.Closed = true
}

var (
	_ adapters.Conn = (*Conn)(nil)
	_ adapters.Pool = (*Pool)(nil)
)
