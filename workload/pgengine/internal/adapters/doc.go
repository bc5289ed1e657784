// Package adapters provides the connection-pool client abstraction the
// engine replays traffic through, with implementations for pgxpool and for
// sqlx over database/sql (lib/pq). Handlers only ever see the Pool, Conn
// and Rows interfaces, so the two drivers are interchangeable per run.
package adapters
