// Package pgengine replays a Lobsters-style page workload against a
// Postgres backend for benchmarking purposes.
//
// The package has four moving parts:
//
//   - Bootstrap drops and recreates the target database and applies one
//     variant's schema asset on a dedicated connection, once, before any
//     traffic.
//   - Admission is a per-worker, non-blocking gate over the bounded
//     connection pool: poll TryAdmit until Ready, then consume the held
//     connection with TakeConn.
//   - Engine.Execute routes one request to the active variant's page
//     handler on that connection and conditionally follows up with the
//     notifications fetch.
//   - A Variant is a complete, interchangeable handler set ("original"
//     or "noria") over possibly different table shapes.
//
// The handlers reproduce the emulated application's query sequences
// exactly, including reads whose results are unused and write-path
// inconsistencies such as unchecked duplicate votes. The goal is
// repeatable workload fidelity, not application correctness.
package pgengine
