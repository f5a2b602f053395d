// Package store is the relational side of witness ingestion.
//
// It reads and writes two tables owned by the prover schema:
//   - protocol_versions: one row per (id, patch), upserted on conflict
//   - witness_input_jobs: one row per L1 batch, insert-or-ignore
//
// and reads proof_compression_jobs for status reporting.
//
// # Dialects
//
// Postgres (github.com/lib/pq) is the production target. SQLite
// (github.com/mattn/go-sqlite3) backs local dry runs and tests. Every statement
// is parameterized with $n placeholders, which both drivers accept; each
// placeholder appears exactly once and in ascending order so SQLite binds them
// positionally.
//
// # Sessions
//
// A workflow run acquires one Session (a single pooled connection) and uses it
// for both reconciliation and registration. The pool is capped at one open
// connection.
//
// The schema is never created against Postgres. EnsureSchema exists only for
// SQLite databases.
package store
