// Package ingest runs the protocol-version-aware witness ingestion workflow.
//
// A run is one linear pipeline:
//
//	fetch -> download -> decode -> write -> connect -> reconcile -> register
//
// Each stage needs the previous stage's output, so nothing overlaps. Every
// error is fatal to the run and comes back as a *fault.Error stamped with the
// stage that failed.
//
// # Reconciliation
//
// The Reconciler resolves the protocol version a job is registered under. It
// reads the most recently created protocol_versions row; only when the table is
// empty does it ask for a candidate and upsert it. A Reconciler resolves once.
//
// # Registration
//
// The Registrar inserts the witness_input_jobs row with ON CONFLICT DO NOTHING,
// so concurrent runs for the same batch converge on one row and the first
// writer's values. Both steps share the run's single database session.
//
// Retrying a failed run means running it again: the blob write overwrites, the
// version upsert converges and the job insert is a no-op once it has happened.
package ingest
