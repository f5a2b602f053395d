// Package market talks to the batch-proving marketplace server.
//
// The server hands out batch assignments to participants and serves the
// matching witness-input artifacts as static files. Requests are plain GETs
// and are never retried here; a failure aborts the run.
package market
