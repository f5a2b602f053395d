// Package blob persists raw witness-input artifacts on the local filesystem.
//
// Each batch maps to exactly one file, witness_inputs_<batch>.bin, so a re-run
// for the same batch overwrites rather than accumulates. Writes go through a
// temporary file in the same directory and a rename, so a reader never sees a
// partially written artifact under the final name.
package blob
