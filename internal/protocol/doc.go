// Package protocol models prover protocol versions.
//
// A protocol version is the pair (id, patch). The id is drawn from a closed
// enumeration; values outside it are rejected rather than truncated. Each
// version pins four recursion verification-key hashes.
package protocol
