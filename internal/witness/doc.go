// Package witness decodes witness-input artifacts.
//
// An artifact is a fixed envelope: the four magic bytes "ZKWI", a one-byte
// envelope version, then the RLP encoding of InputData. Decoding is the only
// validation performed on an artifact; the VM trace itself stays opaque.
package witness
