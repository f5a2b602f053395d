package protocol

import (
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/roach88/provermarket/internal/fault"
)

// VersionID identifies a protocol version (the "minor" of a semantic version).
type VersionID uint16

const (
	MinVersionID VersionID = 0
	// LatestVersionID is the version current provers run.
	LatestVersionID VersionID = 24
	// NextVersionID is the newest id the tool knows about.
	NextVersionID VersionID = 25
)

// Valid reports whether id belongs to the known enumeration.
func (id VersionID) Valid() bool {
	return id <= NextVersionID
}

// ParseVersionID converts a raw integer (as read from config or a database
// column) into a VersionID.
func ParseVersionID(v int64) (VersionID, error) {
	if v < int64(MinVersionID) || v > int64(NextVersionID) {
		return 0, fault.Newf(fault.KindValidation,
			"protocol version %d is not supported (expected %d..%d)", v, MinVersionID, NextVersionID)
	}
	return VersionID(v), nil
}

// VersionPatch is the patch level within a protocol version.
type VersionPatch uint32

// ParseVersionPatch converts a raw integer into a VersionPatch.
func ParseVersionPatch(v int64) (VersionPatch, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fault.Newf(fault.KindValidation, "protocol version patch %d is out of range", v)
	}
	return VersionPatch(v), nil
}

// SemanticVersion is the composite identity of a protocol version row.
type SemanticVersion struct {
	ID    VersionID
	Patch VersionPatch
}

// String renders the version as 0.<id>.<patch>.
func (v SemanticVersion) String() string {
	return fmt.Sprintf("0.%d.%d", v.ID, v.Patch)
}

// VKHashes holds the recursion verification-key hashes pinned by a version.
type VKHashes struct {
	Scheduler   common.Hash
	Node        common.Hash
	Leaf        common.Hash
	CircuitsSet common.Hash
}

// Version is a protocol_versions row.
type Version struct {
	SemanticVersion
	Hashes    VKHashes
	CreatedAt time.Time
}

// Validate checks the identity of a candidate version before it is persisted.
func (v Version) Validate() error {
	if !v.ID.Valid() {
		return fault.Newf(fault.KindValidation,
			"protocol version %d is not supported (expected %d..%d)", v.ID, MinVersionID, NextVersionID)
	}
	return nil
}

// ParseHash decodes a 0x-prefixed 32-byte hex digest.
func ParseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fault.Validation(fmt.Sprintf("invalid hash %q", s), err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fault.Newf(fault.KindValidation,
			"invalid hash %q: expected %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

// HashFromBytes converts a stored digest column back into a hash.
func HashFromBytes(b []byte) (common.Hash, error) {
	if len(b) != common.HashLength {
		return common.Hash{}, fault.Newf(fault.KindValidation,
			"stored hash has %d bytes, expected %d", len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}
