package witness

import "github.com/ethereum/go-ethereum/common"

// InputData is the decoded payload of a witness-input artifact.
// It is treated as immutable once decoded.
type InputData struct {
	VMRunData             VMRunData
	MerklePaths           []byte
	PreviousBatchRootHash common.Hash
	EIP4844Blobs          [][]byte
}

// VMRunData is the VM execution side of the witness input.
type VMRunData struct {
	L1BatchNumber          uint64
	ProtocolVersion        uint16
	BootloaderCodeHash     common.Hash
	DefaultAccountCodeHash common.Hash
	UsedBytecodes          []Bytecode
	Trace                  []byte
}

// Bytecode is a contract bytecode referenced by the batch.
type Bytecode struct {
	Hash common.Hash
	Code []byte
}

// L1BatchNumber returns the batch the artifact belongs to.
func (d *InputData) L1BatchNumber() uint64 {
	return d.VMRunData.L1BatchNumber
}
