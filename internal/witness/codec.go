package witness

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/roach88/provermarket/internal/fault"
)

// EnvelopeVersion is the only envelope layout this package understands.
const EnvelopeVersion byte = 1

var magic = []byte("ZKWI")

const headerLen = 5

// Decode parses an artifact. It is a pure function of data.
func Decode(data []byte) (*InputData, error) {
	if len(data) < headerLen {
		return nil, fault.Newf(fault.KindDecode, "artifact truncated: %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(magic)], magic) {
		return nil, fault.Newf(fault.KindDecode, "artifact has bad magic %x", data[:len(magic)])
	}
	if v := data[len(magic)]; v != EnvelopeVersion {
		return nil, fault.Newf(fault.KindDecode, "unsupported envelope version %d", v)
	}

	var out InputData
	if err := rlp.DecodeBytes(data[headerLen:], &out); err != nil {
		return nil, fault.Decode("decode witness payload", err)
	}
	return &out, nil
}

// Encode produces the artifact bytes for d.
func Encode(d *InputData) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(d)
	if err != nil {
		return nil, fmt.Errorf("encode witness payload: %w", err)
	}
	out := make([]byte, 0, headerLen+len(payload))
	out = append(out, magic...)
	out = append(out, EnvelopeVersion)
	return append(out, payload...), nil
}
