package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/provermarket/internal/witness"
)

// NewInputData returns a small but fully populated witness input for batch.
func NewInputData(batch uint64, protocolVersion uint16) *witness.InputData {
	return &witness.InputData{
		VMRunData: witness.VMRunData{
			L1BatchNumber:          batch,
			ProtocolVersion:        protocolVersion,
			BootloaderCodeHash:     common.HexToHash("0x010008e742608b21bf7eb23c1a9d0602047e3618b464c9b59c0fba3b3d7ab66e"),
			DefaultAccountCodeHash: common.HexToHash("0x01000563374c277a2c1e34659a2a1e87371bb6d852ce142022d497bfb50b9e32"),
			UsedBytecodes: []witness.Bytecode{
				{Hash: common.HexToHash("0xbeef"), Code: []byte{0x00, 0x02, 0x00, 0x00}},
			},
			Trace: []byte("vm-trace"),
		},
		MerklePaths:           []byte{0x01, 0x02, 0x03},
		PreviousBatchRootHash: common.HexToHash("0xfeed"),
		EIP4844Blobs:          [][]byte{{0x0a}},
	}
}

// NewArtifact encodes NewInputData(batch, protocolVersion) into artifact bytes.
func NewArtifact(t testing.TB, batch uint64, protocolVersion uint16) []byte {
	t.Helper()
	data, err := witness.Encode(NewInputData(batch, protocolVersion))
	if err != nil {
		t.Fatalf("encode artifact: %v", err)
	}
	return data
}

// MarketServer is an in-process stand-in for the marketplace server.
//
// It hands every participant the same batch file and serves its bytes.
type MarketServer struct {
	*httptest.Server

	mu           sync.Mutex
	batchFile    string
	requestID    uint32
	artifact     []byte
	participants []string
}

// NewMarketServer starts a server that assigns batchFile and serves artifact.
// The server is closed when the test ends.
func NewMarketServer(t testing.TB, batchFile string, requestID uint32, artifact []byte) *MarketServer {
	t.Helper()
	m := &MarketServer{batchFile: batchFile, requestID: requestID, artifact: artifact}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

// SetArtifact replaces the served artifact.
func (m *MarketServer) SetArtifact(artifact []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifact = artifact
}

// Participants returns the participant ids that asked for a batch.
func (m *MarketServer) Participants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.participants...)
}

func (m *MarketServer) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case r.URL.Path == "/get_batch/":
		m.participants = append(m.participants, r.URL.Query().Get("participant_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"batch_file": m.batchFile,
			"request_id": m.requestID,
		})
	case strings.TrimPrefix(r.URL.Path, "/") == m.batchFile:
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(m.artifact)
	default:
		http.NotFound(w, r)
	}
}
