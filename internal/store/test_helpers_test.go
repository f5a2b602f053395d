package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/provermarket/internal/protocol"
	"github.com/roach88/provermarket/internal/testutil"
)

// createTestStore opens a fresh SQLite prover database with the schema applied.
func createTestStore(t *testing.T) (*Store, *testutil.StepClock) {
	t.Helper()
	clock := testutil.NewStepClock()
	s, err := Open(filepath.Join(t.TempDir(), "prover.db"), WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s, clock
}

// acquireTestSession checks out the store's connection for the rest of the test.
func acquireTestSession(t *testing.T, s *Store) *Session {
	t.Helper()
	sess, err := s.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess
}

// countRows counts rows through the session's connection.
func countRows(t *testing.T, sess *Session, table string) int {
	t.Helper()
	var n int
	err := sess.conn.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}

// testVersion builds a candidate version whose hashes are derived from seed.
func testVersion(id protocol.VersionID, patch protocol.VersionPatch, seed byte) protocol.Version {
	h := func(b byte) (out [32]byte) {
		for i := range out {
			out[i] = b
		}
		return out
	}
	return protocol.Version{
		SemanticVersion: protocol.SemanticVersion{ID: id, Patch: patch},
		Hashes: protocol.VKHashes{
			Scheduler:   h(seed),
			Node:        h(seed + 1),
			Leaf:        h(seed + 2),
			CircuitsSet: h(seed + 3),
		},
	}
}
