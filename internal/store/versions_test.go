package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provermarket/internal/fault"
	"github.com/roach88/provermarket/internal/protocol"
	"github.com/roach88/provermarket/internal/testutil"
)

func TestLatestProtocolVersion_Empty(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)

	_, found, err := sess.LatestProtocolVersion(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpsertProtocolVersion_Inserts(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)
	ctx := context.Background()

	want := testVersion(24, 2, 0x10)
	require.NoError(t, sess.UpsertProtocolVersion(ctx, want))

	got, found, err := sess.LatestProtocolVersion(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want.SemanticVersion, got.SemanticVersion)
	assert.Equal(t, want.Hashes, got.Hashes)
	assert.True(t, got.CreatedAt.Equal(testutil.Epoch), "created_at = %v", got.CreatedAt)
	assert.Equal(t, 1, countRows(t, sess, "protocol_versions"))
}

func TestUpsertProtocolVersion_Converges(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)
	ctx := context.Background()

	for _, seed := range []byte{0x10, 0x20, 0x30} {
		require.NoError(t, sess.UpsertProtocolVersion(ctx, testVersion(24, 2, seed)))
	}

	assert.Equal(t, 1, countRows(t, sess, "protocol_versions"))

	got, found, err := sess.ProtocolVersion(ctx, protocol.SemanticVersion{ID: 24, Patch: 2})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testVersion(24, 2, 0x30).Hashes, got.Hashes, "hashes follow the last write")
	assert.True(t, got.CreatedAt.Equal(testutil.Epoch), "created_at keeps the first write")
}

func TestUpsertProtocolVersion_DistinctPatches(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)
	ctx := context.Background()

	require.NoError(t, sess.UpsertProtocolVersion(ctx, testVersion(24, 1, 0x10)))
	require.NoError(t, sess.UpsertProtocolVersion(ctx, testVersion(24, 2, 0x20)))

	assert.Equal(t, 2, countRows(t, sess, "protocol_versions"))
}

func TestLatestProtocolVersion_PicksMostRecentlyCreated(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)
	ctx := context.Background()

	require.NoError(t, sess.UpsertProtocolVersion(ctx, testVersion(25, 0, 0x10)))
	require.NoError(t, sess.UpsertProtocolVersion(ctx, testVersion(23, 4, 0x20)))

	got, found, err := sess.LatestProtocolVersion(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, protocol.SemanticVersion{ID: 23, Patch: 4}, got.SemanticVersion)
	assert.True(t, got.CreatedAt.Equal(testutil.Epoch.Add(time.Second)))
}

func TestUpsertProtocolVersion_RejectsUnknownID(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)

	err := sess.UpsertProtocolVersion(context.Background(), testVersion(protocol.NextVersionID+1, 0, 0x10))
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
	assert.Equal(t, 0, countRows(t, sess, "protocol_versions"))
}

func TestLatestProtocolVersion_StoredRowOutOfRange(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)
	ctx := context.Background()

	hash := make([]byte, 32)
	_, err := sess.conn.ExecContext(ctx, `
		INSERT INTO protocol_versions VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, 99, 0, hash, hash, hash, hash, testutil.Epoch)
	require.NoError(t, err)

	_, _, err = sess.LatestProtocolVersion(ctx)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestLatestProtocolVersion_StoredHashWrongLength(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)
	ctx := context.Background()

	hash := make([]byte, 32)
	_, err := sess.conn.ExecContext(ctx, `
		INSERT INTO protocol_versions VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, 24, 0, hash, hash, []byte{1, 2}, hash, testutil.Epoch)
	require.NoError(t, err)

	_, _, err = sess.LatestProtocolVersion(ctx)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestProtocolVersions_ListsOldestFirst(t *testing.T) {
	s, _ := createTestStore(t)
	sess := acquireTestSession(t, s)
	ctx := context.Background()

	all, err := sess.ProtocolVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, sess.UpsertProtocolVersion(ctx, testVersion(24, 2, 1)))
	require.NoError(t, sess.UpsertProtocolVersion(ctx, testVersion(23, 0, 5)))

	all, err = sess.ProtocolVersions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, protocol.SemanticVersion{ID: 24, Patch: 2}, all[0].SemanticVersion)
	assert.Equal(t, protocol.SemanticVersion{ID: 23, Patch: 0}, all[1].SemanticVersion)
	assert.True(t, all[0].CreatedAt.Before(all[1].CreatedAt))
}
