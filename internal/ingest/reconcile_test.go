package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provermarket/internal/fault"
	"github.com/roach88/provermarket/internal/protocol"
)

func TestReconciler_FoundSkipsCandidate(t *testing.T) {
	stored := candidateVersion(23, 0, 0x10)
	versions := &fakeVersions{rows: []protocol.Version{stored}}
	r := NewReconciler(versions)
	assert.Equal(t, Unresolved, r.State())

	called := false
	res, err := r.Resolve(context.Background(), func(context.Context) (protocol.Version, error) {
		called = true
		return candidateVersion(24, 2, 0x20), nil
	})
	require.NoError(t, err)

	assert.False(t, called, "candidate must not be consulted when a row exists")
	assert.Equal(t, stored.SemanticVersion, res.Version)
	assert.False(t, res.Created)
	assert.Equal(t, 0, versions.upserts)
	assert.Equal(t, Resolved, r.State())

	got, ok := r.Resolution()
	assert.True(t, ok)
	assert.Equal(t, res, got)
}

func TestReconciler_CreatesCandidate(t *testing.T) {
	versions := &fakeVersions{}
	r := NewReconciler(versions)

	cand := candidateVersion(24, 2, 0x20)
	res, err := r.Resolve(context.Background(), StaticCandidate(cand))
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, protocol.SemanticVersion{ID: 24, Patch: 2}, res.Version)
	require.Len(t, versions.rows, 1)
	assert.Equal(t, cand.Hashes, versions.rows[0].Hashes)
}

func TestReconciler_InvalidCandidateWritesNothing(t *testing.T) {
	versions := &fakeVersions{}
	r := NewReconciler(versions)

	_, err := r.Resolve(context.Background(), StaticCandidate(candidateVersion(26, 0, 0x20)))
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
	assert.Equal(t, 0, versions.upserts)
	assert.Equal(t, Unresolved, r.State())

	_, ok := r.Resolution()
	assert.False(t, ok)
}

func TestReconciler_NilCandidate(t *testing.T) {
	r := NewReconciler(&fakeVersions{})
	_, err := r.Resolve(context.Background(), nil)
	assert.True(t, fault.IsKind(err, fault.KindValidation))
}

func TestReconciler_CandidateError(t *testing.T) {
	versions := &fakeVersions{}
	r := NewReconciler(versions)
	boom := fault.New(fault.KindConfig, "bad hash")

	_, err := r.Resolve(context.Background(), func(context.Context) (protocol.Version, error) {
		return protocol.Version{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, versions.upserts)
	assert.Equal(t, Unresolved, r.State())
}

func TestReconciler_StoreErrors(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		versions := &fakeVersions{latestErr: fault.Persistence("query", errors.New("conn reset"))}
		r := NewReconciler(versions)
		_, err := r.Resolve(context.Background(), StaticCandidate(candidateVersion(24, 2, 1)))
		assert.True(t, fault.IsKind(err, fault.KindPersistence))
		assert.Equal(t, Unresolved, r.State())
	})

	t.Run("upsert", func(t *testing.T) {
		versions := &fakeVersions{upsertErr: fault.Persistence("upsert", errors.New("disk full"))}
		r := NewReconciler(versions)
		_, err := r.Resolve(context.Background(), StaticCandidate(candidateVersion(24, 2, 1)))
		assert.True(t, fault.IsKind(err, fault.KindPersistence))
		assert.Equal(t, 1, versions.upserts)
		assert.Equal(t, Unresolved, r.State())
	})
}

func TestReconciler_ResolvesOnce(t *testing.T) {
	versions := &fakeVersions{}
	r := NewReconciler(versions)

	_, err := r.Resolve(context.Background(), StaticCandidate(candidateVersion(24, 2, 1)))
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), StaticCandidate(candidateVersion(25, 0, 9)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.True(t, fault.IsKind(err, fault.KindInternal))
	assert.Equal(t, 1, versions.upserts)

	got, _ := r.Resolution()
	assert.Equal(t, protocol.SemanticVersion{ID: 24, Patch: 2}, got.Version)
}

func TestReconcileState_String(t *testing.T) {
	assert.Equal(t, "unresolved", Unresolved.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "ReconcileState(7)", ReconcileState(7).String())
}
