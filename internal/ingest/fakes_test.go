package ingest

import (
	"context"
	"sync"

	"github.com/roach88/provermarket/internal/protocol"
)

// fakeVersions is an in-memory VersionStore.
type fakeVersions struct {
	mu        sync.Mutex
	rows      []protocol.Version
	latestErr error
	upsertErr error
	upserts   int
}

func (f *fakeVersions) LatestProtocolVersion(context.Context) (protocol.Version, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latestErr != nil {
		return protocol.Version{}, false, f.latestErr
	}
	if len(f.rows) == 0 {
		return protocol.Version{}, false, nil
	}
	return f.rows[len(f.rows)-1], true, nil
}

func (f *fakeVersions) UpsertProtocolVersion(_ context.Context, v protocol.Version) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows = append(f.rows, v)
	return nil
}

// fakeJobs is an in-memory JobStore keyed by batch number.
type fakeJobs struct {
	jobs map[uint64]string
	err  error
}

func (f *fakeJobs) InsertWitnessInputs(_ context.Context, batch uint64, blobURL string, _ protocol.SemanticVersion) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.jobs == nil {
		f.jobs = make(map[uint64]string)
	}
	if _, ok := f.jobs[batch]; ok {
		return false, nil
	}
	f.jobs[batch] = blobURL
	return true, nil
}

func hashOf(b byte) (h [32]byte) {
	for i := range h {
		h[i] = b
	}
	return h
}

func candidateVersion(id protocol.VersionID, patch protocol.VersionPatch, seed byte) protocol.Version {
	return protocol.Version{
		SemanticVersion: protocol.SemanticVersion{ID: id, Patch: patch},
		Hashes: protocol.VKHashes{
			Scheduler:   hashOf(seed),
			Node:        hashOf(seed + 1),
			Leaf:        hashOf(seed + 2),
			CircuitsSet: hashOf(seed + 3),
		},
	}
}
