package ingest

import (
	"context"

	"github.com/roach88/provermarket/internal/protocol"
)

// JobStore is the part of a store session the Registrar needs.
type JobStore interface {
	InsertWitnessInputs(ctx context.Context, batchNumber uint64, blobURL string, v protocol.SemanticVersion) (bool, error)
}

// Registrar queues witness-input jobs.
type Registrar struct {
	store JobStore
}

// NewRegistrar returns a Registrar over store.
func NewRegistrar(store JobStore) *Registrar {
	return &Registrar{store: store}
}

// Register queues batchNumber with status queued. If the batch is already
// queued the call succeeds without touching the row; inserted reports which
// case happened.
func (r *Registrar) Register(ctx context.Context, batchNumber uint64, blobURL string, v protocol.SemanticVersion) (inserted bool, err error) {
	return r.store.InsertWitnessInputs(ctx, batchNumber, blobURL, v)
}
