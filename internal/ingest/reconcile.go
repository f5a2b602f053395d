package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/provermarket/internal/fault"
	"github.com/roach88/provermarket/internal/protocol"
)

// VersionStore is the part of a store session the Reconciler needs.
type VersionStore interface {
	LatestProtocolVersion(ctx context.Context) (protocol.Version, bool, error)
	UpsertProtocolVersion(ctx context.Context, v protocol.Version) error
}

// CandidateFunc supplies the protocol version to create when none is stored.
// It is only called on the create path.
type CandidateFunc func(ctx context.Context) (protocol.Version, error)

// ReconcileState is the state of a Reconciler.
type ReconcileState int

const (
	Unresolved ReconcileState = iota
	Resolved
)

func (s ReconcileState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("ReconcileState(%d)", int(s))
	}
}

// ErrAlreadyResolved is returned by Resolve on a Reconciler that has already resolved.
var ErrAlreadyResolved = errors.New("protocol version already resolved")

// Resolution is the outcome of a reconciliation.
type Resolution struct {
	Version protocol.SemanticVersion
	// Created is true when the version row was created by this run.
	Created bool
}

// Reconciler resolves the current protocol version exactly once.
type Reconciler struct {
	store      VersionStore
	state      ReconcileState
	resolution Resolution
}

// NewReconciler returns an Unresolved Reconciler over store.
func NewReconciler(store VersionStore) *Reconciler {
	return &Reconciler{store: store}
}

// State returns the current state.
func (r *Reconciler) State() ReconcileState {
	return r.state
}

// Resolution returns the resolved version. ok is false while Unresolved.
func (r *Reconciler) Resolution() (res Resolution, ok bool) {
	return r.resolution, r.state == Resolved
}

// Resolve moves the Reconciler from Unresolved to Resolved.
//
// If a protocol version row exists, the one with the latest created_at wins and
// candidate is never called. Otherwise candidate is validated and upserted on
// (id, patch). On error the Reconciler stays Unresolved and nothing is written
// unless the upsert itself was attempted.
func (r *Reconciler) Resolve(ctx context.Context, candidate CandidateFunc) (Resolution, error) {
	if r.state == Resolved {
		return Resolution{}, fault.Wrap(fault.KindInternal, "resolve", ErrAlreadyResolved)
	}

	current, found, err := r.store.LatestProtocolVersion(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if found {
		return r.resolve(Resolution{Version: current.SemanticVersion}), nil
	}

	if candidate == nil {
		return Resolution{}, fault.New(fault.KindValidation, "no protocol version stored and no candidate supplied")
	}
	v, err := candidate(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if err := v.Validate(); err != nil {
		return Resolution{}, err
	}
	if err := r.store.UpsertProtocolVersion(ctx, v); err != nil {
		return Resolution{}, err
	}
	return r.resolve(Resolution{Version: v.SemanticVersion, Created: true}), nil
}

func (r *Reconciler) resolve(res Resolution) Resolution {
	r.state = Resolved
	r.resolution = res
	return res
}

// StaticCandidate returns a CandidateFunc that always yields v.
func StaticCandidate(v protocol.Version) CandidateFunc {
	return func(context.Context) (protocol.Version, error) { return v, nil }
}
