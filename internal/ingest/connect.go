package ingest

import (
	"context"
	"errors"

	"github.com/roach88/provermarket/internal/store"
)

// Session is the database session a run reconciles and registers through.
type Session interface {
	VersionStore
	JobStore
	Close() error
}

// Connector opens the run's database session.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// StoreConnector opens a store from a database URL and acquires its single
// connection. Closing the returned Session closes the store as well.
type StoreConnector struct {
	DSN     string
	Options []store.Option
}

// Connect implements Connector.
func (c StoreConnector) Connect(ctx context.Context) (Session, error) {
	st, err := store.Open(c.DSN, c.Options...)
	if err != nil {
		return nil, err
	}
	sess, err := st.Acquire(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &storeSession{Session: sess, st: st}, nil
}

type storeSession struct {
	*store.Session
	st *store.Store
}

func (s *storeSession) Close() error {
	return errors.Join(s.Session.Close(), s.st.Close())
}
