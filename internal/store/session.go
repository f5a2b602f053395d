package store

import (
	"database/sql"
	"time"
)

// Session is a single checked-out connection. All reads and writes of a
// workflow run go through one Session.
type Session struct {
	conn *sql.Conn
	now  func() time.Time
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
