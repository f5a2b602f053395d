package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/provermarket/internal/fault"
	"github.com/roach88/provermarket/internal/protocol"
)

const selectVersionColumns = `
	SELECT id, patch,
		recursion_scheduler_vk_hash, recursion_node_vk_hash,
		recursion_leaf_vk_hash, recursion_circuits_set_vk_hash,
		created_at
	FROM protocol_versions`

// LatestProtocolVersion returns the protocol version row with the most recent
// created_at. found is false when the table is empty.
func (s *Session) LatestProtocolVersion(ctx context.Context) (v protocol.Version, found bool, err error) {
	row := s.conn.QueryRowContext(ctx, selectVersionColumns+`
		ORDER BY created_at DESC
		LIMIT 1
	`)
	return scanVersion(row)
}

// ProtocolVersion returns the row for one (id, patch).
func (s *Session) ProtocolVersion(ctx context.Context, sv protocol.SemanticVersion) (v protocol.Version, found bool, err error) {
	row := s.conn.QueryRowContext(ctx, selectVersionColumns+`
		WHERE id = $1 AND patch = $2
	`, int64(sv.ID), int64(sv.Patch))
	return scanVersion(row)
}

// UpsertProtocolVersion inserts v, or refreshes the four verification-key
// hashes of an existing (id, patch) row. Identity and created_at of an
// existing row are never changed.
func (s *Session) UpsertProtocolVersion(ctx context.Context, v protocol.Version) error {
	if err := v.Validate(); err != nil {
		return err
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO protocol_versions
		(id, patch, recursion_scheduler_vk_hash, recursion_node_vk_hash,
		 recursion_leaf_vk_hash, recursion_circuits_set_vk_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id, patch) DO UPDATE SET
			recursion_scheduler_vk_hash = excluded.recursion_scheduler_vk_hash,
			recursion_node_vk_hash = excluded.recursion_node_vk_hash,
			recursion_leaf_vk_hash = excluded.recursion_leaf_vk_hash,
			recursion_circuits_set_vk_hash = excluded.recursion_circuits_set_vk_hash
	`,
		int64(v.ID),
		int64(v.Patch),
		v.Hashes.Scheduler.Bytes(),
		v.Hashes.Node.Bytes(),
		v.Hashes.Leaf.Bytes(),
		v.Hashes.CircuitsSet.Bytes(),
		s.now(),
	)
	if err != nil {
		return fault.Persistence("upsert protocol version", err)
	}
	return nil
}

// ProtocolVersions lists every protocol version row, oldest first.
func (s *Session) ProtocolVersions(ctx context.Context) ([]protocol.Version, error) {
	rows, err := s.conn.QueryContext(ctx, selectVersionColumns+`
		ORDER BY created_at ASC, id ASC, patch ASC
	`)
	if err != nil {
		return nil, fault.Persistence("list protocol versions", err)
	}
	defer rows.Close()

	var out []protocol.Version
	for rows.Next() {
		v, _, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Persistence("list protocol versions", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (protocol.Version, bool, error) {
	var (
		id, patch                          int64
		scheduler, node, leaf, circuitsSet []byte
		createdAt                          time.Time
	)
	err := row.Scan(&id, &patch, &scheduler, &node, &leaf, &circuitsSet, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return protocol.Version{}, false, nil
	}
	if err != nil {
		return protocol.Version{}, false, fault.Persistence("read protocol version", err)
	}

	var v protocol.Version
	if v.ID, err = protocol.ParseVersionID(id); err != nil {
		return protocol.Version{}, false, err
	}
	if v.Patch, err = protocol.ParseVersionPatch(patch); err != nil {
		return protocol.Version{}, false, err
	}
	for _, h := range []struct {
		dst *common.Hash
		src []byte
	}{
		{&v.Hashes.Scheduler, scheduler},
		{&v.Hashes.Node, node},
		{&v.Hashes.Leaf, leaf},
		{&v.Hashes.CircuitsSet, circuitsSet},
	} {
		hash, err := protocol.HashFromBytes(h.src)
		if err != nil {
			return protocol.Version{}, false, err
		}
		*h.dst = hash
	}
	v.CreatedAt = createdAt
	return v, true, nil
}
