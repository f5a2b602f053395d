package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/roach88/provermarket/internal/fault"
	"github.com/roach88/provermarket/internal/protocol"
)

// WitnessInputJob is a witness_input_jobs row.
type WitnessInputJob struct {
	L1BatchNumber uint64
	BlobURL       string
	Version       protocol.SemanticVersion
	Status        WitnessJobStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// batchParam converts a batch number to the signed bigint the column holds.
func batchParam(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fault.Newf(fault.KindValidation, "l1 batch number %d does not fit the database column", n)
	}
	return int64(n), nil
}

// InsertWitnessInputs queues a witness job for a batch.
//
// Uses ON CONFLICT (l1_batch_number) DO NOTHING: the first writer wins and a
// repeat insert is a silent no-op. inserted reports whether this call created
// the row.
func (s *Session) InsertWitnessInputs(ctx context.Context, batchNumber uint64, blobURL string, v protocol.SemanticVersion) (inserted bool, err error) {
	batch, err := batchParam(batchNumber)
	if err != nil {
		return false, err
	}
	now := s.now()
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO witness_input_jobs
		(l1_batch_number, witness_inputs_blob_url, protocol_version_id,
		 protocol_version_patch, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (l1_batch_number) DO NOTHING
	`,
		batch,
		blobURL,
		int64(v.ID),
		int64(v.Patch),
		string(WitnessJobQueued),
		now,
		now,
	)
	if err != nil {
		return false, fault.Persistence("insert witness inputs", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fault.Persistence("insert witness inputs: rows affected", err)
	}
	return n > 0, nil
}

const selectJobColumns = `
	SELECT l1_batch_number, witness_inputs_blob_url, protocol_version_id,
		protocol_version_patch, status, created_at, updated_at
	FROM witness_input_jobs`

// WitnessInputJob reads the job row for a batch. found is false if none exists.
func (s *Session) WitnessInputJob(ctx context.Context, batchNumber uint64) (job WitnessInputJob, found bool, err error) {
	batch, err := batchParam(batchNumber)
	if err != nil {
		return WitnessInputJob{}, false, err
	}
	row := s.conn.QueryRowContext(ctx, selectJobColumns+`
		WHERE l1_batch_number = $1
	`, batch)
	return scanJob(row)
}

// WitnessInputJobs lists every witness job ordered by batch number.
func (s *Session) WitnessInputJobs(ctx context.Context) ([]WitnessInputJob, error) {
	rows, err := s.conn.QueryContext(ctx, selectJobColumns+`
		ORDER BY l1_batch_number ASC
	`)
	if err != nil {
		return nil, fault.Persistence("list witness jobs", err)
	}
	defer rows.Close()

	var out []WitnessInputJob
	for rows.Next() {
		job, _, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Persistence("list witness jobs", err)
	}
	return out, nil
}

func scanJob(row rowScanner) (WitnessInputJob, bool, error) {
	var (
		job              WitnessInputJob
		batch, id, patch int64
		blobURL, status  string
	)
	err := row.Scan(&batch, &blobURL, &id, &patch, &status, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return WitnessInputJob{}, false, nil
	}
	if err != nil {
		return WitnessInputJob{}, false, fault.Persistence("read witness job", err)
	}

	if batch < 0 {
		return WitnessInputJob{}, false, fault.Newf(fault.KindValidation, "stored l1 batch number %d is negative", batch)
	}
	job.L1BatchNumber = uint64(batch)
	job.BlobURL = blobURL
	if job.Version.ID, err = protocol.ParseVersionID(id); err != nil {
		return WitnessInputJob{}, false, err
	}
	if job.Version.Patch, err = protocol.ParseVersionPatch(patch); err != nil {
		return WitnessInputJob{}, false, err
	}
	if job.Status, err = ParseWitnessJobStatus(status); err != nil {
		return WitnessInputJob{}, false, err
	}
	return job, true, nil
}

// WitnessJobStatus reads only the status of a batch's witness job.
func (s *Session) WitnessJobStatus(ctx context.Context, batchNumber uint64) (status WitnessJobStatus, found bool, err error) {
	job, found, err := s.WitnessInputJob(ctx, batchNumber)
	if err != nil || !found {
		return "", found, err
	}
	return job.Status, true, nil
}

// CompressionJobStatus reads the proof compression status of a batch.
func (s *Session) CompressionJobStatus(ctx context.Context, batchNumber uint64) (status CompressionJobStatus, found bool, err error) {
	batch, err := batchParam(batchNumber)
	if err != nil {
		return "", false, err
	}

	var raw string
	err = s.conn.QueryRowContext(ctx, `
		SELECT status
		FROM proof_compression_jobs
		WHERE l1_batch_number = $1
	`, batch).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fault.Persistence("read compression job", err)
	}
	if status, err = ParseCompressionJobStatus(raw); err != nil {
		return "", false, err
	}
	return status, true, nil
}
