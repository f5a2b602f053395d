package ingest

import (
	"context"
	"log/slog"

	"github.com/roach88/provermarket/internal/blob"
	"github.com/roach88/provermarket/internal/fault"
	"github.com/roach88/provermarket/internal/market"
	"github.com/roach88/provermarket/internal/protocol"
	"github.com/roach88/provermarket/internal/witness"
)

// Source fetches assignments and artifacts from the marketplace.
type Source interface {
	FetchBatchAssignment(ctx context.Context, participantID string) (market.BatchAssignment, error)
	FetchArtifact(ctx context.Context, a market.BatchAssignment) ([]byte, error)
}

// BlobWriter persists artifact bytes for a batch.
type BlobWriter interface {
	Write(ctx context.Context, batchNumber uint64, data []byte) (blob.Blob, error)
}

// CandidateSource supplies the protocol version to create when the database
// has none. artifactVersion is the protocol version the artifact was produced
// under, offered as a hint.
type CandidateSource interface {
	Candidate(ctx context.Context, artifactVersion uint16) (protocol.Version, error)
}

// CandidateSourceFunc adapts a function to CandidateSource.
type CandidateSourceFunc func(ctx context.Context, artifactVersion uint16) (protocol.Version, error)

// Candidate implements CandidateSource.
func (f CandidateSourceFunc) Candidate(ctx context.Context, artifactVersion uint16) (protocol.Version, error) {
	return f(ctx, artifactVersion)
}

// Result describes a completed run.
type Result struct {
	RunID           string `json:"run_id"`
	RequestID       uint32 `json:"request_id"`
	BatchFile       string `json:"batch_file"`
	L1BatchNumber   uint64 `json:"l1_batch_number"`
	BlobURL         string `json:"blob_url"`
	BlobPath        string `json:"blob_path"`
	BlobCID         string `json:"blob_cid"`
	BlobSize        int64  `json:"blob_size"`
	ProtocolVersion string `json:"protocol_version"`
	VersionCreated  bool   `json:"version_created"`
	JobInserted     bool   `json:"job_inserted"`
}

// Workflow wires the ingestion stages together.
type Workflow struct {
	Source     Source
	Blobs      BlobWriter
	DB         Connector
	Candidates CandidateSource

	// RunIDs defaults to UUIDv7Generator.
	RunIDs RunIDGenerator
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Run ingests the next batch assigned to participantID.
func (w *Workflow) Run(ctx context.Context, participantID string) (res *Result, err error) {
	gen := w.RunIDs
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}

	res = &Result{RunID: gen.Generate()}
	log = log.With("run_id", res.RunID)

	if participantID == "" {
		return nil, fault.InStage(fault.StageFetch, fault.New(fault.KindConfig, "participant id is required"))
	}

	log.Info("getting batch data from the server", "stage", fault.StageFetch, "participant_id", participantID)
	assignment, err := w.Source.FetchBatchAssignment(ctx, participantID)
	if err != nil {
		return nil, fault.InStage(fault.StageFetch, err)
	}
	res.RequestID = assignment.RequestID
	res.BatchFile = assignment.BatchFile
	log.Info("batch data received", "batch_file", assignment.BatchFile, "request_id", assignment.RequestID)

	log.Info("downloading witness input data", "stage", fault.StageDownload)
	raw, err := w.Source.FetchArtifact(ctx, assignment)
	if err != nil {
		return nil, fault.InStage(fault.StageDownload, err)
	}
	log.Debug("witness input data downloaded", "bytes", len(raw))

	data, err := witness.Decode(raw)
	if err != nil {
		return nil, fault.InStage(fault.StageDecode, err)
	}
	res.L1BatchNumber = data.L1BatchNumber()
	log.Info("witness input data decoded", "stage", fault.StageDecode,
		"l1_batch_number", res.L1BatchNumber,
		"artifact_protocol_version", data.VMRunData.ProtocolVersion)

	b, err := w.Blobs.Write(ctx, res.L1BatchNumber, raw)
	if err != nil {
		return nil, fault.InStage(fault.StageWrite, err)
	}
	res.BlobURL, res.BlobPath, res.BlobCID, res.BlobSize = b.URL, b.Path, b.CID, b.Size
	log.Info("witness input data written", "stage", fault.StageWrite, "path", b.Path, "cid", b.CID)

	sess, err := w.DB.Connect(ctx)
	if err != nil {
		return nil, fault.InStage(fault.StageConnect, err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Error("error closing database session", "error", closeErr)
		}
	}()
	log.Debug("prover database connection established", "stage", fault.StageConnect)

	reconciler := NewReconciler(sess)
	resolution, err := reconciler.Resolve(ctx, func(ctx context.Context) (protocol.Version, error) {
		log.Warn("no protocol version found in prover database")
		return w.Candidates.Candidate(ctx, data.VMRunData.ProtocolVersion)
	})
	if err != nil {
		return nil, fault.InStage(fault.StageReconcile, err)
	}
	res.ProtocolVersion = resolution.Version.String()
	res.VersionCreated = resolution.Created
	if resolution.Created {
		log.Info("prover protocol version saved", "stage", fault.StageReconcile, "version", resolution.Version)
	} else {
		log.Info("prover protocol version found", "stage", fault.StageReconcile, "version", resolution.Version)
	}
	if uint16(resolution.Version.ID) != data.VMRunData.ProtocolVersion {
		log.Warn("artifact was produced under a different protocol version",
			"database_version", resolution.Version.ID,
			"artifact_version", data.VMRunData.ProtocolVersion)
	}

	inserted, err := NewRegistrar(sess).Register(ctx, res.L1BatchNumber, b.URL, resolution.Version)
	if err != nil {
		return nil, fault.InStage(fault.StageRegister, err)
	}
	res.JobInserted = inserted
	if inserted {
		log.Info("witness inputs queued", "stage", fault.StageRegister, "l1_batch_number", res.L1BatchNumber)
	} else {
		log.Info("witness inputs already queued, left untouched", "stage", fault.StageRegister, "l1_batch_number", res.L1BatchNumber)
	}

	return res, nil
}
