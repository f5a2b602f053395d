package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/provermarket/internal/blob"
	"github.com/roach88/provermarket/internal/config"
	"github.com/roach88/provermarket/internal/fault"
	"github.com/roach88/provermarket/internal/ingest"
	"github.com/roach88/provermarket/internal/market"
	"github.com/roach88/provermarket/internal/protocol"
	"github.com/roach88/provermarket/internal/store"
	"github.com/roach88/provermarket/internal/testutil"
	"github.com/roach88/provermarket/internal/witness"
)

// defaultParticipant is used by runs that do not name one.
const defaultParticipant = "harness"

// Harness is the scenario execution environment.
// It runs scenarios with a deterministic clock and fixed run ids.
type Harness struct {
	dsn     string
	blobDir string
	clock   *testutil.StepClock
	server  *testutil.MarketServer
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh SQLite database, blob directory and marketplace
// server, all removed when t ends.
//
// Execution flow:
// 1. Create the database schema and seed setup rows
// 2. Execute runs in order, checking each expect clause
// 3. Capture the final state and evaluate assertions
func Run(t testing.TB, scenario *Scenario) (*Result, error) {
	t.Helper()

	h := &Harness{
		dsn:     filepath.Join(t.TempDir(), "prover.db"),
		blobDir: t.TempDir(),
		clock:   testutil.NewStepClock(),
		server:  testutil.NewMarketServer(t, "batches/witness.bin", 1, nil),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	ctx := context.Background()

	if err := h.seed(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Runs {
		if err := h.executeRun(ctx, scenario.Name, i, step, result); err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
	}

	if err := h.captureState(ctx, &result.State); err != nil {
		return nil, fmt.Errorf("failed to capture state: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(result.State, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// open returns a store and its session. Closing the returned func releases both.
func (h *Harness) open(ctx context.Context) (*store.Session, func(), error) {
	st, err := store.Open(h.dsn, store.WithClock(h.clock.Now))
	if err != nil {
		return nil, nil, err
	}
	sess, err := st.Acquire(ctx)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return sess, func() {
		sess.Close()
		st.Close()
	}, nil
}

func (h *Harness) seed(ctx context.Context, setup Setup) error {
	st, err := store.Open(h.dsn)
	if err != nil {
		return err
	}
	err = st.EnsureSchema(ctx)
	st.Close()
	if err != nil {
		return err
	}

	sess, done, err := h.open(ctx)
	if err != nil {
		return err
	}
	defer done()

	for i, sv := range setup.Versions {
		id, err := protocol.ParseVersionID(sv.ID)
		if err != nil {
			return fmt.Errorf("setup.versions[%d]: %w", i, err)
		}
		patch, err := protocol.ParseVersionPatch(sv.Patch)
		if err != nil {
			return fmt.Errorf("setup.versions[%d]: %w", i, err)
		}
		v := protocol.Version{
			SemanticVersion: protocol.SemanticVersion{ID: id, Patch: patch},
			Hashes:          seedHashes(sv.Seed),
		}
		if err := sess.UpsertProtocolVersion(ctx, v); err != nil {
			return fmt.Errorf("setup.versions[%d]: %w", i, err)
		}
	}

	for i, job := range setup.Jobs {
		sv, err := parseSemver(job.Version)
		if err != nil {
			return fmt.Errorf("setup.jobs[%d]: %w", i, err)
		}
		if _, err := sess.InsertWitnessInputs(ctx, job.Batch, job.BlobURL, sv); err != nil {
			return fmt.Errorf("setup.jobs[%d]: %w", i, err)
		}
	}
	return nil
}

// executeRun drives one ingestion run and records its outcome.
func (h *Harness) executeRun(ctx context.Context, name string, index int, step RunStep, result *Result) error {
	artifact := []byte(step.Artifact.Raw)
	if step.Artifact.Raw == "" {
		var err error
		artifact, err = witness.Encode(testutil.NewInputData(step.Artifact.Batch, step.Artifact.ProtocolVersion))
		if err != nil {
			return fmt.Errorf("encode artifact: %w", err)
		}
	}
	h.server.SetArtifact(artifact)

	client, err := market.NewClient(market.Config{URL: h.server.URL})
	if err != nil {
		return err
	}

	participant := step.Participant
	if participant == "" {
		participant = defaultParticipant
	}

	wf := &ingest.Workflow{
		Source:     client,
		Blobs:      blob.NewWriter(h.blobDir),
		DB:         ingest.StoreConnector{DSN: h.dsn, Options: []store.Option{store.WithClock(h.clock.Now)}},
		Candidates: candidateConfig(step.Candidate),
		RunIDs:     testutil.NewFixedRunID(fmt.Sprintf("%s-%d", name, index)),
		Logger:     h.logger,
	}

	res, runErr := wf.Run(ctx, participant)

	record := RunRecord{Index: index}
	if runErr != nil {
		record.ErrorStage = string(fault.StageOf(runErr))
		record.ErrorKind = string(fault.KindOf(runErr))
	} else {
		record.Batch = res.L1BatchNumber
		record.BlobURL = res.BlobURL
		record.Version = res.ProtocolVersion
		record.VersionCreated = res.VersionCreated
		record.JobInserted = res.JobInserted
	}
	result.Runs = append(result.Runs, record)

	for _, msg := range checkExpect(index, step.Expect, record, runErr) {
		result.AddError(msg)
	}
	return nil
}

// candidateConfig overlays a run's candidate on the defaults.
func candidateConfig(override *config.VersionConfig) config.VersionConfig {
	vc := config.Default().ProtocolVersion
	if override == nil {
		return vc
	}
	if override.ID != nil {
		vc.ID = override.ID
	}
	if override.Patch != nil {
		vc.Patch = override.Patch
	}
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&vc.SchedulerVKHash, override.SchedulerVKHash},
		{&vc.NodeVKHash, override.NodeVKHash},
		{&vc.LeafVKHash, override.LeafVKHash},
		{&vc.CircuitsSetVKHash, override.CircuitsSetVKHash},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return vc
}

func checkExpect(index int, expect *ExpectClause, got RunRecord, runErr error) []string {
	if expect == nil {
		if runErr != nil {
			return []string{fmt.Sprintf("runs[%d]: unexpected error: %v", index, runErr)}
		}
		return nil
	}

	var errs []string
	if expect.Error != nil {
		if runErr == nil {
			return []string{fmt.Sprintf("runs[%d]: expected %s error in stage %s, run succeeded",
				index, expect.Error.Kind, expect.Error.Stage)}
		}
		if got.ErrorStage != expect.Error.Stage || got.ErrorKind != expect.Error.Kind {
			errs = append(errs, fmt.Sprintf("runs[%d]: expected %s error in stage %s, got %s in stage %s: %v",
				index, expect.Error.Kind, expect.Error.Stage, got.ErrorKind, got.ErrorStage, runErr))
		}
		return errs
	}
	if runErr != nil {
		return []string{fmt.Sprintf("runs[%d]: unexpected error: %v", index, runErr)}
	}

	if expect.Version != "" && expect.Version != got.Version {
		errs = append(errs, fmt.Sprintf("runs[%d]: version: expected %s, got %s", index, expect.Version, got.Version))
	}
	if expect.VersionCreated != nil && *expect.VersionCreated != got.VersionCreated {
		errs = append(errs, fmt.Sprintf("runs[%d]: version_created: expected %t, got %t",
			index, *expect.VersionCreated, got.VersionCreated))
	}
	if expect.JobInserted != nil && *expect.JobInserted != got.JobInserted {
		errs = append(errs, fmt.Sprintf("runs[%d]: job_inserted: expected %t, got %t",
			index, *expect.JobInserted, got.JobInserted))
	}
	return errs
}

func (h *Harness) captureState(ctx context.Context, state *State) error {
	sess, done, err := h.open(ctx)
	if err != nil {
		return err
	}
	defer done()

	versions, err := sess.ProtocolVersions(ctx)
	if err != nil {
		return err
	}
	for _, v := range versions {
		state.Versions = append(state.Versions, VersionRow{
			Version:   v.SemanticVersion.String(),
			Scheduler: v.Hashes.Scheduler.Hex(),
		})
	}

	jobs, err := sess.WitnessInputJobs(ctx)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		state.Jobs = append(state.Jobs, JobRow{
			Batch:   j.L1BatchNumber,
			BlobURL: j.BlobURL,
			Version: j.Version.String(),
			Status:  string(j.Status),
		})
	}

	entries, err := os.ReadDir(h.blobDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		state.Blobs = append(state.Blobs, e.Name())
	}
	return nil
}

func seedHashes(seed uint8) protocol.VKHashes {
	fill := func(b byte) (h [32]byte) {
		for i := range h {
			h[i] = b
		}
		return h
	}
	return protocol.VKHashes{
		Scheduler:   fill(seed),
		Node:        fill(seed + 1),
		Leaf:        fill(seed + 2),
		CircuitsSet: fill(seed + 3),
	}
}
