package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provermarket/internal/config"
	"github.com/roach88/provermarket/internal/protocol"
	"github.com/roach88/provermarket/internal/store"
	"github.com/roach88/provermarket/internal/testutil"
)

// seedBatch queues batch 12345 and marks its compression job as sent.
func seedBatch(t *testing.T, dsn string) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(dsn, store.WithClock(testutil.NewStepClock().Now))
	require.NoError(t, err)
	defer st.Close()

	sess, err := st.Acquire(ctx)
	require.NoError(t, err)
	_, err = sess.InsertWitnessInputs(ctx, 12345, "witness_inputs_12345.bin", protocol.SemanticVersion{ID: 24, Patch: 2})
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	_, err = st.DB().ExecContext(ctx, `
		INSERT INTO proof_compression_jobs (l1_batch_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, 12345, "sent_to_server", testutil.Epoch, testutil.Epoch)
	require.NoError(t, err)
}

func runStatusCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvDatabaseURL, "")

	buf := &bytes.Buffer{}
	cmd := NewStatusCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestStatus_GoldenText(t *testing.T) {
	db := newProverDB(t)
	seedBatch(t, db)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	t.Run("queued", func(t *testing.T) {
		out, err := runStatusCommand(t, "text", "--db", db, "--batch", "12345")
		require.NoError(t, err)
		g.Assert(t, "status_queued", []byte(out))
	})

	t.Run("missing", func(t *testing.T) {
		out, err := runStatusCommand(t, "text", "--db", db, "--batch", "9")
		require.NoError(t, err)
		g.Assert(t, "status_missing", []byte(out))
	})
}

func TestStatus_JSON(t *testing.T) {
	db := newProverDB(t)
	seedBatch(t, db)

	out, err := runStatusCommand(t, "json", "--db", db, "--batch", "12345")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   StatusResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, uint64(12345), resp.Data.L1BatchNumber)
	require.NotNil(t, resp.Data.WitnessJob)
	assert.Equal(t, "queued", resp.Data.WitnessJob.Status)
	assert.Equal(t, "0.24.2", resp.Data.WitnessJob.ProtocolVersion)
	assert.True(t, resp.Data.WitnessJob.CreatedAt.Equal(testutil.Epoch))
	assert.Equal(t, "sent_to_server", resp.Data.CompressionStatus)
}

func TestStatus_MissingDatabaseFile(t *testing.T) {
	_, err := runStatusCommand(t, "text", "--db", t.TempDir()+"/missing/prover.db", "--batch", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestStatus_RequiresBatch(t *testing.T) {
	_, err := runStatusCommand(t, "text", "--db", newProverDB(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
