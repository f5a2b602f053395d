package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/provermarket/internal/config"
	"github.com/roach88/provermarket/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
	Batch    uint64
}

// StatusResult is the status of one batch in the prover database.
type StatusResult struct {
	L1BatchNumber     uint64          `json:"l1_batch_number"`
	WitnessJob        *WitnessJobView `json:"witness_job"`
	CompressionStatus string          `json:"compression_status,omitempty"`
}

// WitnessJobView is the JSON shape of a witness job row.
type WitnessJobView struct {
	Status          string    `json:"status"`
	BlobURL         string    `json:"blob_url"`
	ProtocolVersion string    `json:"protocol_version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show witness and compression job status for a batch",
		Long: `Read the witness input job and the proof compression job of a batch from the
prover database. Nothing is written.

Examples:
  provermarket status --batch 12345
  provermarket status --batch 12345 --db sqlite://./prover.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "prover database URL (overrides "+config.EnvDatabaseURL+")")
	cmd.Flags().Uint64Var(&opts.Batch, "batch", 0, "L1 batch number (required)")
	_ = cmd.MarkFlagRequired("batch")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.Database.URL = opts.Database
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(cfg.Database.URL)
	if err != nil {
		return wrapFault("failed to open database", err)
	}
	defer st.Close()

	sess, err := st.Acquire(ctx)
	if err != nil {
		return wrapFault("failed to open database", err)
	}
	defer sess.Close()

	result := StatusResult{L1BatchNumber: opts.Batch}

	job, found, err := sess.WitnessInputJob(ctx, opts.Batch)
	if err != nil {
		return wrapFault("failed to read witness job", err)
	}
	if found {
		result.WitnessJob = &WitnessJobView{
			Status:          string(job.Status),
			BlobURL:         job.BlobURL,
			ProtocolVersion: job.Version.String(),
			CreatedAt:       job.CreatedAt.UTC(),
			UpdatedAt:       job.UpdatedAt.UTC(),
		}
	}

	compression, found, err := sess.CompressionJobStatus(ctx, opts.Batch)
	if err != nil {
		return wrapFault("failed to read compression job", err)
	}
	if found {
		result.CompressionStatus = string(compression)
	}

	return newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr()).
		Success(result, "", func(w io.Writer) { writeStatusText(w, result) })
}

func writeStatusText(w io.Writer, r StatusResult) {
	fmt.Fprintf(w, "Batch %d\n", r.L1BatchNumber)
	if r.WitnessJob == nil {
		fmt.Fprintln(w, "  witness job:      not found")
	} else {
		fmt.Fprintf(w, "  witness job:      %s\n", r.WitnessJob.Status)
		fmt.Fprintf(w, "  blob:             %s\n", r.WitnessJob.BlobURL)
		fmt.Fprintf(w, "  protocol version: %s\n", r.WitnessJob.ProtocolVersion)
	}
	if r.CompressionStatus == "" {
		fmt.Fprintln(w, "  compression job:  not found")
	} else {
		fmt.Fprintf(w, "  compression job:  %s\n", r.CompressionStatus)
	}
}
