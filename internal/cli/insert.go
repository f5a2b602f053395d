package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/provermarket/internal/blob"
	"github.com/roach88/provermarket/internal/config"
	"github.com/roach88/provermarket/internal/ingest"
	"github.com/roach88/provermarket/internal/market"
	"github.com/roach88/provermarket/internal/store"
)

// InsertOptions holds flags for the insert-witness-inputs command.
type InsertOptions struct {
	*RootOptions
	ServerURL     string
	ParticipantID string
	Database      string
	OutDir        string
	Timeout       time.Duration

	VersionID         int64
	VersionPatch      int64
	SchedulerVKHash   string
	NodeVKHash        string
	LeafVKHash        string
	CircuitsSetVKHash string

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs ingest.RunIDGenerator
	// Clock overrides database timestamps (for testing).
	Clock func() time.Time
}

// NewInsertWitnessCommand creates the insert-witness-inputs command.
func NewInsertWitnessCommand(rootOpts *RootOptions) *cobra.Command {
	return newInsertWitnessCommand(&InsertOptions{RootOptions: rootOpts})
}

func newInsertWitnessCommand(opts *InsertOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "insert-witness-inputs",
		Aliases: []string{"insert-witness", "insert-next-batch-witness-inputs"},
		Short:   "Fetch the next assigned batch and queue its witness inputs",
		Long: `Ask the marketplace server for the next batch assigned to this participant,
download and decode its witness inputs, write them to the storage directory and
queue a witness job in the prover database.

If the prover database has no protocol version yet, the configured candidate
version is created first. Re-running for a batch that is already queued leaves
the existing job untouched.

Example:
  provermarket insert-witness-inputs --server-url http://localhost:3030 --participant-id prover-1
  provermarket insert-witness-inputs -c provermarket.yaml --db sqlite://./prover.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ServerURL, "server-url", "", "marketplace server URL")
	f.StringVar(&opts.ParticipantID, "participant-id", "", "participant id to fetch a batch for")
	f.StringVar(&opts.Database, "db", "", "prover database URL (overrides "+config.EnvDatabaseURL+")")
	f.StringVar(&opts.OutDir, "out-dir", "", "directory witness inputs are written to")
	f.DurationVar(&opts.Timeout, "timeout", 0, "per-request timeout for the marketplace server")
	f.Int64Var(&opts.VersionID, "protocol-version-id", 0, "candidate protocol version id (default: the artifact's version)")
	f.Int64Var(&opts.VersionPatch, "protocol-version-patch", 0, "candidate protocol version patch")
	f.StringVar(&opts.SchedulerVKHash, "scheduler-vk-hash", "", "candidate recursion scheduler vk hash")
	f.StringVar(&opts.NodeVKHash, "node-vk-hash", "", "candidate recursion node vk hash")
	f.StringVar(&opts.LeafVKHash, "leaf-vk-hash", "", "candidate recursion leaf vk hash")
	f.StringVar(&opts.CircuitsSetVKHash, "circuits-set-vk-hash", "", "candidate recursion circuits set vk hash")

	return cmd
}

// resolveConfig loads the config file and applies the flags the user set.
func (o *InsertOptions) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	f := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	set("server-url", &cfg.Server.URL, o.ServerURL)
	set("participant-id", &cfg.Server.ParticipantID, o.ParticipantID)
	set("db", &cfg.Database.URL, o.Database)
	set("out-dir", &cfg.Storage.Dir, o.OutDir)
	set("scheduler-vk-hash", &cfg.ProtocolVersion.SchedulerVKHash, o.SchedulerVKHash)
	set("node-vk-hash", &cfg.ProtocolVersion.NodeVKHash, o.NodeVKHash)
	set("leaf-vk-hash", &cfg.ProtocolVersion.LeafVKHash, o.LeafVKHash)
	set("circuits-set-vk-hash", &cfg.ProtocolVersion.CircuitsSetVKHash, o.CircuitsSetVKHash)
	if f.Changed("timeout") {
		cfg.Server.Timeout = o.Timeout
	}
	if f.Changed("protocol-version-id") {
		id := o.VersionID
		cfg.ProtocolVersion.ID = &id
	}
	if f.Changed("protocol-version-patch") {
		patch := o.VersionPatch
		cfg.ProtocolVersion.Patch = &patch
	}

	return cfg, cfg.ValidateIngest()
}

func runInsert(opts *InsertOptions, cmd *cobra.Command) error {
	cfg, err := opts.resolveConfig(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	client, err := market.NewClient(market.Config{URL: cfg.Server.URL, Timeout: cfg.Server.Timeout})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	var storeOpts []store.Option
	if opts.Clock != nil {
		storeOpts = append(storeOpts, store.WithClock(opts.Clock))
	}

	wf := &ingest.Workflow{
		Source:     client,
		Blobs:      blob.NewWriter(cfg.Storage.Dir),
		DB:         ingest.StoreConnector{DSN: cfg.Database.URL, Options: storeOpts},
		Candidates: cfg.ProtocolVersion,
		RunIDs:     opts.RunIDs,
		Logger:     slog.Default(),
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	res, err := wf.Run(ctx, cfg.Server.ParticipantID)
	if err != nil {
		return wrapFault("witness ingestion failed", err)
	}

	return newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr()).
		Success(res, res.RunID, func(w io.Writer) { writeInsertText(w, res) })
}

func writeInsertText(w io.Writer, res *ingest.Result) {
	if res.JobInserted {
		fmt.Fprintf(w, "Witness inputs for batch %d queued.\n", res.L1BatchNumber)
	} else {
		fmt.Fprintf(w, "Witness inputs for batch %d were already queued.\n", res.L1BatchNumber)
	}
	version := "existing"
	if res.VersionCreated {
		version = "created"
	}
	fmt.Fprintf(w, "  run id:            %s\n", res.RunID)
	fmt.Fprintf(w, "  request id:        %d\n", res.RequestID)
	fmt.Fprintf(w, "  batch file:        %s\n", res.BatchFile)
	fmt.Fprintf(w, "  blob:              %s (%d bytes)\n", res.BlobURL, res.BlobSize)
	fmt.Fprintf(w, "  cid:               %s\n", res.BlobCID)
	fmt.Fprintf(w, "  protocol version:  %s (%s)\n", res.ProtocolVersion, version)
}
