package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/provermarket/internal/config"
	"github.com/roach88/provermarket/internal/store"
)

// NewInitDBCommand creates the init-db command.
func NewInitDBCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the prover tables in a local SQLite database",
		Long: `Create the protocol_versions, witness_input_jobs and proof_compression_jobs
tables in a SQLite database for dry runs and tests. Postgres databases belong to
the prover and are refused.

Example:
  provermarket init-db --db sqlite://./prover.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.URL = database
			}

			dialect, _, err := store.ParseDSN(cfg.Database.URL)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if dialect != store.DialectSQLite {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("init-db only creates SQLite databases, got %s", dialect))
			}

			st, err := store.Open(cfg.Database.URL)
			if err != nil {
				return wrapFault("failed to open database", err)
			}
			defer st.Close()

			if err := st.EnsureSchema(cmd.Context()); err != nil {
				return wrapFault("failed to create schema", err)
			}

			return newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr()).
				Success(map[string]string{"database": cfg.Database.URL}, "", func(w io.Writer) {
					fmt.Fprintf(w, "Prover schema ready in %s\n", cfg.Database.URL)
				})
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "SQLite database URL or path")

	return cmd
}
