// Command rowdex-seed performs a one-shot full-table reconciliation of a
// rowdex index from a SQLite table, independent of the hook-driven
// incremental path — useful for first-time population of an index against
// an already-populated database, or for disaster recovery after an index
// directory is lost.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rowdex/rowdex"
	"github.com/rowdex/rowdex/internal/logging"
)

var (
	indexFlag  string
	queryFlag  string
	dbPathFlag string
	rootFlag   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rowdex-seed",
		Short: "Reconcile a rowdex index against a full-table scan query",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace an index's contents with the rows a query returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context())
		},
	}
	seedCmd.Flags().StringVarP(&indexFlag, "index", "i", "", "target index name (required)")
	seedCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "full-table scan query (required)")
	seedCmd.Flags().StringVar(&dbPathFlag, "db-path", "", "SQLite database path (overrides ROWDEX_SEED_DB_PATH)")
	seedCmd.Flags().StringVar(&rootFlag, "root-dir", "", "index root directory (overrides ROWDEX_SEED_ROOT_DIR)")
	_ = seedCmd.MarkFlagRequired("index")
	_ = seedCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPathFlag != "" {
		cfg.DBPath = dbPathFlag
	}
	if rootFlag != "" {
		cfg.RootDir = rootFlag
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("rowdex-seed: parse log level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	log := logging.New("rowdex-seed")

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return fmt.Errorf("rowdex-seed: open %s: %w", cfg.DBPath, err)
	}
	defer db.Close()

	instance, err := rowdex.Open(cfg.RootDir)
	if err != nil {
		return fmt.Errorf("rowdex-seed: open index root %s: %w", cfg.RootDir, err)
	}

	rows, err := db.QueryContext(ctx, queryFlag)
	if err != nil {
		return fmt.Errorf("rowdex-seed: run query: %w", err)
	}
	defer rows.Close()

	if err := instance.Reconcile(ctx, indexFlag, rows); err != nil {
		return fmt.Errorf("rowdex-seed: reconcile %s: %w", indexFlag, err)
	}

	log.Info().Str("index", indexFlag).Msg("reconcile complete")
	return nil
}
