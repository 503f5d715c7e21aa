package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/irgate/internal/catalog"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Driver string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed [db-path]",
		Short: "Create the example customers/orders database",
		Long: `Create the example database with the customers and orders tables.

Existing tables are left untouched, so seeding twice is safe. Without a
path the configured catalog DSN is used (default examples/db.sqlite).

Examples:
  irgate seed
  irgate seed ./shop.sqlite
  irgate seed --driver duckdb ./shop.duckdb`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runSeed(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database driver: sqlite3 or duckdb (env IRGATE_CATALOG_DRIVER)")

	return cmd
}

func runSeed(opts *SeedOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions, map[string]any{
		"catalog-driver": opts.Driver,
		"catalog-dsn":    path,
	})
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidConfig, err)
	}

	dialect, err := catalog.ParseDialect(cfg.Catalog.Driver)
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidConfig, err)
	}

	dsn := cfg.Catalog.DSN
	if (dialect == catalog.DialectSQLite && isFilePath(dsn)) || (dialect == catalog.DialectDuckDB && dsn != "") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Errorf("creating database directory: %w", err))
		}
	}

	db, err := catalog.Open(ctx, dialect, dsn)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCatalog, err)
	}
	defer db.Close()

	if err := catalog.Seed(ctx, db); err != nil {
		return outputCommandError(formatter, ErrCodeWriteFailed, err)
	}
	formatter.VerboseLog("Seeded %v into %s", catalog.ExampleTables, dsn)

	if formatter.IsJSON() {
		return formatter.Success(map[string]any{"path": dsn, "driver": string(dialect), "tables": catalog.ExampleTables})
	}
	fmt.Fprintf(formatter.Writer, "✓ Example database ready at %s\n", dsn)
	return nil
}
