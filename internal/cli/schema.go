package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/irgate/internal/catalog"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Catalog CatalogFlags
}

// SchemaResult is the JSON payload of the schema command.
type SchemaResult struct {
	Tables []catalog.Table `json:"tables"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the tables and columns IRs are validated against",
		Long: `Print the schema catalog: every table with its columns, declared types
and foreign keys. This is the same document GET /schema serves.

Examples:
  irgate schema
  irgate schema --catalog-driver duckdb --catalog-dsn ./warehouse.duckdb --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	opts.Catalog.register(cmd)

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
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

	cfg, err := loadConfig(opts.RootOptions, opts.Catalog.overrides(nil))
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidConfig, err)
	}

	schema, closeCatalog, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCatalog, err)
	}
	defer closeCatalog()

	tables, err := catalog.Describe(ctx, schema)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCatalog, err)
	}

	if formatter.IsJSON() {
		return formatter.Success(SchemaResult{Tables: tables})
	}

	w := formatter.Writer
	if len(tables) == 0 {
		fmt.Fprintln(w, "No tables found.")
		return nil
	}
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", t.Name)
		for _, c := range t.Columns {
			if c.Type == "" {
				fmt.Fprintf(w, "  %s\n", c.Name)
				continue
			}
			fmt.Fprintf(w, "  %-20s %s\n", c.Name, strings.ToUpper(c.Type))
		}
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(w, "  FK %s -> %s.%s\n", fk.Column, fk.RefTable, fk.RefColumn)
		}
	}
	return nil
}
