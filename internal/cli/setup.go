package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/irgate/internal/catalog"
	"github.com/roach88/irgate/internal/config"
	"github.com/roach88/irgate/internal/queryir"
	"github.com/roach88/irgate/internal/querysql"
	"github.com/roach88/irgate/internal/store"
	"github.com/roach88/irgate/internal/translate"
)

// CatalogFlags are the configuration overrides shared by every command that
// touches the schema catalog.
type CatalogFlags struct {
	Driver string
	DSN    string
	Mode   string
}

func (f *CatalogFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Driver, "catalog-driver", "", "catalog database driver: sqlite3 or duckdb (env IRGATE_CATALOG_DRIVER)")
	cmd.Flags().StringVar(&f.DSN, "catalog-dsn", "", "catalog database path or DSN (env IRGATE_CATALOG_DSN)")
	cmd.Flags().StringVar(&f.Mode, "catalog-mode", "", "snapshot or live (env IRGATE_CATALOG_MODE)")
}

// PipelineFlags toggle the opt-in translation behaviours.
type PipelineFlags struct {
	EscapeLiterals bool
	RejectJoins    bool
}

func (f *PipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.EscapeLiterals, "escape-literals", false, "double single quotes inside filter values")
	cmd.Flags().BoolVar(&f.RejectJoins, "reject-joins", false, "reject IRs that declare joins (E205)")
}

// loadConfig reads IRGATE_* variables and applies the given flag overrides.
func loadConfig(root *RootOptions, overrides map[string]any) (*config.Config, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	overrides["verbose"] = root.Verbose

	cfg, err := config.LoadWithOverrides(overrides)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

func (f *CatalogFlags) overrides(into map[string]any) map[string]any {
	if into == nil {
		into = map[string]any{}
	}
	into["catalog-driver"] = f.Driver
	into["catalog-dsn"] = f.DSN
	into["catalog-mode"] = f.Mode
	return into
}

func (f *PipelineFlags) overrides(into map[string]any) map[string]any {
	if into == nil {
		into = map[string]any{}
	}
	into["escape-literals"] = f.EscapeLiterals
	into["reject-joins"] = f.RejectJoins
	return into
}

// newLogger builds the process logger. Logs go to w so that stdout stays
// reserved for command output.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return config.NewLogger(cfg.Logging, w)
}

// openCatalog connects to the configured database. In snapshot mode the
// schema is read once and the connection closed; in live mode every lookup
// goes to the database and the returned close func must be called.
func openCatalog(ctx context.Context, cfg config.CatalogConfig) (catalog.Schema, func() error, error) {
	dialect, err := catalog.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}

	if dialect == catalog.DialectSQLite && isFilePath(cfg.DSN) {
		if _, err := os.Stat(cfg.DSN); errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("catalog database not found: %s (run 'irgate seed' to create the example)", cfg.DSN)
		}
	}

	db, err := catalog.Open(ctx, dialect, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	intro, err := catalog.NewIntrospector(db, dialect)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	if cfg.Mode == config.CatalogModeLive {
		return intro, db.Close, nil
	}

	snap, err := catalog.Load(ctx, intro)
	closeErr := db.Close()
	if err != nil {
		return nil, nil, err
	}
	if closeErr != nil {
		return nil, nil, fmt.Errorf("failed to close catalog database: %w", closeErr)
	}
	return snap, func() error { return nil }, nil
}

// isFilePath reports whether a SQLite DSN names a plain file.
func isFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// openAudit opens the audit store when a path is configured. A nil store
// disables auditing.
func openAudit(cfg config.AuditConfig) (*store.Store, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	st, err := store.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return st, nil
}

// validateOptions maps the compile config onto validator options.
func validateOptions(cfg config.CompileConfig) []queryir.ValidateOption {
	if cfg.RejectJoins {
		return []queryir.ValidateOption{queryir.WithJoinPolicy(queryir.RejectJoins)}
	}
	return nil
}

// newService assembles the translation pipeline from configuration.
func newService(cfg *config.Config, cat queryir.Catalog, audit *store.Store, logger *slog.Logger) *translate.Service {
	var compileOpts []querysql.Option
	if cfg.Compile.EscapeLiterals {
		compileOpts = append(compileOpts, querysql.WithLiteralEscaping())
	}

	opts := []translate.Option{
		translate.WithCompiler(querysql.NewSQLCompiler(compileOpts...)),
		translate.WithValidateOptions(validateOptions(cfg.Compile)...),
		translate.WithLogger(logger),
	}
	if audit != nil {
		opts = append(opts, translate.WithAuditor(audit))
	}
	return translate.New(cat, opts...)
}
