package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/irgate/internal/httpapi"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Catalog   CatalogFlags
	Pipeline  PipelineFlags
	Listen    string
	AuditDB   string
	LogLevel  string
	LogFormat string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP translation service",
		Long: `Start the HTTP service.

Routes:
  POST /query    IR JSON in, {"sql", "explanation"} out
  GET  /schema   tables, columns and foreign keys of the catalog
  GET  /healthz  liveness

The catalog is read once at startup (snapshot mode) or on every lookup
(live mode). Ctrl-C shuts down gracefully.

Example:
  irgate serve --catalog-dsn ./examples/db.sqlite --listen :8000
  irgate serve --catalog-mode live --audit-db ./audit.db --log-format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	opts.Catalog.register(cmd)
	opts.Pipeline.register(cmd)
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (env IRGATE_LISTEN_ADDR, default :8000)")
	cmd.Flags().StringVar(&opts.AuditDB, "audit-db", "", "path to the SQLite audit log (env IRGATE_AUDIT_DB)")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error (env IRGATE_LOG_LEVEL)")
	cmd.Flags().StringVar(&opts.LogFormat, "log-format", "", "text or json (env IRGATE_LOG_FORMAT)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	overrides := opts.Pipeline.overrides(opts.Catalog.overrides(map[string]any{
		"listen":     opts.Listen,
		"audit-db":   opts.AuditDB,
		"log-level":  opts.LogLevel,
		"log-format": opts.LogFormat,
	}))
	cfg, err := loadConfig(opts.RootOptions, overrides)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("opening catalog", "driver", cfg.Catalog.Driver, "dsn", cfg.Catalog.DSN, "mode", cfg.Catalog.Mode)
	schema, closeCatalog, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	defer func() {
		if closeErr := closeCatalog(); closeErr != nil {
			logger.Error("error closing catalog", "error", closeErr)
		}
	}()

	audit, err := openAudit(cfg.Audit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open audit log", err)
	}
	if audit != nil {
		logger.Info("audit log ready", "path", cfg.Audit.Path)
		defer func() {
			if closeErr := audit.Close(); closeErr != nil {
				logger.Error("error closing audit log", "error", closeErr)
			}
		}()
	}

	svc := newService(cfg, schema, audit, logger)
	srv := httpapi.NewServer(svc, schema, httpapi.Options{
		Logger:       logger,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "irgate listening on %s\n", cfg.Server.ListenAddr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	readTimeout := time.Duration(cfg.Server.ReadTimeoutSec) * time.Second
	if err := srv.ListenAndServe(ctx, cfg.Server.ListenAddr, readTimeout); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
