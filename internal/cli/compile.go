package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/irgate/internal/queryir"
	"github.com/roach88/irgate/internal/translate"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Catalog  CatalogFlags
	Pipeline PipelineFlags
	AuditDB  string
	Output   string // output file path
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
	Fingerprint string `json:"fingerprint"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <ir-file>",
		Short: "Validate an IR and compile it to SQL",
		Long: `Validate an IR file against the schema catalog and print the SQL.

The IR goes through the same pipeline as POST /query. Rejected IRs print
the error code and message and exit 1. With --audit-db (or IRGATE_AUDIT_DB)
every outcome is recorded in the audit log.

Examples:
  irgate compile query.json
  irgate compile query.yaml -o query.sql
  irgate compile query.json --escape-literals --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.Catalog.register(cmd)
	opts.Pipeline.register(cmd)
	cmd.Flags().StringVar(&opts.AuditDB, "audit-db", "", "record the outcome in this audit log (env IRGATE_AUDIT_DB)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	q, err := LoadIR(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded IR from %s", path)

	overrides := opts.Pipeline.overrides(opts.Catalog.overrides(map[string]any{"audit-db": opts.AuditDB}))
	cfg, err := loadConfig(opts.RootOptions, overrides)
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidConfig, err)
	}

	cat, closeCatalog, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCatalog, err)
	}
	defer closeCatalog()

	audit, err := openAudit(cfg.Audit)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err)
	}
	if audit != nil {
		defer audit.Close()
		formatter.VerboseLog("Recording to audit log %s", cfg.Audit.Path)
	}

	svc := newService(cfg, cat, audit, newLogger(cfg, formatter.GetErrWriter()))
	res, err := svc.Translate(ctx, q)
	if err != nil {
		verr, ok := queryir.AsValidationError(err)
		if !ok {
			return outputCommandError(formatter, ErrCodeCatalog, err)
		}
		return outputRejected(formatter, queryir.Fingerprint(q), verr)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(res.SQL+"\n"), 0644); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Errorf("writing output file: %w", err))
		}
		formatter.VerboseLog("Wrote SQL to %s", opts.Output)
	}

	return outputCompileSuccess(formatter, res, opts.Output)
}

// outputCompileSuccess prints the compiled SQL.
func outputCompileSuccess(formatter *OutputFormatter, res translate.Result, outputPath string) error {
	if formatter.IsJSON() {
		return writeJSON(formatter.Writer, CLIResponse{
			Status: "ok",
			Data: CompilationResult{
				SQL:         res.SQL,
				Explanation: res.Explanation,
				Fingerprint: res.Fingerprint,
			},
			Fingerprint: res.Fingerprint,
		})
	}

	if outputPath != "" {
		fmt.Fprintf(formatter.Writer, "✓ Compiled to %s\n", outputPath)
		return nil
	}
	fmt.Fprintln(formatter.Writer, res.SQL)
	return nil
}
