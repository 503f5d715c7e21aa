package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/irgate/internal/queryir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Catalog     CatalogFlags
	RejectJoins bool
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool             `json:"valid"`
	Fingerprint string           `json:"fingerprint"`
	Error       *ValidationIssue `json:"error,omitempty"`
}

// ValidationIssue is the first defect found in an IR.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <ir-file>",
		Short: "Check an IR against the schema catalog",
		Long: `Check an IR file against the schema catalog without compiling it.

Runs the same checks as compile: shape, table existence, column reference
format, query scope, and column existence. Reports the first defect with
its error code.

IR files may be JSON (.json), YAML (.yaml, .yml) or CUE (.cue).

Exit codes:
  0 - IR is valid
  1 - IR was rejected
  2 - Command error (file not found, catalog unavailable, etc.)

Examples:
  irgate validate query.json
  irgate validate query.yaml --catalog-dsn ./shop.sqlite
  irgate validate query.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	opts.Catalog.register(cmd)
	cmd.Flags().BoolVar(&opts.RejectJoins, "reject-joins", false, "reject IRs that declare joins (E205)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
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
	fingerprint := queryir.Fingerprint(q)
	formatter.VerboseLog("Loaded IR from %s (fingerprint %s)", path, fingerprint)

	overrides := opts.Catalog.overrides(map[string]any{"reject-joins": opts.RejectJoins})
	cfg, err := loadConfig(opts.RootOptions, overrides)
	if err != nil {
		return outputCommandError(formatter, ErrCodeInvalidConfig, err)
	}

	cat, closeCatalog, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return outputCommandError(formatter, ErrCodeCatalog, err)
	}
	defer closeCatalog()
	formatter.VerboseLog("Catalog: %s %s (%s)", cfg.Catalog.Driver, cfg.Catalog.DSN, cfg.Catalog.Mode)

	_, err = queryir.Validate(ctx, q, cat, validateOptions(cfg.Compile)...)
	if err != nil {
		verr, ok := queryir.AsValidationError(err)
		if !ok {
			return outputCommandError(formatter, ErrCodeCatalog, err)
		}
		return outputRejected(formatter, fingerprint, verr)
	}

	if formatter.IsJSON() {
		return formatter.Success(ValidationResult{Valid: true, Fingerprint: fingerprint})
	}
	fmt.Fprintf(formatter.Writer, "✓ IR valid (fingerprint %s)\n", shortFingerprint(fingerprint))
	return nil
}

// outputLoadError reports an IR load failure. Load failures are command
// errors (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, loadErr.Code, err)
	}
	return outputCommandError(formatter, ErrCodeGeneric, err)
}

// outputCommandError reports an environment failure (exit code 2).
func outputCommandError(formatter *OutputFormatter, code string, err error) error {
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}

// outputRejected reports a validation failure (exit code 1).
func outputRejected(formatter *OutputFormatter, fingerprint string, verr *queryir.ValidationError) error {
	issue := &ValidationIssue{Code: string(verr.Code), Message: verr.Error()}

	if formatter.IsJSON() {
		if err := writeJSON(formatter.Writer, CLIResponse{
			Status:      "error",
			Data:        ValidationResult{Valid: false, Fingerprint: fingerprint, Error: issue},
			Error:       &CLIError{Code: issue.Code, Message: issue.Message},
			Fingerprint: fingerprint,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ IR rejected")
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Code, issue.Message)
	}

	return WrapExitError(ExitFailure, "IR rejected", verr)
}

// shortFingerprint abbreviates a fingerprint for text output.
func shortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}
