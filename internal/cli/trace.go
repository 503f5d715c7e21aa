package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/irgate/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database    string
	ID          string // optional - show a single record
	Fingerprint string // optional - filter to one IR
	Limit       int
}

// TraceEvent is one audit record in the timeline.
type TraceEvent struct {
	Seq          int64  `json:"seq"`
	ID           string `json:"id"`
	RequestID    string `json:"request_id,omitempty"`
	Fingerprint  string `json:"fingerprint"`
	Outcome      string `json:"outcome"`
	SQL          string `json:"sql,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	IR           string `json:"ir,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Fingerprint string       `json:"fingerprint,omitempty"`
	Timeline    []TraceEvent `json:"timeline"`
	Stats       TraceStats   `json:"stats"`
}

// TraceStats counts records per outcome across the whole audit log.
type TraceStats struct {
	Total    int `json:"total"`
	Compiled int `json:"compiled"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded translations from the audit log",
		Long: `Show translations recorded in the audit log.

Every IR the service sees is recorded with its fingerprint and outcome:
compiled (with the SQL), rejected (with the error code) or failed (the
catalog was unavailable).

Examples:
  irgate trace --db ./audit.db
  irgate trace --db ./audit.db --limit 20
  irgate trace --db ./audit.db --fingerprint 4f9c...
  irgate trace --db ./audit.db --id 0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite audit log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show a single record by id")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only records for this IR fingerprint")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N records (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	records, err := readRecords(ctx, st, opts)
	if err != nil {
		return err
	}

	counts, err := st.CountByOutcome(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count records", err)
	}

	result := TraceResult{
		Fingerprint: opts.Fingerprint,
		Timeline:    buildTimeline(records, opts.ID != "" || opts.Verbose),
		Stats: TraceStats{
			Total:    counts[store.OutcomeCompiled] + counts[store.OutcomeRejected] + counts[store.OutcomeFailed],
			Compiled: counts[store.OutcomeCompiled],
			Rejected: counts[store.OutcomeRejected],
			Failed:   counts[store.OutcomeFailed],
		},
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// readRecords selects records by id, fingerprint or recency.
func readRecords(ctx context.Context, st *store.Store, opts *TraceOptions) ([]store.Translation, error) {
	switch {
	case opts.ID != "":
		t, err := st.ReadTranslation(ctx, opts.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewExitError(ExitFailure, fmt.Sprintf("no record with id %s", opts.ID))
		}
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read record", err)
		}
		return []store.Translation{t}, nil

	case opts.Fingerprint != "":
		records, err := st.ReadByFingerprint(ctx, opts.Fingerprint)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read records", err)
		}
		if opts.Limit > 0 && len(records) > opts.Limit {
			records = records[len(records)-opts.Limit:]
		}
		return records, nil

	default:
		records, err := st.ReadTranslations(ctx, opts.Limit)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read records", err)
		}
		return records, nil
	}
}

// buildTimeline converts audit records to trace events. The stored IR is
// included only when withIR is set.
func buildTimeline(records []store.Translation, withIR bool) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(records))
	for _, r := range records {
		event := TraceEvent{
			Seq:          r.Seq,
			ID:           r.ID,
			RequestID:    r.RequestID,
			Fingerprint:  r.Fingerprint,
			Outcome:      string(r.Outcome),
			SQL:          r.SQL,
			ErrorCode:    r.ErrorCode,
			ErrorMessage: r.ErrorMessage,
		}
		if withIR {
			event.IR = r.IR
		}
		timeline = append(timeline, event)
	}
	return timeline
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	if result.Fingerprint != "" {
		fmt.Fprintf(w, "Trace for IR: %s\n\n", result.Fingerprint)
	}

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no records)")
	}
	for _, event := range result.Timeline {
		formatTimelineEvent(w, event, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total:    %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  Compiled: %d\n", result.Stats.Compiled)
	fmt.Fprintf(w, "  Rejected: %d\n", result.Stats.Rejected)
	fmt.Fprintf(w, "  Failed:   %d\n", result.Stats.Failed)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	switch event.Outcome {
	case string(store.OutcomeCompiled):
		fmt.Fprintf(w, "  [%d] OK   %s\n", event.Seq, event.SQL)
	case string(store.OutcomeRejected):
		fmt.Fprintf(w, "  [%d] REJ  %s %s\n", event.Seq, event.ErrorCode, event.ErrorMessage)
	default:
		fmt.Fprintf(w, "  [%d] FAIL %s\n", event.Seq, event.ErrorMessage)
	}

	if verbose {
		fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		fmt.Fprintf(w, "       Fingerprint: %s\n", shortFingerprint(event.Fingerprint))
		if event.RequestID != "" {
			fmt.Fprintf(w, "       Request: %s\n", event.RequestID)
		}
		if event.IR != "" {
			fmt.Fprintf(w, "       IR: %s\n", event.IR)
		}
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
