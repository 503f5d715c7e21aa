package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/irgate/internal/catalog"
	"github.com/roach88/irgate/internal/queryir"
	"github.com/roach88/irgate/internal/querysql"
	"github.com/roach88/irgate/internal/store"
	"github.com/roach88/irgate/internal/testutil"
	"github.com/roach88/irgate/internal/translate"
)

// Harness runs scenarios through the real translation pipeline.
type Harness struct {
	store  *store.Store
	svc    *translate.Service
	ids    *testutil.SequentialIDs
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes pipeline logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory audit store. Record ids are
// sequential, so the returned trace is reproducible byte for byte.
//
// Execution flow:
//  1. Build the catalog (static columns or a seeded SQLite database)
//  2. Translate every case in order, tagging each with its case name
//  3. Compare each outcome against the case's expect clause
//  4. Read the audit log back as the trace
//  5. Evaluate trace assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	ctx := context.Background()

	h := &Harness{
		ids:    testutil.NewSequentialIDs("tr"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()
	h.store = st

	cat, cleanup, err := buildCatalog(ctx, scenario)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	h.svc = translate.New(cat, serviceOptions(h, scenario.Options)...)

	result := NewResult()
	for _, c := range scenario.Cases {
		h.runCase(ctx, c, result)
	}

	trace, err := h.readTrace(ctx)
	if err != nil {
		return nil, err
	}
	result.Trace = trace

	for _, msg := range EvaluateAssertions(trace, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func serviceOptions(h *Harness, o Options) []translate.Option {
	var compileOpts []querysql.Option
	if o.EscapeLiterals {
		compileOpts = append(compileOpts, querysql.WithLiteralEscaping())
	}
	var validateOpts []queryir.ValidateOption
	if o.RejectJoins {
		validateOpts = append(validateOpts, queryir.WithJoinPolicy(queryir.RejectJoins))
	}
	return []translate.Option{
		translate.WithCompiler(querysql.NewSQLCompiler(compileOpts...)),
		translate.WithValidateOptions(validateOpts...),
		translate.WithAuditor(h.store),
		translate.WithIDGenerator(h.ids),
		translate.WithLogger(h.logger),
	}
}

// buildCatalog returns the scenario's catalog and a cleanup func.
func buildCatalog(ctx context.Context, s *Scenario) (queryir.Catalog, func(), error) {
	if !s.ExampleDB {
		return catalog.FromColumns(s.Catalog), func() {}, nil
	}

	db, err := catalog.Open(ctx, catalog.DialectSQLite, ":memory:")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open example database: %w", err)
	}
	if err := catalog.Seed(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to seed example database: %w", err)
	}
	intro, err := catalog.NewIntrospector(db, catalog.DialectSQLite)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return intro, func() { db.Close() }, nil
}

// runCase translates one case and records any expectation mismatch.
func (h *Harness) runCase(ctx context.Context, c Case, result *Result) {
	ctx = translate.ContextWithRequestID(ctx, c.Name)
	res, err := h.svc.Translate(ctx, c.IR)

	if c.Expect.SQL != "" {
		if err != nil {
			result.AddError(fmt.Sprintf("case %s: expected SQL, got error: %v", c.Name, err))
			return
		}
		if res.SQL != c.Expect.SQL {
			result.AddError(fmt.Sprintf("case %s: SQL mismatch\n  expected: %s\n  actual:   %s", c.Name, c.Expect.SQL, res.SQL))
		}
		return
	}

	if err == nil {
		result.AddError(fmt.Sprintf("case %s: expected error %s, got SQL: %s", c.Name, c.Expect.Error, res.SQL))
		return
	}
	verr, ok := queryir.AsValidationError(err)
	if !ok {
		result.AddError(fmt.Sprintf("case %s: expected error %s, got non-validation error: %v", c.Name, c.Expect.Error, err))
		return
	}
	if string(verr.Code) != c.Expect.Error {
		result.AddError(fmt.Sprintf("case %s: expected error %s, got %s (%s)", c.Name, c.Expect.Error, verr.Code, verr.Error()))
		return
	}
	if c.Expect.Message != "" && verr.Error() != c.Expect.Message {
		result.AddError(fmt.Sprintf("case %s: error message mismatch\n  expected: %s\n  actual:   %s", c.Name, c.Expect.Message, verr.Error()))
	}
}

// readTrace reads every audit record in seq order.
func (h *Harness) readTrace(ctx context.Context) ([]TraceEvent, error) {
	records, err := h.store.ReadTranslations(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return TraceFromRecords(records), nil
}

// TraceFromRecords converts audit records to trace events. The request id
// doubles as the case name.
func TraceFromRecords(records []store.Translation) []TraceEvent {
	trace := make([]TraceEvent, 0, len(records))
	for _, r := range records {
		trace = append(trace, TraceEvent{
			Seq:         r.Seq,
			Case:        r.RequestID,
			Outcome:     string(r.Outcome),
			Fingerprint: r.Fingerprint,
			SQL:         r.SQL,
			ErrorCode:   r.ErrorCode,
			Message:     r.ErrorMessage,
		})
	}
	return trace
}
