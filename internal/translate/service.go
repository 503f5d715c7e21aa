// Package translate is the pipeline entry point: it validates a query IR
// against the catalog, compiles it, and records the outcome.
package translate

import (
	"context"
	"log/slog"

	"github.com/roach88/irgate/internal/queryir"
	"github.com/roach88/irgate/internal/querysql"
	"github.com/roach88/irgate/internal/store"
)

// Explanation accompanies every successful translation.
const Explanation = "SQL generated from validated semantic IR"

// Result is the outcome of a successful translation.
type Result struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
	Fingerprint string `json:"fingerprint"`
}

// Auditor records translation outcomes. *store.Store implements it.
type Auditor interface {
	WriteTranslation(ctx context.Context, t store.Translation) (seq int64, inserted bool, err error)
}

// Service runs validate → compile.
//
// Thread-safety: Service holds no mutable state of its own and is safe for
// concurrent use when its catalog and auditor are.
type Service struct {
	catalog      queryir.Catalog
	compiler     *querysql.SQLCompiler
	validateOpts []queryir.ValidateOption
	audit        Auditor
	ids          IDGenerator
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCompiler replaces the default compiler.
func WithCompiler(c *querysql.SQLCompiler) Option {
	return func(s *Service) { s.compiler = c }
}

// WithValidateOptions passes options to every queryir.Validate call.
func WithValidateOptions(opts ...queryir.ValidateOption) Option {
	return func(s *Service) { s.validateOpts = append(s.validateOpts, opts...) }
}

// WithAuditor records every outcome in a.
func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.audit = a }
}

// WithIDGenerator sets the audit record id source. Defaults to UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service over cat.
func New(cat queryir.Catalog, opts ...Option) *Service {
	s := &Service{
		catalog:  cat,
		compiler: querysql.NewSQLCompiler(),
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the service validates against.
func (s *Service) Catalog() queryir.Catalog {
	return s.catalog
}

// Translate validates q and compiles it to SQL.
//
// A *queryir.ValidationError is returned unchanged so callers can map it with
// errors.As. Any other error is a catalog failure.
func (s *Service) Translate(ctx context.Context, q queryir.QueryIR) (Result, error) {
	fingerprint := queryir.Fingerprint(q)
	logger := s.logger.With("fingerprint", fingerprint)
	if reqID := RequestIDFrom(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	v, err := queryir.Validate(ctx, q, s.catalog, s.validateOpts...)
	if err != nil {
		if verr, ok := queryir.AsValidationError(err); ok {
			logger.Info("query rejected", "code", verr.Code, "error", verr.Error())
			s.record(ctx, logger, q, fingerprint, store.Translation{
				Outcome:      store.OutcomeRejected,
				ErrorCode:    string(verr.Code),
				ErrorMessage: verr.Error(),
			})
		} else {
			logger.Error("catalog lookup failed", "error", err)
			s.record(ctx, logger, q, fingerprint, store.Translation{
				Outcome:      store.OutcomeFailed,
				ErrorMessage: err.Error(),
			})
		}
		return Result{}, err
	}

	sql := s.compiler.Compile(v)
	logger.Debug("query compiled", "sql", sql)
	s.record(ctx, logger, q, fingerprint, store.Translation{
		Outcome: store.OutcomeCompiled,
		SQL:     sql,
	})

	return Result{SQL: sql, Explanation: Explanation, Fingerprint: fingerprint}, nil
}

// record writes an audit entry. Audit failures are logged and never fail the
// translation.
func (s *Service) record(ctx context.Context, logger *slog.Logger, q queryir.QueryIR, fingerprint string, t store.Translation) {
	if s.audit == nil {
		return
	}

	t.ID = s.ids.Generate()
	t.RequestID = RequestIDFrom(ctx)
	t.Fingerprint = fingerprint
	t.IR = string(queryir.MarshalCanonical(q))

	// Recording must survive a client disconnect.
	seq, _, err := s.audit.WriteTranslation(context.WithoutCancel(ctx), t)
	if err != nil {
		logger.Warn("audit write failed", "id", t.ID, "error", err)
		return
	}
	logger.Debug("audit recorded", "id", t.ID, "seq", seq)
}
