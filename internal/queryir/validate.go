package queryir

import (
	"context"
	"fmt"
	"slices"
)

// Catalog is the read-only schema surface the validator needs.
//
// ColumnsOf may return an empty list or an error for an unknown table; the
// validator always establishes table existence first and never relies on
// ColumnsOf for it.
type Catalog interface {
	Tables(ctx context.Context) ([]string, error)
	TableExists(ctx context.Context, name string) (bool, error)
	ColumnsOf(ctx context.Context, table string) ([]string, error)
}

// JoinPolicy controls what Validate does with a non-empty Joins list.
type JoinPolicy int

const (
	// IgnoreJoins accepts joins and leaves them out of the compiled SQL.
	IgnoreJoins JoinPolicy = iota
	// RejectJoins fails validation with UnsupportedFeature("joins").
	RejectJoins
)

// ValidateOption configures a single Validate call.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	joins JoinPolicy
}

// WithJoinPolicy sets how declared joins are handled.
func WithJoinPolicy(p JoinPolicy) ValidateOption {
	return func(c *validateConfig) {
		c.joins = p
	}
}

// Validated is an IR that passed Validate. It can only be obtained from
// Validate and holds its own copy of the IR, so later changes to the caller's
// value cannot reach the compiler.
type Validated struct {
	ir QueryIR
	ok bool
}

// IR returns a copy of the validated query.
func (v Validated) IR() QueryIR {
	return v.ir.Clone()
}

// Valid reports whether v was produced by a successful Validate call.
// The zero Validated is not valid.
func (v Validated) Valid() bool {
	return v.ok
}

// Tables, Metrics, Dimensions, Filters and Joins return copies; mutating them
// does not change v.

func (v Validated) Tables() []string     { return slices.Clone(v.ir.Tables) }
func (v Validated) Metrics() []Metric    { return slices.Clone(v.ir.Metrics) }
func (v Validated) Dimensions() []string { return slices.Clone(v.ir.Dimensions) }
func (v Validated) Filters() []Filter    { return slices.Clone(v.ir.Filters) }
func (v Validated) Joins() []Join        { return slices.Clone(v.ir.Joins) }

// Validate checks q against cat and returns the first defect found.
//
// Order of checks:
//  0. shape: non-empty tables, known intent, operations and operators
//  1. table existence, in Tables order
//  2. filter column references, in order
//  3. metric column references, in order
//  4. dimension column references, in order
//  5. join policy (only when RejectJoins is set)
//
// Defects are returned as *ValidationError. A failing catalog lookup is
// returned as a wrapped error instead and is not retried.
//
// Validate does not modify q.
func Validate(ctx context.Context, q QueryIR, cat Catalog, opts ...ValidateOption) (Validated, error) {
	cfg := validateConfig{joins: IgnoreJoins}
	for _, opt := range opts {
		opt(&cfg)
	}

	v := &validator{
		q:       q,
		cat:     cat,
		columns: make(map[string]map[string]struct{}),
	}

	if err := v.validateShape(); err != nil {
		return Validated{}, err
	}
	if err := v.validateTables(ctx); err != nil {
		return Validated{}, err
	}
	for _, f := range q.Filters {
		if err := v.validateColumnRef(ctx, f.Column); err != nil {
			return Validated{}, err
		}
	}
	for _, m := range q.Metrics {
		if err := v.validateColumnRef(ctx, m.Column); err != nil {
			return Validated{}, err
		}
	}
	for _, d := range q.Dimensions {
		if err := v.validateColumnRef(ctx, d); err != nil {
			return Validated{}, err
		}
	}
	if cfg.joins == RejectJoins && len(q.Joins) > 0 {
		return Validated{}, UnsupportedFeature("joins")
	}

	return Validated{ir: q.Clone(), ok: true}, nil
}

// validator holds per-call state: the query and a column cache so each table
// is looked up at most once.
type validator struct {
	q       QueryIR
	cat     Catalog
	columns map[string]map[string]struct{}
}

func (v *validator) validateShape() error {
	if len(v.q.Tables) == 0 {
		return InvalidShape("tables", "at least one table is required")
	}
	if v.q.Intent != "" && !v.q.Intent.Valid() {
		return InvalidShape("intent", fmt.Sprintf("unknown intent %q", v.q.Intent))
	}
	for i, m := range v.q.Metrics {
		if !m.Operation.Valid() {
			return InvalidShape(fmt.Sprintf("metrics[%d].operation", i), fmt.Sprintf("unknown operation %q", m.Operation))
		}
	}
	for i, f := range v.q.Filters {
		if !f.Operator.Valid() {
			return InvalidShape(fmt.Sprintf("filters[%d].operator", i), fmt.Sprintf("unknown operator %q", f.Operator))
		}
	}
	return nil
}

func (v *validator) validateTables(ctx context.Context) error {
	for _, table := range v.q.Tables {
		exists, err := v.cat.TableExists(ctx, table)
		if err != nil {
			return fmt.Errorf("catalog lookup for table %q: %w", table, err)
		}
		if !exists {
			return UnknownTable(table)
		}
	}
	return nil
}

// validateColumnRef enforces the "table.column" shape, the query scope, and
// column existence, in that order.
func (v *validator) validateColumnRef(ctx context.Context, ref string) error {
	table, column, ok := SplitColumnRef(ref)
	if !ok {
		return MalformedReference(ref)
	}

	// Scope is the query's own table list, not the whole catalog.
	if !v.q.InScope(table) {
		return OutOfScopeReference(ref, table)
	}

	cols, err := v.columnsOf(ctx, table)
	if err != nil {
		return err
	}
	if _, ok := cols[column]; !ok {
		return HallucinatedColumn(column, table)
	}
	return nil
}

func (v *validator) columnsOf(ctx context.Context, table string) (map[string]struct{}, error) {
	if cols, ok := v.columns[table]; ok {
		return cols, nil
	}
	names, err := v.cat.ColumnsOf(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup for columns of %q: %w", table, err)
	}
	cols := make(map[string]struct{}, len(names))
	for _, n := range names {
		cols[n] = struct{}{}
	}
	v.columns[table] = cols
	return cols, nil
}
