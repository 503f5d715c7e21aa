// Package querysql renders validated query IR as SQL text.
package querysql

import (
	"strings"

	"github.com/roach88/irgate/internal/queryir"
)

// Wildcard is the select list used when a query has no metrics.
const Wildcard = "*"

// SQLCompiler compiles a validated QueryIR to SQL text.
//
// Clause order is fixed: SELECT … FROM … [WHERE …] [GROUP BY …].
// Output is a pure function of the IR: the same Validated always yields
// byte-identical SQL.
//
// Identifiers and column references are rendered verbatim. Filter values are
// wrapped in single quotes without escaping unless WithLiteralEscaping is set;
// a value containing a quote therefore changes the statement. Callers that
// execute the SQL should enable escaping.
type SQLCompiler struct {
	escapeLiterals bool
}

// Option configures an SQLCompiler.
type Option func(*SQLCompiler)

// WithLiteralEscaping doubles embedded single quotes in filter values
// (O'Brien → 'O''Brien').
func WithLiteralEscaping() Option {
	return func(c *SQLCompiler) {
		c.escapeLiterals = true
	}
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler(opts ...Option) *SQLCompiler {
	c := &SQLCompiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile converts a validated query to SQL.
//
// Compile never fails on a Validated produced by queryir.Validate. Passing
// the zero Validated is a programming error and panics.
func (c *SQLCompiler) Compile(v queryir.Validated) string {
	if !v.Valid() {
		panic("querysql: Compile called with an IR that was not produced by queryir.Validate")
	}

	clauses := []string{
		"SELECT " + c.compileSelect(v.Metrics()),
		"FROM " + strings.Join(v.Tables(), ", "),
		c.compileWhere(v.Filters()),
		c.compileGroupBy(v.Dimensions()),
	}

	// Empty clauses contribute no separators.
	parts := clauses[:0]
	for _, clause := range clauses {
		if clause != "" {
			parts = append(parts, clause)
		}
	}
	return strings.TrimRight(strings.Join(parts, " "), " \t\n")
}

// compileSelect renders metrics as OP(column) in their original order.
func (c *SQLCompiler) compileSelect(metrics []queryir.Metric) string {
	if len(metrics) == 0 {
		return Wildcard
	}
	parts := make([]string, len(metrics))
	for i, m := range metrics {
		parts[i] = strings.ToUpper(string(m.Operation)) + "(" + m.Column + ")"
	}
	return strings.Join(parts, ", ")
}

// compileWhere renders filters as "column op 'value'" joined by AND.
func (c *SQLCompiler) compileWhere(filters []queryir.Filter) string {
	if len(filters) == 0 {
		return ""
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.Column + " " + string(f.Operator) + " " + c.quoteLiteral(f.Value)
	}
	return "WHERE " + strings.Join(parts, " AND ")
}

func (c *SQLCompiler) compileGroupBy(dimensions []string) string {
	if len(dimensions) == 0 {
		return ""
	}
	return "GROUP BY " + strings.Join(dimensions, ", ")
}

func (c *SQLCompiler) quoteLiteral(value string) string {
	if c.escapeLiterals {
		value = strings.ReplaceAll(value, "'", "''")
	}
	return "'" + value + "'"
}
