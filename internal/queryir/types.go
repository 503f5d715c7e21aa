package queryir

import (
	"fmt"
	"strings"
)

// Intent describes what the upstream generator meant the query to do.
// It is carried through validation but does not change the compiled SQL.
type Intent string

const (
	IntentSelect      Intent = "select"
	IntentAggregation Intent = "aggregation"
)

// Valid reports whether the intent is one of the known values.
func (i Intent) Valid() bool {
	return i == IntentSelect || i == IntentAggregation
}

// UnmarshalText accepts the wire spelling of an intent, case-insensitively.
func (i *Intent) UnmarshalText(text []byte) error {
	v := Intent(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown intent %q: must be one of select, aggregation", string(text))
	}
	*i = v
	return nil
}

// Operation is an aggregation function applied to a metric column.
// Values are stored upper-case.
type Operation string

const (
	OpSum   Operation = "SUM"
	OpCount Operation = "COUNT"
	OpAvg   Operation = "AVG"
	OpMin   Operation = "MIN"
	OpMax   Operation = "MAX"
)

// Operations lists the supported aggregations in their documented order.
var Operations = []Operation{OpSum, OpCount, OpAvg, OpMin, OpMax}

// Valid reports whether the operation is supported.
func (o Operation) Valid() bool {
	for _, op := range Operations {
		if o == op {
			return true
		}
	}
	return false
}

// UnmarshalText accepts any casing ("sum", "Sum", "SUM") and stores the
// upper-case form.
func (o *Operation) UnmarshalText(text []byte) error {
	v := Operation(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown operation %q: must be one of %v", string(text), Operations)
	}
	*o = v
	return nil
}

// Operator is a comparison operator used by a Filter.
type Operator string

const (
	OpEq  Operator = "="
	OpNe  Operator = "!="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
	OpGte Operator = ">="
	OpLte Operator = "<="
)

// Operators lists the supported comparison operators.
var Operators = []Operator{OpEq, OpNe, OpGt, OpLt, OpGte, OpLte}

// Valid reports whether the operator is supported.
func (o Operator) Valid() bool {
	for _, op := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// UnmarshalText rejects anything outside the fixed operator set.
func (o *Operator) UnmarshalText(text []byte) error {
	v := Operator(strings.TrimSpace(string(text)))
	if !v.Valid() {
		return fmt.Errorf("unknown operator %q: must be one of %v", string(text), Operators)
	}
	*o = v
	return nil
}

// Metric is an aggregation applied to one column.
//
// Compiles to:
//
//	SUM(orders.amount)
type Metric struct {
	Column    string    `json:"column" yaml:"column"`
	Operation Operation `json:"operation" yaml:"operation"`
}

// Filter is a single predicate. Value is opaque text: it is never coerced
// against the column's declared type.
//
// Compiles to:
//
//	orders.customer_id = '5'
type Filter struct {
	Column   string   `json:"column" yaml:"column"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    string   `json:"value" yaml:"value"`
}

// Join declares a relationship between two tables. It is accepted on the wire
// but not consumed by validation or compilation.
type Join struct {
	LeftTable   string `json:"left_table" yaml:"left_table"`
	RightTable  string `json:"right_table" yaml:"right_table"`
	LeftColumn  string `json:"left_column" yaml:"left_column"`
	RightColumn string `json:"right_column" yaml:"right_column"`
}

// QueryIR is the semantic query request.
//
// Tables is the query's scope and must be non-empty; its order is preserved
// in the FROM clause. Every other collection may be empty. Neither Validate
// nor the compiler mutates a QueryIR.
type QueryIR struct {
	Intent     Intent   `json:"intent" yaml:"intent"`
	Tables     []string `json:"tables" yaml:"tables"`
	Metrics    []Metric `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Dimensions []string `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Filters    []Filter `json:"filters,omitempty" yaml:"filters,omitempty"`
	Joins      []Join   `json:"joins,omitempty" yaml:"joins,omitempty"`
}

// InScope reports whether table is one of the query's declared tables.
func (q QueryIR) InScope(table string) bool {
	for _, t := range q.Tables {
		if t == table {
			return true
		}
	}
	return false
}

// SplitColumnRef splits a "table.column" reference. ok is false unless the
// reference contains exactly one '.' and both halves are non-empty.
func SplitColumnRef(ref string) (table, column string, ok bool) {
	if strings.Count(ref, ".") != 1 {
		return "", "", false
	}
	table, column, _ = strings.Cut(ref, ".")
	if table == "" || column == "" {
		return "", "", false
	}
	return table, column, true
}
