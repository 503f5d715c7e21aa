// Package queryir provides the semantic query intermediate representation (IR)
// accepted by irgate, and the schema-aware validator that guards it.
//
// The IR is produced upstream by an untrusted generator (typically a language
// model). It describes what to read, not how:
//
//	[NL generator] → [QueryIR] → [Validate] → [querysql.Compile] → SQL text
//	                                 ↓
//	                          *ValidationError
//
// ARCHITECTURE:
//
// QueryIR is a plain data record with JSON/YAML tags matching the wire shape:
//
//	{
//	  "intent": "aggregation",
//	  "tables": ["orders"],
//	  "metrics": [{"column": "orders.amount", "operation": "SUM"}],
//	  "dimensions": ["orders.customer_id"],
//	  "filters": [{"column": "orders.customer_id", "operator": "=", "value": "5"}],
//	  "joins": []
//	}
//
// Every column reference has the exact form "table.column".
//
// VALIDATION:
//
// Validate runs a shape pre-check and then four ordered passes, stopping at
// the first defect:
//
//  1. every table in Tables exists in the Catalog
//  2. every filter column reference resolves
//  3. every metric column reference resolves
//  4. every dimension column reference resolves
//
// A column reference resolves when it is well formed, its table is in the
// query's own Tables list (the scope), and the Catalog lists its column for
// that table. The reported defect depends on pass order and sequence order,
// never on severity.
//
// VALIDATED IR:
//
// Validate returns a Validated value on success. Validated can only be built
// by this package, so the compiler cannot be handed an IR that skipped
// validation.
//
// JOINS:
//
// Joins are carried on the IR but neither validated nor compiled. By default
// they are ignored; WithJoinPolicy(RejectJoins) turns a non-empty join list
// into an UnsupportedFeature error.
package queryir
