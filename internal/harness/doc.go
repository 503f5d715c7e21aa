// Package harness runs conformance scenarios against the translation
// pipeline.
//
// A scenario declares a catalog and a list of cases. Each case is an IR with
// the expected SQL or the expected validation error code. Cases run in order
// through translate.Service with an in-memory audit store; the audit log is
// read back as the scenario trace, so golden files capture exactly what the
// service recorded.
//
// # Scenario Format
//
//	name: shop_basics
//	description: "Aggregations over the example shop schema"
//	catalog:
//	  customers: [customer_id, name]
//	  orders: [order_id, customer_id, amount, order_date]
//	options:
//	  escape_literals: false
//	  reject_joins: false
//	cases:
//	  - name: total_for_customer
//	    ir:
//	      intent: aggregation
//	      tables: [orders]
//	      metrics: [{column: orders.amount, operation: SUM}]
//	    expect:
//	      sql: "SELECT SUM(orders.amount) FROM orders"
//	  - name: ghost_table
//	    ir: {intent: select, tables: [ghost]}
//	    expect:
//	      error: E201
//	      message: "Unknown table: ghost"
//	assertions:
//	  - type: outcome_count
//	    outcome: rejected
//	    count: 1
//
// Set example_db: true instead of catalog to validate against a seeded
// in-memory SQLite database through the live introspector.
//
// # Assertion Types
//
//   - outcome_count: exactly count records with the given outcome
//   - same_fingerprint: the listed cases share one IR fingerprint
//   - distinct_fingerprint: the listed cases have pairwise distinct fingerprints
//
// # Deterministic Testing
//
// Record ids come from testutil.SequentialIDs and seq from the store, so the
// same scenario always yields a byte-identical trace. Golden files live in
// testdata/golden/{scenario.Name}.golden:
//
//	go test ./internal/harness -update
package harness
