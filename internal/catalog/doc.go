// Package catalog provides read-only schema introspection for irgate.
//
// Two implementations satisfy queryir.Catalog:
//
//   - Snapshot: an immutable in-memory copy of a schema. Safe for concurrent
//     use. Built from table definitions or loaded once from a live source.
//   - Introspector: queries a live database on every call. Supports SQLite
//     (pragma table-valued functions) and DuckDB (information_schema).
//
// Both also expose declared column types and foreign keys, which the HTTP
// /schema endpoint and the schema command surface to clients.
//
// # Lifecycle
//
// The database handle behind an Introspector is opened by the caller (see
// Open) and closed by the caller at shutdown. Nothing in this package keeps
// global connection state.
//
// # Example data
//
// Seed creates the customers/orders example schema used throughout the tests
// and documentation:
//
//	customers(customer_id, name)
//	orders(order_id, customer_id → customers.customer_id, amount, order_date)
package catalog
