// Package store provides SQLite-backed durable storage for the translation
// audit log.
//
// Every request that reaches the translation pipeline is recorded once, with
// its outcome:
//   - compiled: the IR passed validation; the emitted SQL is stored
//   - rejected: validation failed; the error code and message are stored
//   - failed: the catalog could not be consulted
//
// # Ordering
//
// Records are ordered by seq, a per-database logical counter assigned on
// insert. Wall-clock time is never stored or used for ordering, so two logs
// built from the same request sequence are identical apart from record ids.
//
// # Identity
//
// Record ids are UUIDv7 strings supplied by the caller. Writes are idempotent
// on id: re-recording the same id is a no-op.
//
// The IR is stored as canonical JSON (queryir.MarshalCanonical) next to its
// fingerprint, so identical queries can be grouped with ReadByFingerprint.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
