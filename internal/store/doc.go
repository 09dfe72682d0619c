// Package store provides SQLite-backed run history.
//
// Every file run can be appended as one row in runs plus one row per
// classified record in records. The history is append-only: a run is
// written once, in a single transaction, after the snapshot flush.
//
// # Ordering
//
//   - Runs are listed newest first: ORDER BY started_at DESC, id DESC.
//     Run IDs are UUIDv7, so the id tie-break is also chronological.
//   - Records keep classification order via their seq column.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Paths and traces are stored as canonical JSON arrays (see internal/canon).
package store
