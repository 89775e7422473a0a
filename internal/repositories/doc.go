// Package repositories implements SQLite persistence for the run audit log.
//
// Repositories handle CRUD operations with atomic sequence generation for human-readable ordering.
// Runs support soft deletes via deleted_at timestamps and deleted runs are excluded from queries by default.
//
// Key Implementations:
//   - [RunRepository] : Import and reconcile runs with status tracking and their discrepancy rows
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
