// Package store provides SQLite-backed storage for round traces.
//
// Every completed platform cycle can be recorded as one row in the rounds
// table, keyed by (run_id, device_id, round). The trace lets an operator
// inspect how values propagated through a deployment after the fact.
//
// # Patterns
//
// Idempotent writes
//   - UNIQUE(run_id, device_id, round) with ON CONFLICT DO NOTHING
//   - Re-recording a round is silently ignored
//
// Deterministic reads
//   - All queries order by run_id, device_id, round
//   - Exports are stored as canonical JSON, so equal exports are equal text
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
