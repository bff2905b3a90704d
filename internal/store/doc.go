// Package store provides SQLite-backed storage for compiled scripts and the
// log of project compile runs.
//
// # Tables
//
//   - compiled_scripts: assembly output keyed by script hash
//   - compile_runs: one record per project compile, ok or failed
//   - run_scripts: the scripts of a successful run, in project order
//
// # Ordering
//
// Rows are stamped with a logical seq from the store's clock, never a wall
// time. Queries order by seq, then id, so listings are stable.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Script hashes are computed by ir.ScriptHash; the store treats them as
// opaque keys.
package store
