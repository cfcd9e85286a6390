// Package store provides SQLite-backed durable storage for parse logs.
//
// A run is one batch of parse requests compiled with one configuration.
// Each parse records the request (dialect, charset, text), its outcome and,
// on success, the fingerprint and canonical JSON of the AST. The log is
// append-only and lets a later build replay every request to check that
// the frontend still produces byte-identical results.
//
// # Ordering
//
// Runs and parses carry seq numbers from the engine's logical clock. Every
// read orders by seq, then id with COLLATE BINARY, so results are identical
// across processes and platforms. Wall-clock time is never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
