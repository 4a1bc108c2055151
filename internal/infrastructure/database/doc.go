// Package database provides SQLite connection management for Hearth Core.
//
// It wraps database/sql with:
//   - WAL mode and foreign-key pragmas for safe concurrent access
//   - Embedded schema migrations applied at startup
//   - Health checks and lifecycle management
//
// SQLite supports a single writer; the pool is capped at one connection,
// which serialises all writes through the database layer.
package database
