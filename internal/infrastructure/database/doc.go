// Package database provides the SQLite connection for command history.
//
// The bridge's only persistent state is the optional command history table
// (internal/history); this package owns opening the file with the right
// pragmas (WAL, busy timeout, foreign keys), permissions and health checks,
// and nothing else. Schema bootstrap lives with the repository that owns
// the table.
package database
