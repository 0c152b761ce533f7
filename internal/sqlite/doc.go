// Package sqlite adapts a SQLite database (via mattn/go-sqlite3 and
// database/sql) to the driver capability interfaces consumed by the
// execution core.
//
// The adapter follows the JDBC-style connection model the core assumes: a
// connection implicitly opens a transaction on first statement preparation,
// and Commit/Rollback close that boundary. Statement cancellation is wired
// through the exec-scoped context, which go-sqlite3 honors by interrupting
// the running statement.
package sqlite
