// Package driver defines the narrow capability interfaces the execution core
// requires from a database driver: connections that prepare statements,
// statements that bind parameters and execute, and cursors that fetch rows
// incrementally.
//
// The interfaces are deliberately small. A driver adapter (see the sqlite and
// postgres packages) implements them over a concrete client library; the
// execution core never imports a client library directly. Test doubles
// implement them over scripted in-memory data (see the testutil package).
//
// Ownership rules:
//   - A Stmt is exclusively owned by one in-flight execution and must be
//     closed exactly once, on every exit path.
//   - A Cursor is nested inside its Stmt's lifetime and must be closed
//     before (or together with) the Stmt.
//   - Neither handle may be used after Close.
package driver
