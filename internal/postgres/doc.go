// Package postgres adapts a PostgreSQL connection (via jackc/pgx) to the
// driver capability interfaces consumed by the execution core.
//
// Statements are server-side prepared and deallocated on close. Cancel is a
// real wire-level cancel request (pgx's CancelRequest), which stops an
// in-flight statement server-side instead of merely abandoning it.
package postgres
