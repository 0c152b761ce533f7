package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/PraverBajaj/doobie/internal/driver"
	"github.com/PraverBajaj/doobie/internal/postgres"
	"github.com/PraverBajaj/doobie/internal/sqlite"
)

// ValidDrivers defines the supported database drivers.
var ValidDrivers = []string{"sqlite", "postgres"}

// openConn opens a connection for the chosen driver. For sqlite the DSN is a
// file path; for postgres a connection URL.
func openConn(ctx context.Context, driverName, dsn string) (driver.Conn, error) {
	switch driverName {
	case "sqlite":
		return sqlite.Open(dsn)
	case "postgres":
		return postgres.Connect(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown driver %q: must be one of %v", driverName, ValidDrivers)
	}
}

// parseArgs converts command line argument strings into bind values:
// integers and floats become numbers, "null" becomes nil, everything else
// stays a string.
func parseArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = parseArg(s)
	}
	return out
}

func parseArg(s string) any {
	if s == "null" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
