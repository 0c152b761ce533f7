package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/PraverBajaj/doobie/internal/driver"
	"github.com/PraverBajaj/doobie/internal/exec"
	"github.com/PraverBajaj/doobie/internal/stream"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Driver  string
	DSN     string
	Label   string
	Chunk   int
	Timeout time.Duration
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "Execute a query and stream its rows",
		Long: `Execute a query and stream its rows in chunks.

Positional arguments after the SQL text are bound to ? placeholders in
order. Integers and floats are bound as numbers, "null" as NULL, anything
else as text. The connection comes from --dsn, falling back to the
config file named by --config.

Examples:
  doobie query --dsn app.db "SELECT id, email FROM users WHERE tier = ?" 3
  doobie query --driver postgres --dsn "postgres://app@localhost/app" "SELECT count(*) FROM events"
  doobie --config doobie.yaml query --chunk 500 --format json "SELECT * FROM big_table"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryCmd(opts, args[0], parseArgs(args[1:]), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "sqlite", "database driver (sqlite|postgres)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "connection string (file path for sqlite)")
	cmd.Flags().StringVar(&opts.Label, "label", "cli.query", "call site label attached to log events")
	cmd.Flags().IntVar(&opts.Chunk, "chunk", stream.DefaultChunkSize, "rows per fetch")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "overall statement timeout (0 = none)")

	return cmd
}

func runQueryCmd(opts *QueryOptions, query string, args []any, cmd *cobra.Command) error {
	cfg, err := loadConfigIfSet(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	driverName := opts.Driver
	if !cmd.Flags().Changed("driver") && cfg.Driver != "" {
		driverName = cfg.Driver
	}
	dsn := opts.DSN
	if dsn == "" {
		dsn = cfg.DSN
	}
	if dsn == "" {
		return NewExitError(ExitCommandError, "no connection: pass --dsn or set dsn in the config file")
	}
	chunk := opts.Chunk
	if !cmd.Flags().Changed("chunk") && cfg.Chunk > 0 {
		chunk = cfg.Chunk
	}

	ctx := cmd.Context()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	conn, err := openConn(ctx, driverName, dsn)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening connection", err)
	}
	defer conn.Close()

	ex := newExecutor(opts.RootOptions, cmd.ErrOrStderr())

	var rows [][]any
	for batch, err := range stream.Query(ctx, ex, conn, opts.Label, query, args, decodeRaw, chunk) {
		if err != nil {
			_ = out.Error(string(exec.CodeOf(err)), err.Error())
			return WrapExitError(ExitFailure, "query failed", err)
		}
		if opts.Format == "json" {
			rows = append(rows, batch...)
			continue
		}
		for _, row := range batch {
			fmt.Fprintln(cmd.OutOrStdout(), rowText(row))
		}
	}

	if err := conn.Commit(ctx); err != nil {
		return WrapExitError(ExitFailure, "commit failed", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"rows": rows})
	}
	return nil
}

// decodeRaw passes rows through as value slices; the CLI formats them itself.
func decodeRaw(row driver.Row) ([]any, error) {
	return append([]any(nil), row...), nil
}

// rowText renders one row as tab-separated values.
func rowText(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			parts[i] = "NULL"
			continue
		}
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "\t")
}
