package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/PraverBajaj/doobie/internal/exec"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Driver  string
	DSN     string
	Label   string
	Timeout time.Duration
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <sql> [args...]",
		Short: "Execute a statement and report affected rows",
		Long: `Execute a statement that returns no rows (INSERT, UPDATE, DELETE, DDL)
and report the affected row count. The statement is committed on success
and rolled back on failure. The connection comes from --dsn, falling
back to the config file named by --config.

Examples:
  doobie exec --dsn app.db "DELETE FROM sessions WHERE expires_at < ?" 1700000000
  doobie exec --driver postgres --dsn "postgres://app@localhost/app" "UPDATE users SET active = false WHERE id = ?" 42`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecCmd(opts, args[0], parseArgs(args[1:]), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "sqlite", "database driver (sqlite|postgres)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "connection string (file path for sqlite)")
	cmd.Flags().StringVar(&opts.Label, "label", "cli.exec", "call site label attached to log events")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "overall statement timeout (0 = none)")

	return cmd
}

func runExecCmd(opts *ExecOptions, query string, args []any, cmd *cobra.Command) error {
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

	affected, err := exec.Transact(ctx, conn, func(ctx context.Context) (int64, error) {
		return exec.Exec(ctx, ex, conn, opts.Label, query, args...)
	})
	if err != nil {
		_ = out.Error(string(exec.CodeOf(err)), err.Error())
		return WrapExitError(ExitFailure, "statement failed", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"rows_affected": affected})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rows affected: %d\n", affected)
	return nil
}
