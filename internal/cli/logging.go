package cli

import (
	"io"
	"log/slog"

	"github.com/PraverBajaj/doobie/internal/exec"
)

// NewEventLogger returns a log handler writing every lifecycle event as a
// structured record. The handler never fails, so logging problems cannot
// supersede a statement's own outcome in the CLI.
func NewEventLogger(logger *slog.Logger) exec.LogHandler {
	return func(ev exec.Event) error {
		attrs := []any{
			slog.String("call", ev.Info.ID),
			slog.String("label", ev.Info.Label),
			slog.String("sql", ev.Info.SQL),
			slog.Any("args", ev.Info.Args),
			slog.Duration("exec", ev.ExecDuration),
			slog.Duration("process", ev.ProcessDuration),
		}
		if ev.Kind == exec.KindSuccess {
			logger.Info("statement succeeded", attrs...)
			return nil
		}
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
		logger.Error("statement failed", attrs...)
		return nil
	}
}

// newExecutor builds the executor for one CLI invocation. Verbose mode wires
// a structured event logger to errW; arguments are always redacted before
// logging since CLI invocations routinely carry DSNs and secrets.
func newExecutor(opts *RootOptions, errW io.Writer) *exec.Executor {
	eopts := []exec.Option{exec.WithRedaction()}
	if opts.Verbose {
		logger := slog.New(slog.NewTextHandler(errW, nil))
		eopts = append(eopts, exec.WithHandler(NewEventLogger(logger)))
	}
	return exec.New(eopts...)
}
