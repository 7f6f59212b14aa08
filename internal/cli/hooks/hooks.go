package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stackvity/arabfix/internal/cli/ui"
	"github.com/stackvity/arabfix/pkg/fixer"
)

// CLIHooks implements the fixer.Hooks interface, bridging library events to
// console status lines and the logger.
type CLIHooks struct {
	logger         *slog.Logger
	console        *ui.Console
	out            io.Writer
	pipeline       fixer.Pipeline
	verboseEnabled bool
	discovered     int
	headerPrinted  bool
}

// NewCLIHooks creates a new CLIHooks instance writing status lines to out.
func NewCLIHooks(logger *slog.Logger, console *ui.Console, out io.Writer, pipeline fixer.Pipeline, verboseEnabled bool) *CLIHooks {
	return &CLIHooks{
		logger:         logger,
		console:        console,
		out:            out,
		pipeline:       pipeline,
		verboseEnabled: verboseEnabled,
	}
}

// OnFileDiscovered counts matched files for the header line.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	h.discovered++
	if h.verboseEnabled {
		h.logger.Debug("File discovered", "path", path)
	}
	return nil
}

// OnFileStatusUpdate prints one line per file once it reaches a final state.
func (h *CLIHooks) OnFileStatusUpdate(path string, status fixer.Status, message string, duration time.Duration) error {
	if status == fixer.StatusProcessing {
		return h.printHeader()
	}

	if h.verboseEnabled {
		logLevel := slog.LevelInfo
		attrs := []any{
			slog.String("path", path),
			slog.String("status", string(status)),
		}
		if duration > 0 {
			attrs = append(attrs, slog.Duration("duration", duration))
		}
		if message != "" {
			logKey := "message"
			if status == fixer.StatusFailed {
				logKey = "error"
				logLevel = slog.LevelError
			}
			attrs = append(attrs, slog.String(logKey, message))
		}
		h.logger.Log(context.Background(), logLevel, "File status updated", attrs...)
	}

	if line := h.console.FileLine(path, status, message, duration); line != "" {
		_, err := fmt.Fprintln(h.out, line)
		return err
	}
	return nil
}

// OnRunComplete prints the summary tally.
func (h *CLIHooks) OnRunComplete(report fixer.Report) error {
	if err := h.printHeader(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(h.out, h.console.Summary(report))
	return err
}

func (h *CLIHooks) printHeader() error {
	if h.headerPrinted {
		return nil
	}
	h.headerPrinted = true
	_, err := fmt.Fprintln(h.out, h.console.Header(h.pipeline, h.discovered))
	return err
}
