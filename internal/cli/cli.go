package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/stackvity/arabfix/internal/cli/hooks"
	"github.com/stackvity/arabfix/internal/cli/ui"
	"github.com/stackvity/arabfix/pkg/fixer"
)

// Run orchestrates the main application logic after configuration loading.
// Status lines go to stdout, or to stderr when a JSON report is requested so
// that stdout holds only the report.
func Run(ctx context.Context, opts fixer.Options, logger *slog.Logger, stdout, stderr io.Writer, styled bool) error {
	statusOut := stdout
	if opts.OutputFormat == fixer.OutputFormatJSON {
		statusOut = stderr
	}
	opts.EventHooks = hooks.NewCLIHooks(logger, ui.NewConsole(styled), statusOut, opts.Pipeline, opts.Verbose)

	engine, err := fixer.NewEngine(opts)
	if err != nil {
		logger.Error("Failed to initialize", slog.Any("error", err))
		return err
	}

	report, runErr := engine.Run(ctx)

	if opts.OutputFormat == fixer.OutputFormatJSON {
		if err := writeJSONReport(stdout, report); err != nil {
			logger.Error("Failed to write JSON report", slog.Any("error", err))
			if runErr == nil {
				runErr = err
			}
		}
	}

	if runErr != nil {
		logger.Error("Run finished with error", slog.Any("error", runErr))
		return runErr
	}

	logger.Debug("Run finished",
		slog.Int("succeeded", report.Summary.SucceededCount),
		slog.Int("failed", report.Summary.FailedCount),
	)
	return nil
}

func writeJSONReport(w io.Writer, report fixer.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
