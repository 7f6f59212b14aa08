package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// Engine drives a batch run: it lists the matching files and hands each one
// to the FileProcessor in turn. Files are processed sequentially.
type Engine struct {
	opts      *Options
	logger    *slog.Logger
	processor *FileProcessor
}

// NewEngine validates opts, fills in defaults and prepares the processor.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	if opts.EventHooks == nil {
		opts.EventHooks = &NoOpHooks{}
	}
	if opts.FileSystem == nil {
		opts.FileSystem = OSFileSystem{}
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "engine"))

	applyDefaults(&opts)

	if !slices.Contains([]Pipeline{PipelineProbe, PipelinePatch}, opts.Pipeline) {
		return nil, fmt.Errorf("%w: unknown pipeline %q", ErrConfigValidation, opts.Pipeline)
	}
	if !slices.Contains([]OnErrorMode{OnErrorContinue, OnErrorStop}, opts.OnErrorMode) {
		return nil, fmt.Errorf("%w: invalid onError mode %q", ErrConfigValidation, opts.OnErrorMode)
	}
	if _, err := filepath.Match(opts.Pattern, ""); err != nil {
		return nil, fmt.Errorf("%w: invalid pattern %q: %w", ErrConfigValidation, opts.Pattern, err)
	}

	processor, err := NewFileProcessor(&opts, opts.Logger)
	if err != nil {
		return nil, err
	}

	return &Engine{opts: &opts, logger: logger, processor: processor}, nil
}

// applyDefaults fills zero values so library callers need not go through
// the CLI configuration layer.
func applyDefaults(opts *Options) {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.Pipeline == "" {
		opts.Pipeline = DefaultPipeline
	}
	if opts.OnErrorMode == "" {
		opts.OnErrorMode = DefaultOnErrorMode
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = DefaultOutputFormat
	}
	if len(opts.Probe.Encodings) == 0 {
		opts.Probe.Encodings = DefaultProbeEncodings()
	}
	if len(opts.Probe.Markers) == 0 {
		opts.Probe.Markers = DefaultMarkers()
	}
	if opts.Probe.Newline == "" {
		opts.Probe.Newline = string(DefaultProbeNewline)
	}
	if len(opts.Patch.Encodings) == 0 {
		opts.Patch.Encodings = DefaultPatchEncodings()
	}
	if opts.Patch.Newline == "" {
		opts.Patch.Newline = string(DefaultPatchNewline)
	}
}

// Options returns the effective options after defaults were applied.
func (e *Engine) Options() Options { return *e.opts }

// Processor exposes the file processor, e.g. to inspect the active table.
func (e *Engine) Processor() *FileProcessor { return e.processor }

// Discover lists files in Dir whose base name matches Pattern, sorted by
// name. Subdirectories are not descended into. Dotfiles match only when the
// pattern itself starts with a dot.
func (e *Engine) Discover() ([]string, error) {
	entries, err := os.ReadDir(e.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscoveryFailed, err)
	}
	hiddenPattern := strings.HasPrefix(e.opts.Pattern, ".")
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (strings.HasPrefix(name, ".") && !hiddenPattern) {
			continue
		}
		ok, matchErr := filepath.Match(e.opts.Pattern, name)
		if matchErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrDiscoveryFailed, matchErr)
		}
		if ok {
			files = append(files, filepath.Join(e.opts.Dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every discovered file. Per-file failures are recorded in the
// report; the returned error is non-nil only when discovery fails, the
// context is cancelled, or onError=stop ends the run.
func (e *Engine) Run(ctx context.Context) (report Report, finalErr error) {
	startTime := time.Now()
	aggregator := newReportAggregator()
	stopped := false
	discovered := false

	defer func() {
		report = aggregator.getReport(e.opts, startTime, stopped)
		e.logger.Info("Run finished",
			slog.String("pipeline", string(e.opts.Pipeline)),
			slog.Duration("duration", time.Since(startTime)),
			slog.Int("succeeded", report.Summary.SucceededCount),
			slog.Int("fallback", report.Summary.FallbackCount),
			slog.Int("skipped", report.Summary.SkippedCount),
			slog.Int("failed", report.Summary.FailedCount),
		)
		if !discovered {
			return
		}
		if hookErr := e.opts.EventHooks.OnRunComplete(report); hookErr != nil {
			e.logger.Warn("OnRunComplete hook returned an error", slog.String("error", hookErr.Error()))
		}
	}()

	files, err := e.Discover()
	if err != nil {
		e.logger.Error("File discovery failed", slog.String("error", err.Error()))
		stopped = true
		return report, err
	}
	discovered = true
	e.logger.Info("Starting run",
		slog.String("pipeline", string(e.opts.Pipeline)),
		slog.String("dir", e.opts.Dir),
		slog.String("pattern", e.opts.Pattern),
		slog.Int("files", len(files)),
		slog.Bool("dryRun", e.opts.DryRun),
	)

	for _, path := range files {
		e.notify(func(h Hooks) error { return h.OnFileDiscovered(path) })
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			e.logger.Info("Run cancelled", slog.String("nextFile", path))
			stopped = true
			return report, err
		}

		e.notify(func(h Hooks) error { return h.OnFileStatusUpdate(path, StatusProcessing, "", 0) })
		outcome := e.processor.Process(ctx, path)
		aggregator.add(outcome)

		message := outcome.Encoding
		switch outcome.Status {
		case StatusFailed:
			message = outcome.Error
		case StatusSkipped:
			message = outcome.SkipReason
		}
		duration := time.Duration(outcome.DurationMs) * time.Millisecond
		e.notify(func(h Hooks) error { return h.OnFileStatusUpdate(path, outcome.Status, message, duration) })

		if outcome.Status == StatusFailed && e.opts.OnErrorMode == OnErrorStop {
			e.logger.Error("Stopping after failure (onError=stop)", slog.String("path", path), slog.String("error", outcome.Error))
			stopped = true
			return report, fmt.Errorf("stopped after failure on '%s': %w", path, outcome.Err())
		}
	}

	return report, nil
}

func (e *Engine) notify(call func(Hooks) error) {
	if err := call(e.opts.EventHooks); err != nil {
		e.logger.Warn("Hook returned an error", slog.String("error", err.Error()))
	}
}
