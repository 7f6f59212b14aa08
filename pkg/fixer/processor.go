package fixer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/stackvity/arabfix/pkg/fixer/encoding"
	"github.com/stackvity/arabfix/pkg/fixer/signature"
	"github.com/stackvity/arabfix/pkg/fixer/writer"
)

// FileProcessor repairs a single file with the configured pipeline.
type FileProcessor struct {
	opts   *Options
	logger *slog.Logger
	fs     FileSystem
	prober *encoding.Prober
	reader *encoding.LenientReader
	table  signature.Table
	writer *writer.Writer
}

// NewFileProcessor resolves encodings, markers and the signature table for
// opts.Pipeline. Options are expected to carry defaults already (see NewEngine).
func NewFileProcessor(opts *Options, loggerHandler slog.Handler) (*FileProcessor, error) {
	p := &FileProcessor{
		opts:   opts,
		logger: slog.New(loggerHandler).With(slog.String("component", "processor")),
		fs:     opts.FileSystem,
	}

	var newlineSetting string
	switch opts.Pipeline {
	case PipelineProbe:
		candidates, err := encoding.LookupAll(opts.Probe.Encodings)
		if err != nil {
			return nil, fmt.Errorf("%w: probe.encodings: %w", ErrConfigValidation, err)
		}
		p.prober = encoding.NewProber(candidates, opts.Probe.Markers, loggerHandler)
		newlineSetting = opts.Probe.Newline
	case PipelinePatch:
		candidates, err := encoding.LookupAll(opts.Patch.Encodings)
		if err != nil {
			return nil, fmt.Errorf("%w: patch.encodings: %w", ErrConfigValidation, err)
		}
		p.reader = encoding.NewLenientReader(candidates)
		table, err := resolveTable(opts.Patch)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
		}
		p.table = table
		newlineSetting = opts.Patch.Newline
	default:
		return nil, fmt.Errorf("%w: unknown pipeline %q", ErrConfigValidation, opts.Pipeline)
	}

	newline, err := writer.ParseNewlineMode(newlineSetting)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	p.writer = writer.New(opts.FileSystem, newline)
	return p, nil
}

func resolveTable(po PatchOptions) (signature.Table, error) {
	if po.TableFile != "" {
		return signature.LoadFile(po.TableFile)
	}
	if len(po.Rules) > 0 {
		t := signature.Table(po.Rules)
		return t, t.Validate()
	}
	return signature.DefaultTable(), nil
}

// Table returns the signature table in effect (nil for the probe pipeline).
func (p *FileProcessor) Table() signature.Table { return p.table }

// Process reads, repairs and overwrites path. Errors are reported in the
// outcome rather than returned so one bad file cannot abort a batch.
func (p *FileProcessor) Process(ctx context.Context, path string) FileOutcome {
	start := time.Now()
	outcome := FileOutcome{Path: path}
	fail := func(err error) FileOutcome {
		outcome.Status = StatusFailed
		outcome.err = err
		outcome.Error = err.Error()
		outcome.DurationMs = time.Since(start).Milliseconds()
		p.logger.Debug("File failed", slog.String("path", path), slog.String("error", err.Error()))
		return outcome
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	info, err := p.fs.Stat(path)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrStatFailed, err))
	}
	raw, err := p.fs.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrReadFailed, err))
	}
	outcome.SizeIn = int64(len(raw))

	if p.opts.SkipBinary && encoding.IsBinary(raw) {
		outcome.Status = StatusSkipped
		outcome.SkipReason = SkipReasonBinary
		outcome.err = ErrBinaryFile
		outcome.DurationMs = time.Since(start).Milliseconds()
		p.logger.Debug("Skipping binary file", slog.String("path", path))
		return outcome
	}

	var text string
	outcome.Status = StatusSuccess
	switch p.opts.Pipeline {
	case PipelineProbe:
		res := p.prober.Probe(raw)
		text, outcome.Encoding = res.Text, res.Encoding
		if res.Fallback {
			outcome.Status = StatusFallback
		}
	case PipelinePatch:
		text, outcome.Encoding = p.reader.Read(raw)
		text, outcome.Substitutions = p.table.Apply(text)
		text, outcome.BOMStripped = signature.StripBOM(text)
	}

	data := p.writer.Encode(text)
	outcome.SizeOut = int64(len(data))
	outcome.Changed = !bytes.Equal(data, raw)

	if p.opts.DryRun {
		p.logger.Debug("Dry run, not writing", slog.String("path", path), slog.Bool("changed", outcome.Changed))
	} else {
		if _, err := p.writer.Write(path, text, info.Mode().Perm()); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrWriteFailed, err))
		}
		if p.opts.Verify {
			if err := p.verify(path, data); err != nil {
				return fail(err)
			}
		}
	}

	outcome.DurationMs = time.Since(start).Milliseconds()
	p.logger.Debug("File processed",
		slog.String("path", path),
		slog.String("status", string(outcome.Status)),
		slog.String("encoding", outcome.Encoding),
		slog.Int("substitutions", outcome.Substitutions),
		slog.Bool("changed", outcome.Changed),
	)
	return outcome
}

// verify re-reads path and checks it holds exactly the written UTF-8 bytes.
func (p *FileProcessor) verify(path string, written []byte) error {
	onDisk, err := p.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}
	if !bytes.Equal(onDisk, written) {
		return fmt.Errorf("%w: content on disk differs from content written (%d vs %d bytes)", ErrVerifyFailed, len(onDisk), len(written))
	}
	if !utf8.Valid(onDisk) {
		return fmt.Errorf("%w: content is not valid UTF-8", ErrVerifyFailed)
	}
	return nil
}
