package fixer

import "github.com/stackvity/arabfix/pkg/fixer/writer"

// Constants defining default values for configuration options.
// These are used when setting up Viper defaults in the configuration loading process.
const (
	// DefaultDir is the directory scanned when none is configured.
	DefaultDir = "."
	// DefaultPattern selects the files to repair. Matching is not recursive.
	DefaultPattern = "*.html"
	// DefaultPipeline is used by the library when Options.Pipeline is empty.
	DefaultPipeline = PipelineProbe
	// DefaultOnErrorMode keeps going after a failed file.
	DefaultOnErrorMode = OnErrorContinue
	// DefaultOutputFormat is the default format for the final report.
	DefaultOutputFormat = OutputFormatText
	// DefaultDryRun is the default state for dry-run mode.
	DefaultDryRun = false
	// DefaultVerify is the default state for post-write verification.
	DefaultVerify = false
	// DefaultSkipBinary is the default state for the binary content guard.
	// Off: files holding NUL bytes (UTF-16 pages) still go through the pipeline.
	DefaultSkipBinary = false
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
	// DefaultProbeNewline leaves line endings as decoded.
	DefaultProbeNewline = writer.NewlineKeep
	// DefaultPatchNewline rewrites line endings as CRLF.
	DefaultPatchNewline = writer.NewlineCRLF
)

// DefaultProbeEncodings are tried by the probe pipeline, Arabic legacy
// encodings first and UTF-8 last.
func DefaultProbeEncodings() []string {
	return []string{"cp1256", "windows-1256", "iso-8859-6", "utf-8"}
}

// DefaultPatchEncodings are tried by the patch pipeline's lenient reader.
func DefaultPatchEncodings() []string {
	return []string{"utf-8", "cp1256", "windows-1256", "iso-8859-6", "latin-1"}
}

// DefaultMarkers signal a plausible decode: the first is windows-1256 Arabic
// misread as Latin-1, the second is correctly decoded Arabic.
func DefaultMarkers() []string {
	return []string{"ÇáãÊÌÑ", "الم"}
}

// ReportSchemaVersion indicates the version of the JSON report structure.
const ReportSchemaVersion = "1.0"

// Constants defining skip reasons used in the Report.
const (
	SkipReasonBinary = "binary_file"
)
