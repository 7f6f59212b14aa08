package fixer

// Status defines the possible processing states of a file during a run.
type Status string

// Constants representing the defined file processing statuses.
const (
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFallback   Status = "fallback" // succeeded via lossy UTF-8 decoding
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// Pipeline selects how each file is repaired.
type Pipeline string

const (
	// PipelineProbe guesses the legacy encoding from marker text and re-saves as UTF-8.
	PipelineProbe Pipeline = "probe"
	// PipelinePatch decodes permissively and applies the signature table.
	PipelinePatch Pipeline = "patch"
)

// OnErrorMode defines the behavior when a single file fails.
type OnErrorMode string

const (
	OnErrorContinue OnErrorMode = "continue"
	OnErrorStop     OnErrorMode = "stop"
)

// OutputFormat defines the format of the final report printed by the CLI.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)
