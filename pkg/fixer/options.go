package fixer

import (
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/stackvity/arabfix/pkg/fixer/signature"
)

// ProbeOptions configures the probe pipeline.
type ProbeOptions struct {
	// Encodings are tried in order; the first strict decode containing a
	// marker wins.
	Encodings []string `mapstructure:"encodings"`
	Markers   []string `mapstructure:"markers"`
	// Newline is "keep", "crlf" or "lf". Empty keeps line endings.
	Newline string `mapstructure:"newline"`
}

// PatchOptions configures the patch pipeline.
type PatchOptions struct {
	// Encodings are tried in order by the lenient reader. Since undecodable
	// bytes are dropped, the first entry effectively always wins.
	Encodings []string `mapstructure:"encodings"`
	// Newline is "keep", "crlf" or "lf". Empty keeps line endings.
	Newline string `mapstructure:"newline"`
	// TableFile points to a YAML signature table. It takes precedence over Rules.
	TableFile string `mapstructure:"table"`
	// Rules is an inline signature table. Empty means signature.DefaultTable.
	Rules []signature.Rule `mapstructure:"rules"`
}

// Options holds the configuration for a single run.
type Options struct {
	// --- Input Selection ---
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"`

	// --- Behavior & Control ---
	Pipeline     Pipeline     `mapstructure:"-"` // chosen by the subcommand
	DryRun       bool         `mapstructure:"dryRun"`
	Verify       bool         `mapstructure:"verify"`
	SkipBinary   bool         `mapstructure:"skipBinary"`
	OnErrorMode  OnErrorMode  `mapstructure:"onError"`
	OutputFormat OutputFormat `mapstructure:"outputFormat"`
	Verbose      bool         `mapstructure:"verbose"`

	// --- Pipelines ---
	Probe ProbeOptions `mapstructure:"probe"`
	Patch PatchOptions `mapstructure:"patch"`

	// --- Derived / Informational ---
	AppVersion     string `mapstructure:"-"`
	ConfigFilePath string `mapstructure:"-"`
	ProfileName    string `mapstructure:"-"`

	// --- Dependencies ---
	Logger     slog.Handler `mapstructure:"-"`
	EventHooks Hooks        `mapstructure:"-"`
	FileSystem FileSystem   `mapstructure:"-"`
}

// Hooks defines callbacks for status updates during a run.
type Hooks interface {
	OnFileDiscovered(path string) error
	OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnFileDiscovered implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileDiscovered(path string) error { return nil }

// OnFileStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error {
	return nil
}

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// FileSystem is the file access the engine needs. Tests substitute it to
// inject I/O failures.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (fs.FileInfo, error)
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

// ReadFile implements FileSystem.
func (OSFileSystem) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// WriteFile implements FileSystem.
func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Stat implements FileSystem.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
