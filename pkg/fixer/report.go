package fixer

import (
	"time"
)

// Report summarizes the result of a single run.
type Report struct {
	Summary      ReportSummary `json:"summary"`
	Files        []FileOutcome `json:"files"`
	SkippedFiles []SkippedInfo `json:"skippedFiles"`
	Errors       []ErrorInfo   `json:"errors"`
}

// ReportSummary contains aggregated statistics for a run.
type ReportSummary struct {
	Dir            string    `json:"dir"`
	Pattern        string    `json:"pattern"`
	Pipeline       Pipeline  `json:"pipeline"`
	ProfileUsed    string    `json:"profileUsed,omitempty"`
	ConfigFilePath string    `json:"configFilePath,omitempty"`
	TotalFiles     int       `json:"totalFiles"`
	SucceededCount int       `json:"succeededCount"` // includes fallback
	FallbackCount  int       `json:"fallbackCount"`
	SkippedCount   int       `json:"skippedCount"`
	FailedCount    int       `json:"failedCount"`
	ChangedCount   int       `json:"changedCount"`
	DryRun         bool      `json:"dryRun"`
	Stopped        bool      `json:"stopped"` // onError=stop or cancellation ended the run early
	DurationSec    float64   `json:"durationSeconds"`
	Timestamp      time.Time `json:"timestamp"`
	SchemaVersion  string    `json:"schemaVersion"`
}

// FileOutcome details how a single file was handled.
type FileOutcome struct {
	Path          string `json:"path"`
	Status        Status `json:"status"`
	Encoding      string `json:"encoding,omitempty"`
	Changed       bool   `json:"changed"`
	Substitutions int    `json:"substitutions,omitempty"`
	BOMStripped   bool   `json:"bomStripped,omitempty"`
	SizeIn        int64  `json:"sizeIn"`
	SizeOut       int64  `json:"sizeOut"`
	DurationMs    int64  `json:"durationMs"`
	Error         string `json:"error,omitempty"`
	SkipReason    string `json:"-"`
	err           error
}

// Err returns the underlying error of a failed outcome, or ErrBinaryFile
// for a file skipped by the binary guard.
func (o FileOutcome) Err() error { return o.err }

// Succeeded reports whether the file was repaired, with or without fallback.
func (o FileOutcome) Succeeded() bool {
	return o.Status == StatusSuccess || o.Status == StatusFallback
}

// SkippedInfo details a file that was intentionally left untouched.
type SkippedInfo struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ErrorInfo details an error encountered while processing a specific file.
type ErrorInfo struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// reportAggregator accumulates outcomes in processing order.
type reportAggregator struct {
	report Report
}

func newReportAggregator() *reportAggregator {
	return &reportAggregator{report: Report{
		Files:        []FileOutcome{},
		SkippedFiles: []SkippedInfo{},
		Errors:       []ErrorInfo{},
	}}
}

func (a *reportAggregator) add(o FileOutcome) {
	r := &a.report
	r.Files = append(r.Files, o)
	r.Summary.TotalFiles++
	switch o.Status {
	case StatusSuccess:
		r.Summary.SucceededCount++
	case StatusFallback:
		r.Summary.SucceededCount++
		r.Summary.FallbackCount++
	case StatusSkipped:
		r.Summary.SkippedCount++
		r.SkippedFiles = append(r.SkippedFiles, SkippedInfo{Path: o.Path, Reason: o.SkipReason})
	case StatusFailed:
		r.Summary.FailedCount++
		r.Errors = append(r.Errors, ErrorInfo{Path: o.Path, Error: o.Error})
	}
	if o.Changed {
		r.Summary.ChangedCount++
	}
}

func (a *reportAggregator) getReport(opts *Options, startTime time.Time, stopped bool) Report {
	r := a.report
	r.Summary.Dir = opts.Dir
	r.Summary.Pattern = opts.Pattern
	r.Summary.Pipeline = opts.Pipeline
	r.Summary.ProfileUsed = opts.ProfileName
	r.Summary.ConfigFilePath = opts.ConfigFilePath
	r.Summary.DryRun = opts.DryRun
	r.Summary.Stopped = stopped
	r.Summary.DurationSec = time.Since(startTime).Seconds()
	r.Summary.Timestamp = time.Now()
	r.Summary.SchemaVersion = ReportSchemaVersion
	return r
}
