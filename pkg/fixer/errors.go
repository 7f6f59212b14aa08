package fixer

import "errors"

// These errors represent specific categories of issues returned by NewEngine
// and Run or recorded in Report.Errors. Check against them using errors.Is.
var (
	// ErrReadFailed indicates a failure to read a file, e.g. it was removed
	// after discovery or permissions deny access.
	ErrReadFailed = errors.New("failed to read file")

	// ErrStatFailed indicates a failure to stat a discovered file.
	ErrStatFailed = errors.New("failed to get file stats")

	// ErrWriteFailed indicates a failure to overwrite a file with the
	// repaired content. The original content may already be lost.
	ErrWriteFailed = errors.New("failed to write file")

	// ErrVerifyFailed indicates the post-write check found content on disk
	// that differs from what was written or is not valid UTF-8.
	ErrVerifyFailed = errors.New("post-write verification failed")

	// ErrBinaryFile indicates a matched file looks like binary data.
	ErrBinaryFile = errors.New("binary file encountered")

	// ErrDiscoveryFailed indicates the file pattern could not be evaluated.
	// This is fatal to the run.
	ErrDiscoveryFailed = errors.New("failed to list files")

	// ErrConfigValidation indicates that Options failed validation in NewEngine.
	ErrConfigValidation = errors.New("invalid configuration options provided")
)
