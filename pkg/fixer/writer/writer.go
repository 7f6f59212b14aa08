// Package writer re-emits decoded text as UTF-8, optionally normalizing
// line endings, and overwrites the target file in place.
package writer

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// NewlineMode selects the line ending written to disk.
type NewlineMode string

const (
	// NewlineKeep writes the text exactly as decoded.
	NewlineKeep NewlineMode = "keep"
	// NewlineCRLF rewrites every line ending as \r\n.
	NewlineCRLF NewlineMode = "crlf"
	// NewlineLF rewrites every line ending as \n.
	NewlineLF NewlineMode = "lf"
)

// ErrInvalidNewline is returned by ParseNewlineMode for unknown modes.
var ErrInvalidNewline = errors.New("invalid newline mode")

// NewlineModes lists the accepted modes.
var NewlineModes = []NewlineMode{NewlineKeep, NewlineCRLF, NewlineLF}

// ParseNewlineMode validates a configured mode. Empty means keep.
func ParseNewlineMode(s string) (NewlineMode, error) {
	if s == "" {
		return NewlineKeep, nil
	}
	m := NewlineMode(strings.ToLower(s))
	if !slices.Contains(NewlineModes, m) {
		return "", fmt.Errorf("%w: %q (allowed: %v)", ErrInvalidNewline, s, NewlineModes)
	}
	return m, nil
}

// Normalize folds \r\n and lone \r into \n, then expands \n to the mode's
// sequence. NewlineKeep returns text untouched.
func Normalize(text string, mode NewlineMode) string {
	if mode == NewlineKeep || mode == "" {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if mode == NewlineCRLF {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	return text
}

// FileWriter is the write half of a file system.
type FileWriter interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// Writer overwrites files with UTF-8 content. There is no backup: a failed
// or wrong write leaves the original unrecoverable.
type Writer struct {
	fs      FileWriter
	newline NewlineMode
}

// New creates a Writer.
func New(fs FileWriter, newline NewlineMode) *Writer {
	return &Writer{fs: fs, newline: newline}
}

// Encode returns the bytes Write would put on disk.
func (w *Writer) Encode(text string) []byte {
	// Go strings decoded by this tool are already UTF-8.
	return []byte(Normalize(text, w.newline))
}

// Write overwrites path and returns the bytes written.
func (w *Writer) Write(path, text string, perm os.FileMode) ([]byte, error) {
	data := w.Encode(text)
	if err := w.fs.WriteFile(path, data, perm); err != nil {
		return nil, err
	}
	return data, nil
}
