// Package ui renders per-file status lines and the final summary for the
// terminal.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stackvity/arabfix/pkg/fixer"
)

// Status colors (256-color palette).
const (
	ColorStatusSuccess  = lipgloss.Color("40")  // Green
	ColorStatusFallback = lipgloss.Color("39")  // Blue
	ColorStatusFailed   = lipgloss.Color("196") // Red
	ColorStatusSkipped  = lipgloss.Color("214") // Orange/Yellow
	ColorDim            = lipgloss.Color("244") // Dim gray
)

// Separator is printed between the file lines and the summary.
var Separator = strings.Repeat("=", 60)

// nameWidth pads file names so the encoding column lines up.
const nameWidth = 30

// Styles groups the styles used by Console.
type Styles struct {
	Success  lipgloss.Style
	Fallback lipgloss.Style
	Failed   lipgloss.Style
	Skipped  lipgloss.Style
	Dim      lipgloss.Style
}

// Console formats output lines. It holds no writer; callers decide where
// lines go.
type Console struct {
	styles Styles
}

// NewConsole creates a Console. With styled=false every style is a no-op,
// which keeps piped output free of escape sequences.
func NewConsole(styled bool) *Console {
	plain := lipgloss.NewStyle()
	if !styled {
		return &Console{styles: Styles{plain, plain, plain, plain, plain}}
	}
	return &Console{styles: Styles{
		Success:  lipgloss.NewStyle().Foreground(ColorStatusSuccess),
		Fallback: lipgloss.NewStyle().Foreground(ColorStatusFallback),
		Failed:   lipgloss.NewStyle().Foreground(ColorStatusFailed).Bold(true),
		Skipped:  lipgloss.NewStyle().Foreground(ColorStatusSkipped),
		Dim:      lipgloss.NewStyle().Foreground(ColorDim),
	}}
}

// Header is printed before processing starts.
func (c *Console) Header(pipeline fixer.Pipeline, count int) string {
	return fmt.Sprintf("Found %d files (%s)\n%s", count, pipeline, Separator)
}

// FileLine renders the status line for a file that reached a final state.
// It returns "" for intermediate states.
func (c *Console) FileLine(path string, status fixer.Status, message string, duration time.Duration) string {
	name := fmt.Sprintf("%-*s", nameWidth, filepath.Base(path))
	dur := ""
	if d := formatDuration(duration); d != "" {
		dur = " " + c.styles.Dim.Render(d)
	}
	switch status {
	case fixer.StatusSuccess:
		return fmt.Sprintf("%s %s (%s -> UTF-8)%s", c.styles.Success.Render("✓"), name, message, dur)
	case fixer.StatusFallback:
		return fmt.Sprintf("%s %s (%s fallback, undecodable bytes dropped)%s", c.styles.Fallback.Render("✓"), name, message, dur)
	case fixer.StatusSkipped:
		return fmt.Sprintf("%s %s skipped: %s", c.styles.Skipped.Render("-"), name, message)
	case fixer.StatusFailed:
		return fmt.Sprintf("%s %s ERROR: %s", c.styles.Failed.Render("✗"), name, message)
	default:
		return ""
	}
}

// Summary renders the closing tally.
func (c *Console) Summary(report fixer.Report) string {
	s := report.Summary
	var b strings.Builder
	b.WriteString(Separator)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Results: %s succeeded, %s failed",
		c.styles.Success.Render(fmt.Sprint(s.SucceededCount)),
		c.styles.Failed.Render(fmt.Sprint(s.FailedCount)))
	if s.FallbackCount > 0 {
		fmt.Fprintf(&b, " (%d via fallback)", s.FallbackCount)
	}
	if s.SkippedCount > 0 {
		fmt.Fprintf(&b, ", %s skipped", c.styles.Skipped.Render(fmt.Sprint(s.SkippedCount)))
	}
	if s.DryRun {
		b.WriteString("\n" + c.styles.Dim.Render("Dry run: no files were written."))
	} else if s.SucceededCount > 0 {
		b.WriteString("\n" + c.styles.Dim.Render("Check the files manually; originals were overwritten without backup."))
	}
	return b.String()
}

// formatDuration formats duration for display.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
