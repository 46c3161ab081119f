package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result is the boxed outcome printed at the end of a command.
type Result struct {
	Type    ResultType
	Title   string
	Details []Field
	Error   error    // failure only
	Hints   []string // failure only, shown as bullet points
	Width   int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Field) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, hints ...string) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err, Hints: hints, Width: GetTerminalWidth()}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Field) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

// SetWidth sets the width for rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var title string
	var color lipgloss.Color
	switch r.Type {
	case ResultFailure:
		title = ErrorTitleStyle.Render(FailureMarker + "  FAILED  ─  " + r.Title)
		color = ErrorColor
	case ResultWarning:
		title = WarningStyle.Bold(true).Render("!  WARNING  ─  " + r.Title)
		color = WarningColor
	default:
		title = SuccessTitleStyle.Render(SuccessMarker + "  SUCCESS  ─  " + r.Title)
		color = SuccessColor
	}

	lines := []string{title, ""}
	if len(r.Details) > 0 {
		lines = append(lines, renderFields(r.Details, ""), "")
	}
	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("Error: "+r.Error.Error()), "")
	}
	for _, hint := range r.Hints {
		lines = append(lines, MutedStyle.Render("  • "+hint))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(1, 2).
		Render(strings.TrimRight(strings.Join(lines, "\n"), "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
