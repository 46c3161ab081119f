package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the boxed title printed at the start of a command.
type Header struct {
	Title   string  // e.g. "CAPTURE ANALYSIS"
	Command string  // e.g. "whoomp analyze session.jsonl"
	Params  []Field // shown below a divider, in order
	Width   int
}

// NewHeader creates a header sized to the terminal.
func NewHeader(title, command string, params ...Field) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the width for rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	)

	content := top
	if len(h.Params) > 0 {
		content = lipgloss.JoinVertical(lipgloss.Left,
			top,
			RenderHorizontalDivider(width-6),
			renderFields(h.Params, "  "),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}

// renderFields aligns keys to the longest one.
func renderFields(fields []Field, indent string) string {
	keyWidth := 0
	for _, f := range fields {
		if w := lipgloss.Width(f.Key) + 1; w > keyWidth {
			keyWidth = w
		}
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		key := KeyStyle.Width(keyWidth).Render(f.Key + ":")
		lines = append(lines, indent+key+" "+ValueStyle.Render(f.Value))
	}
	return strings.Join(lines, "\n")
}
