package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
)

// Step represents a single step in a multi-step operation
type Step struct {
	Name    string
	Status  StepStatus
	Message string // optional, e.g. "12 frames"
}

// Progress renders a progress bar above a step list.
type Progress struct {
	Label string
	Steps []Step
	Width int
	bar   progress.Model
}

// NewProgress creates a progress display with one pending step per name.
func NewProgress(label string, names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name}
	}
	p := &Progress{Label: label, Steps: steps}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))
	return p
}

// Advance completes every earlier running step and starts step i (zero
// based). Its signature matches capture.ProgressFunc.
func (p *Progress) Advance(i int, name string) {
	if i < 0 || i >= len(p.Steps) {
		return
	}
	for j := 0; j < i; j++ {
		if p.Steps[j].Status != StepFailed {
			p.Steps[j].Status = StepComplete
		}
	}
	if name != "" {
		p.Steps[i].Name = name
	}
	p.Steps[i].Status = StepRunning
}

// Finish marks any running step complete.
func (p *Progress) Finish() {
	for i := range p.Steps {
		if p.Steps[i].Status == StepRunning {
			p.Steps[i].Status = StepComplete
		}
	}
}

// Fail marks the running step as failed with a message.
func (p *Progress) Fail(message string) {
	for i := range p.Steps {
		if p.Steps[i].Status == StepRunning {
			p.Steps[i].Status = StepFailed
			p.Steps[i].Message = message
			return
		}
	}
}

// Percent is the fraction of completed steps.
func (p *Progress) Percent() float64 {
	if len(p.Steps) == 0 {
		return 1
	}
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete {
			done++
		}
	}
	return float64(done) / float64(len(p.Steps))
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(HeaderTitleStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete {
			done++
		}
	}
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
		fmt.Sprintf("%s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent()), p.Percent()*100, done, len(p.Steps))))
	b.WriteString("\n\n")

	for i, s := range p.Steps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.renderStep(i, s))
	}
	return b.String()
}

func (p *Progress) renderStep(i int, s Step) string {
	var marker string
	var style lipgloss.Style
	switch s.Status {
	case StepComplete:
		marker, style = SuccessMarker, StepCompleteStyle
	case StepRunning:
		marker, style = RunningMarker, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	default:
		marker, style = PendingMarker, StepPendingStyle
	}

	padding := 40 - lipgloss.Width(s.Name)
	if padding < 1 {
		padding = 1
	}
	line := fmt.Sprintf("  [%d/%d] %s%s%s", i+1, len(p.Steps), style.Render(s.Name), strings.Repeat(" ", padding), style.Render(marker))
	if s.Message != "" {
		line += "  " + MutedStyle.Render("("+s.Message+")")
	}
	return line
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
