package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents how far the user got with a form step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not reached yet
	StepRunning                    // Being filled in
	StepComplete                   // Left behind with every field valid
	StepFailed                     // Left behind with an invalid field
)

// Step is one line of the step list
type Step struct {
	Number int        // Step number (1-based)
	Name   string     // Step title
	Status StepStatus // Current status
}

// Progress renders a progress bar and a step list for a multi-step form.
type Progress struct {
	Steps   []Step
	Current int     // Current step (1-based), 0 when the form is in review
	Percent float64 // Share of completed steps (0.0 - 1.0)
	Width   int
	bar     progress.Model
}

// NewProgress creates a progress display for the given step titles.
func NewProgress(names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name, Status: StepPending}
	}
	p := &Progress{Steps: steps}
	return p.SetWidth(GetTerminalWidth())
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 24
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// Update sets every step's status from the current step index (0-based) and
// a validity check for steps already left behind. A current index past the
// last step marks every step as done.
func (p *Progress) Update(current int, valid func(step int) bool) {
	completed := 0
	p.Current = 0
	for i := range p.Steps {
		switch {
		case i == current:
			p.Steps[i].Status = StepRunning
			p.Current = i + 1
		case i < current && valid(i):
			p.Steps[i].Status = StepComplete
			completed++
		case i < current:
			p.Steps[i].Status = StepFailed
		default:
			p.Steps[i].Status = StepPending
		}
	}
	if len(p.Steps) > 0 {
		p.Percent = float64(completed) / float64(len(p.Steps))
	}
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder
	b.WriteString(p.renderProgressBar())
	b.WriteString("\n\n")
	b.WriteString(p.renderStepList())
	return b.String()
}

func (p *Progress) renderProgressBar() string {
	step := fmt.Sprintf("[%d/%d]", p.Current, len(p.Steps))
	if p.Current == 0 {
		step = "[review]"
	}
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  %s", p.bar.ViewAs(p.Percent), p.Percent*100, step))
}

func (p *Progress) renderStepList() string {
	lines := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		lines = append(lines, p.renderStepLine(step))
	}
	return strings.Join(lines, "\n")
}

func (p *Progress) renderStepLine(step Step) string {
	var marker string
	var style lipgloss.Style

	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	name := step.Name
	if name == "" {
		name = fmt.Sprintf("Step %d", step.Number)
	}

	padding := 40 - lipgloss.Width(name)
	if padding < 1 {
		padding = 1
	}

	return fmt.Sprintf("  [%d/%d] %s%s%s",
		step.Number, len(p.Steps),
		style.Render(name),
		strings.Repeat(" ", padding),
		style.Render(marker),
	)
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
