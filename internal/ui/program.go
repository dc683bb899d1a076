package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled, non-interactive output. Commands that print and
// exit use it instead of a Bubble Tea program.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// SetWidth overrides the detected terminal width.
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(RenderErrorBox(title, err, troubleshooting, p.width))
}

// sortedKeys keeps map-driven output stable.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params map[string]string, width int) string {
	topSection := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		HeaderCommandStyle.Render(command),
	)
	if len(params) == 0 {
		return HeaderBorderStyle(width).Render(topSection)
	}

	var paramLines []string
	for _, key := range sortedKeys(params) {
		paramLines = append(paramLines, HeaderParamKeyStyle.Render(key+":")+" "+HeaderParamValueStyle.Render(params[key]))
	}

	dividerWidth := width - 6
	if dividerWidth < 10 {
		dividerWidth = 10
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		topSection,
		RenderHorizontalDivider(dividerWidth, "─"),
		strings.Join(paramLines, "\n"),
	)
	return HeaderBorderStyle(width).Render(content)
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details map[string]string, width int) string {
	lines := []string{
		"",
		SuccessTitleStyle.Render("   " + SuccessMarker + "  " + title),
		"",
	}
	for _, key := range sortedKeys(details) {
		lines = append(lines, ResultKeyStyle.Render("   "+key+":")+" "+ResultValueStyle.Render(details[key]))
	}
	lines = append(lines, "")

	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box with troubleshooting
func RenderErrorBox(title string, err error, troubleshooting []string, width int) string {
	lines := []string{
		"",
		ErrorTitleStyle.Render("   " + FailureMarker + "  " + title),
		"",
	}

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}

	if len(troubleshooting) > 0 {
		lines = append(lines, StepPendingStyle.Bold(true).Render("   Troubleshooting:"))
		for _, tip := range troubleshooting {
			lines = append(lines, StepPendingStyle.Render("     • "+tip))
		}
		lines = append(lines, "")
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}
