package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/formstate/internal/version"
)

// AppName is shown in the header of the interactive form.
const AppName = "FORMSTATE"

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - valid fields, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - invalid fields
	WarningColor = lipgloss.Color("#FFA500") // Orange - current step
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
	DefaultHeight    = 24
)

var (
	// TitleStyle is for the form title
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	// SubtitleStyle is for the step title
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// LabelStyle is for unfocused field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			PaddingLeft(2)

	// FocusedLabelStyle is for the label of the focused field
	FocusedLabelStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				PaddingLeft(0)

	// FieldErrorStyle is for messages under invalid, touched fields
	FieldErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			PaddingLeft(4)

	// HintStyle is for muted hints such as option lists
	HintStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(4)

	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	StepCompleteStyle = lipgloss.NewStyle().
				Foreground(SuccessColor)

	StepRunningStyle = lipgloss.NewStyle().
				Foreground(WarningColor)

	StepPendingStyle = lipgloss.NewStyle().
				Foreground(MutedColor)

	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// ResultKeyStyle is for detail keys in boxes and tables
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(20)

	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)
)

// Markers
const (
	StepMarkerComplete = "✓"
	StepMarkerRunning  = "●"
	StepMarkerPending  = "·"
	SuccessMarker      = "✓"
	FailureMarker      = "✗"
	CursorMarker       = "›"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _ := GetTerminalSize()
	return width
}

// GetTerminalSize returns the current terminal width and height
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, DefaultHeight
	}
	return clampWidth(width), height
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2)
}

// SuccessBoxStyle returns the border style for success result boxes
func SuccessBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SuccessColor).
		Width(width-2).
		Padding(0, 2)
}

// ErrorBoxStyle returns the border style for error result boxes
func ErrorBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width-2).
		Padding(0, 2)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	line := ""
	for i := 0; i < width; i++ {
		line += char
	}
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(line)
}

// RenderApplicationContainer wraps a screen with the application header and
// a help footer, filling the terminal.
func RenderApplicationContainer(content, footerText string, terminalWidth, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}
	if terminalHeight < 10 {
		terminalHeight = DefaultHeight
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Foreground(TextColor).Bold(true).Render(AppName),
		" ",
		lipgloss.NewStyle().Foreground(MutedColor).Render(version.Short()),
	)

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(PrimaryColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(PrimaryColor).
		Foreground(MutedColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(header),
		lipgloss.NewStyle().Width(terminalWidth-4).Render(content),
		footerStyle.Render(footerText),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(PrimaryColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}
