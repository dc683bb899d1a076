package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/formstate/internal/definition"
	"github.com/muurk/formstate/internal/form"
	"github.com/muurk/formstate/internal/path"
)

const secretMask = "••••••"

// valueText formats a value for a text input or a table cell.
func valueText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func displayValue(f definition.Field, values form.Values) string {
	v, _ := path.Get(values, f.Key)
	text := valueText(v)
	if f.Secret && text != "" {
		return secretMask
	}
	if text == "" {
		return StepPendingStyle.Render("(empty)")
	}
	return text
}

// fieldInvalid reports whether f should be flagged in s. The controller only
// tracks top-level keys, so a nested field is flagged when its top-level key
// is in error and its own rules fail.
func fieldInvalid(f definition.Field, s form.State) bool {
	if s.IsFieldValid(path.Top(f.Key)) {
		return false
	}
	if path.IsNested(f.Key) {
		return !f.Valid(s.Values)
	}
	return true
}

// RenderSnapshot renders every field of def with its value, validity and
// touched flag as held in s.
func RenderSnapshot(def *definition.Definition, s form.State, width int) string {
	width = clampWidth(width)

	title := def.Title
	if title == "" {
		title = def.Name
	}
	stepInfo := fmt.Sprintf("step %d of %d", s.Step+1, def.StepCount())
	if s.Step >= def.StepCount() {
		stepInfo = "review"
	}

	var lines []string
	lines = append(lines,
		SuccessTitleStyle.Foreground(PrimaryColor).Render(title)+"  "+SubtitleStyle.Render(stepInfo),
		"",
	)

	for _, f := range def.Fields {
		marker := StepCompleteStyle.Render(SuccessMarker)
		if fieldInvalid(f, s) {
			marker = ErrorTitleStyle.Render(FailureMarker)
		}
		touched := ""
		if s.IsFieldTouched(path.Top(f.Key)) {
			touched = StepPendingStyle.Render(" (touched)")
		}
		lines = append(lines, fmt.Sprintf("%s %s %s%s",
			marker,
			ResultKeyStyle.Render(f.DisplayLabel()),
			ResultValueStyle.Render(displayValue(f, s.Values)),
			touched,
		))
	}

	lines = append(lines, "")
	if s.HasFormFieldError {
		lines = append(lines, ErrorMessageStyle.Render("Some fields are invalid"))
	} else {
		lines = append(lines, StepCompleteStyle.Render("All fields are valid"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width-2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// FieldErrors returns the messages of every flagged field in s, in
// declaration order.
func FieldErrors(def *definition.Definition, s form.State) []string {
	var msgs []string
	for _, f := range def.Fields {
		if fieldInvalid(f, s) {
			msgs = append(msgs, fmt.Sprintf("%s: %s", f.Key, f.ErrorMessage()))
		}
	}
	return msgs
}
