package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderTable draws rows under headers with a rounded border. The header
// row uses the primary color and the first column is bold.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return style.Foreground(PrimaryColor).Bold(true)
			case col == 0:
				return style.Foreground(TextColor).Bold(true)
			default:
				return style.Foreground(MutedColor)
			}
		}).
		Headers(headers...).
		Rows(rows...)

	return t.Render()
}
