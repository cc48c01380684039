package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/tdstark/SodaOperator/internal/engine"
)

var tableColumns = []table.Column{
	{Title: "Outcome", Width: 8},
	{Title: "Table", Width: 18},
	{Title: "Column", Width: 14},
	{Title: "Check", Width: 40},
}

// buildRows converts checks to table rows.
func buildRows(checks []engine.Check) []table.Row {
	rows := make([]table.Row, 0, len(checks))
	for _, check := range checks {
		rows = append(rows, table.Row{
			strings.ToUpper(check.Outcome),
			truncate(check.Table, tableColumns[1].Width),
			truncate(check.Column, tableColumns[2].Width),
			truncate(check.Name, tableColumns[3].Width),
		})
	}
	return rows
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}

// newTable creates a bubbles table with standard columns and styling.
func newTable(rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorAccent).
		Bold(false)
	t.SetStyles(s)

	return t
}
