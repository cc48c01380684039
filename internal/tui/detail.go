package tui

import (
	"fmt"
	"strings"

	"github.com/tdstark/SodaOperator/internal/engine"
)

// detailHeight is the fixed number of lines for the detail panel.
const detailHeight = 5

// renderDetail produces the detail view for a selected check.
func renderDetail(check *engine.Check, width int) string {
	if check == nil {
		return styleDetailPanel.Width(width).Render("No check selected")
	}

	var b strings.Builder

	outcomeStyled := outcomeStyle(check.Outcome).Render(strings.ToUpper(check.Outcome))
	b.WriteString(fmt.Sprintf("%s  %s\n", outcomeStyled, check.Name))

	parts := make([]string, 0, 3)
	if check.Table != "" {
		parts = append(parts, fmt.Sprintf("Table: %s", check.Table))
	}
	if check.Column != "" {
		parts = append(parts, fmt.Sprintf("Column: %s", check.Column))
	}
	if check.DataSource != "" {
		parts = append(parts, fmt.Sprintf("Data Source: %s", check.DataSource))
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, "  "))
		b.WriteString("\n")
	}

	if check.Definition != "" {
		b.WriteString(fmt.Sprintf("Definition: %s", firstLine(check.Definition)))
	}

	return styleDetailPanel.Width(width).Render(b.String())
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " ..."
	}
	return s
}
