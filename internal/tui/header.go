package tui

import (
	"fmt"
	"strings"

	"github.com/tdstark/SodaOperator/internal/engine"
	"github.com/tdstark/SodaOperator/internal/storage"
)

// headerHeight is the number of terminal lines the header occupies.
const headerHeight = 5

// renderHeader produces the header string from the scan run metadata.
func renderHeader(run *storage.ScanRun, width int) string {
	var b strings.Builder

	// Line 1: run identity and overall outcome
	outcomeText := outcomeStyle(run.Outcome).Render(strings.ToUpper(run.Outcome))
	b.WriteString(fmt.Sprintf("sodaop  Run: %s  Outcome: %s", run.ID, outcomeText))
	if run.TestMode {
		b.WriteString("  [test mode]")
	}
	b.WriteString("\n")

	// Line 2: connection and orchestrator context
	b.WriteString(fmt.Sprintf("Connection: %s", run.Connection))
	if ref := runRef(run); ref != "" {
		b.WriteString(fmt.Sprintf("  Workflow: %s", ref))
	}
	b.WriteString(fmt.Sprintf("  %s", run.Timestamp.Format("2006-01-02 15:04")))
	b.WriteString("\n")

	// Line 3: outcome breakdown
	counts := map[string]int{}
	for _, check := range run.Checks {
		counts[check.Outcome]++
	}
	parts := make([]string, 0, 3)
	for _, outcome := range []string{engine.OutcomeFail, engine.OutcomeWarn, engine.OutcomePass} {
		if counts[outcome] > 0 {
			label := fmt.Sprintf("%s:%d", strings.ToUpper(outcome), counts[outcome])
			parts = append(parts, outcomeStyle(outcome).Render(label))
		}
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, "  "))
	} else {
		b.WriteString("no checks evaluated")
	}

	return styleHeader.Width(width).Render(b.String())
}

func runRef(run *storage.ScanRun) string {
	switch {
	case run.WorkflowID == "":
		return run.TaskID
	case run.TaskID == "":
		return run.WorkflowID
	default:
		return run.WorkflowID + "." + run.TaskID
	}
}
