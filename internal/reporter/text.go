package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tdstark/SodaOperator/internal/engine"
	"github.com/tdstark/SodaOperator/internal/storage"
)

// TextReporter generates human-readable text reports
type TextReporter struct {
	writer io.Writer
	width  int
}

// NewTextReporter creates a new text reporter
func NewTextReporter(writer io.Writer) *TextReporter {
	return &TextReporter{
		writer: writer,
		width:  detectWidth(writer),
	}
}

const defaultWidth = 80

// detectWidth returns the terminal width when writing to a terminal,
// defaultWidth otherwise.
func detectWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultWidth
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// Generate creates a text report for one scan run
func (r *TextReporter) Generate(run *storage.ScanRun) error {
	r.printHeader()

	r.printf("Run: %s\n", run.ID)
	r.printf("Timestamp: %s\n", formatTimestamp(run.Timestamp))
	if run.WorkflowID != "" || run.TaskID != "" {
		r.printf("Workflow: %s\n", joinRef(run.WorkflowID, run.TaskID))
	}
	r.printf("Connection: %s\n", run.Connection)
	if run.DataSource != "" && run.DataSource != run.Connection {
		r.printf("Data Source: %s\n", run.DataSource)
	}
	if run.TestMode {
		r.printf("Test Mode: on (failing checks do not fail the run)\n")
	}
	r.printf("Outcome: %s\n\n", strings.ToUpper(run.Outcome))

	r.printChecks(run)
	r.printLogs(run)

	return nil
}

// printHeader prints the report header
func (r *TextReporter) printHeader() {
	r.printf("╔════════════════════════════════════════════╗\n")
	r.printf("║              Soda Scan Report              ║\n")
	r.printf("╚════════════════════════════════════════════╝\n\n")
}

// printChecks prints the per-check breakdown
func (r *TextReporter) printChecks(run *storage.ScanRun) {
	r.printf("Checks:\n")
	r.printf("--------------------------------------------------\n")

	if len(run.Checks) == 0 {
		r.printf("  (no checks evaluated)\n\n")
		return
	}

	passed := 0
	for _, check := range run.Checks {
		if check.Outcome == engine.OutcomePass {
			passed++
		}
	}
	r.printf("  %d/%d checks passed\n", passed, len(run.Checks))

	for _, check := range run.Checks {
		line := fmt.Sprintf("  [%s] %s", strings.ToUpper(check.Outcome), check.Name)
		if check.Table != "" {
			line += fmt.Sprintf(" (%s)", check.Table)
		}
		r.printf("%s\n", r.truncate(line))
	}
	r.printf("\n")
}

// printLogs prints engine log entries of warning severity or above
func (r *TextReporter) printLogs(run *storage.ScanRun) {
	var notable []engine.LogEntry
	for _, entry := range run.Logs {
		level := strings.ToLower(entry.Level)
		if level == "error" || level == "warning" || level == "warn" {
			notable = append(notable, entry)
		}
	}
	if len(notable) == 0 {
		return
	}

	r.printf("Engine Logs:\n")
	r.printf("--------------------------------------------------\n")
	for _, entry := range notable {
		r.printf("%s\n", r.truncate(fmt.Sprintf("  [%s] %s", strings.ToUpper(entry.Level), entry.Message)))
	}
	r.printf("\n")
}

// truncate shortens a line to the detected terminal width.
func (r *TextReporter) truncate(line string) string {
	if r.width <= 3 {
		return line
	}
	runes := []rune(line)
	if len(runes) <= r.width {
		return line
	}
	return string(runes[:r.width-3]) + "..."
}

// printf is a helper to write formatted output
func (r *TextReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.writer, format, args...)
}

func joinRef(workflowID, taskID string) string {
	switch {
	case workflowID == "":
		return taskID
	case taskID == "":
		return workflowID
	default:
		return workflowID + "." + taskID
	}
}

// formatTimestamp formats a timestamp for display
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
