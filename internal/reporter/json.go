package reporter

import (
	"encoding/json"
	"io"

	"github.com/tdstark/SodaOperator/internal/engine"
	"github.com/tdstark/SodaOperator/internal/storage"
)

// JSONReporter generates machine-readable JSON reports
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(writer io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		pretty: pretty,
	}
}

// Generate writes the full scan run record as JSON
func (r *JSONReporter) Generate(run *storage.ScanRun) error {
	return r.write(run)
}

// GenerateSummaryOnly writes a compact summary without per-check detail
func (r *JSONReporter) GenerateSummaryOnly(run *storage.ScanRun) error {
	passed, warned, failed := 0, 0, 0
	for _, check := range run.Checks {
		switch check.Outcome {
		case engine.OutcomePass:
			passed++
		case engine.OutcomeWarn:
			warned++
		case engine.OutcomeFail:
			failed++
		}
	}

	summary := struct {
		ID         string `json:"id"`
		Timestamp  string `json:"timestamp"`
		WorkflowID string `json:"workflow_id,omitempty"`
		TaskID     string `json:"task_id,omitempty"`
		Connection string `json:"connection"`
		TestMode   bool   `json:"test_mode"`
		Outcome    string `json:"outcome"`
		Checks     int    `json:"checks"`
		Passed     int    `json:"passed"`
		Warned     int    `json:"warned"`
		Failed     int    `json:"failed"`
	}{
		ID:         run.ID,
		Timestamp:  run.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		WorkflowID: run.WorkflowID,
		TaskID:     run.TaskID,
		Connection: run.Connection,
		TestMode:   run.TestMode,
		Outcome:    run.Outcome,
		Checks:     len(run.Checks),
		Passed:     passed,
		Warned:     warned,
		Failed:     failed,
	}

	return r.write(summary)
}

func (r *JSONReporter) write(v any) error {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	if _, err := r.writer.Write(data); err != nil {
		return err
	}

	// Trailing newline for terminal output
	_, err = r.writer.Write([]byte("\n"))
	return err
}
