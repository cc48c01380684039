package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Check outcomes as reported in the engine's scan-results JSON.
const (
	OutcomePass = "pass"
	OutcomeWarn = "warn"
	OutcomeFail = "fail"
)

// LogEntry is one engine log line from the scan results.
type LogEntry struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Check is one evaluated check from the scan results.
type Check struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Definition string `json:"definition,omitempty"`
	DataSource string `json:"dataSource,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Outcome    string `json:"outcome"`
}

// Result is the engine's scan outcome. The adapter only ever consumes
// the error-log, failure, warning, and summary-text views of it.
type Result struct {
	DefinitionName string     `json:"definitionName,omitempty"`
	DataSource     string     `json:"defaultDataSource,omitempty"`
	HasErrors      bool       `json:"hasErrors"`
	HasWarnings    bool       `json:"hasWarnings"`
	HasFailures    bool       `json:"hasFailures"`
	Checks         []Check    `json:"checks"`
	Logs           []LogEntry `json:"logs"`
}

// ParseResult decodes a scan-results JSON document.
func ParseResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse scan results: %w", err)
	}
	return &r, nil
}

// EngineError signals that the engine logged internal errors during the
// scan. Distinct from a check failure: it always fails the task.
type EngineError struct {
	Logs []LogEntry
}

func (e *EngineError) Error() string {
	if len(e.Logs) == 0 {
		return "scan engine reported internal errors"
	}
	msgs := make([]string, 0, len(e.Logs))
	for _, l := range e.Logs {
		msgs = append(msgs, l.Message)
	}
	return fmt.Sprintf("scan engine reported %d internal error(s): %s",
		len(e.Logs), strings.Join(msgs, "; "))
}

// CheckFailure signals that one or more declared checks failed.
type CheckFailure struct {
	Count int
	Text  string
}

func (e *CheckFailure) Error() string {
	return fmt.Sprintf("%d check(s) failed:\n%s", e.Count, e.Text)
}

// ErrorLogs returns the error-level engine log entries.
func (r *Result) ErrorLogs() []LogEntry {
	var out []LogEntry
	for _, l := range r.Logs {
		if strings.EqualFold(l.Level, "error") {
			out = append(out, l)
		}
	}
	return out
}

// AssertNoErrorLogs fails when the engine logged internal errors.
func (r *Result) AssertNoErrorLogs() error {
	logs := r.ErrorLogs()
	if r.HasErrors || len(logs) > 0 {
		return &EngineError{Logs: logs}
	}
	return nil
}

// FailedChecks returns the checks with a fail outcome.
func (r *Result) FailedChecks() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Outcome == OutcomeFail {
			out = append(out, c)
		}
	}
	return out
}

// AssertNoChecksFail fails when any declared check failed.
func (r *Result) AssertNoChecksFail() error {
	failed := r.FailedChecks()
	if r.HasFailures || len(failed) > 0 {
		count := len(failed)
		if count == 0 {
			count = 1
		}
		return &CheckFailure{Count: count, Text: r.AllChecksText()}
	}
	return nil
}

// HasCheckWarns reports whether any check produced a warning outcome.
func (r *Result) HasCheckWarns() bool {
	if r.HasWarnings {
		return true
	}
	for _, c := range r.Checks {
		if c.Outcome == OutcomeWarn {
			return true
		}
	}
	return false
}

// Outcome summarizes the result as pass, warn, or fail.
func (r *Result) Outcome() string {
	if r.HasFailures || len(r.FailedChecks()) > 0 {
		return OutcomeFail
	}
	if r.HasCheckWarns() {
		return OutcomeWarn
	}
	return OutcomePass
}

// AllChecksText renders every check result as one line per check, the
// summary the adapter logs on failures and warnings.
func (r *Result) AllChecksText() string {
	if len(r.Checks) == 0 {
		return "no checks evaluated"
	}

	var b strings.Builder
	passed := 0
	for _, c := range r.Checks {
		if c.Outcome == OutcomePass {
			passed++
		}
	}
	fmt.Fprintf(&b, "%d/%d checks passed", passed, len(r.Checks))

	for _, c := range r.Checks {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  [%s] %s", strings.ToUpper(c.Outcome), c.Name)
		if c.Table != "" {
			fmt.Fprintf(&b, " (%s)", c.Table)
		}
		if c.Definition != "" && c.Definition != c.Name {
			fmt.Fprintf(&b, ": %s", strings.TrimSpace(c.Definition))
		}
	}
	return b.String()
}
