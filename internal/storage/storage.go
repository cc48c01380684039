package storage

import (
	"time"

	"github.com/tdstark/SodaOperator/internal/engine"
)

// ScanRun is the persisted record of one scan execution.
type ScanRun struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	WorkflowID string            `json:"workflow_id,omitempty"`
	TaskID     string            `json:"task_id,omitempty"`
	Connection string            `json:"connection"`
	DataSource string            `json:"data_source"`
	TestMode   bool              `json:"test_mode"`
	Outcome    string            `json:"outcome"`
	Checks     []engine.Check    `json:"checks"`
	Logs       []engine.LogEntry `json:"logs,omitempty"`
	ChecksText string            `json:"checks_text"`
}

// Storage defines the interface for persisting scan runs.
type Storage interface {
	// SaveRun stores one scan run record.
	SaveRun(run *ScanRun) error

	// LoadRun loads a run by its identifier.
	LoadRun(id string) (*ScanRun, error)

	// GetLatestRun retrieves the most recent run.
	GetLatestRun() (*ScanRun, error)

	// GetLastNRuns retrieves the last N runs, oldest first.
	GetLastNRuns(n int) ([]*ScanRun, error)

	// ListRuns returns references to all stored runs, oldest first.
	ListRuns() ([]RunRef, error)
}

// RunRef identifies a stored run without loading its full record.
type RunRef struct {
	ID        string
	Timestamp time.Time
}
