package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalStorage implements Storage on the local filesystem. Each run is
// one JSON file under <baseDir>/runs named <timestamp>-<id>.json.
type LocalStorage struct {
	baseDir string
}

// NewLocal creates a local storage instance rooted at baseDir.
func NewLocal(baseDir string) *LocalStorage {
	return &LocalStorage{
		baseDir: baseDir,
	}
}

const runFileTimestamp = "2006-01-02T15-04-05"

// SaveRun stores a scan run to disk.
func (s *LocalStorage) SaveRun(run *ScanRun) error {
	runsDir := filepath.Join(s.baseDir, "runs")
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}

	filename := run.Timestamp.Format(runFileTimestamp) + "-" + run.ID + ".json"
	path := filepath.Join(runsDir, filename)

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// LoadRun loads a run by identifier.
func (s *LocalStorage) LoadRun(id string) (*ScanRun, error) {
	refs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		if ref.ID == id {
			return s.loadRunFromFile(s.runPath(ref))
		}
	}

	return nil, fmt.Errorf("run not found: %s", id)
}

// GetLatestRun retrieves the most recent run.
func (s *LocalStorage) GetLatestRun() (*ScanRun, error) {
	refs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("no runs found")
	}

	latest := refs[len(refs)-1]
	return s.loadRunFromFile(s.runPath(latest))
}

// GetLastNRuns retrieves the last N runs, oldest first. Records that
// fail to load are skipped.
func (s *LocalStorage) GetLastNRuns(n int) ([]*ScanRun, error) {
	refs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("no runs found")
	}

	start := len(refs) - n
	if start < 0 {
		start = 0
	}

	selected := refs[start:]
	runs := make([]*ScanRun, 0, len(selected))

	for _, ref := range selected {
		run, err := s.loadRunFromFile(s.runPath(ref))
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// ListRuns returns all stored run references sorted chronologically.
func (s *LocalStorage) ListRuns() ([]RunRef, error) {
	runsDir := filepath.Join(s.baseDir, "runs")

	if _, err := os.Stat(runsDir); os.IsNotExist(err) {
		return []RunRef{}, nil
	}

	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var refs []RunRef

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		// Filename format: 2006-01-02T15-04-05-<id>.json
		base := strings.TrimSuffix(entry.Name(), ".json")
		if len(base) <= len(runFileTimestamp)+1 {
			continue
		}
		ts, err := time.Parse(runFileTimestamp, base[:len(runFileTimestamp)])
		if err != nil {
			continue
		}

		refs = append(refs, RunRef{
			ID:        base[len(runFileTimestamp)+1:],
			Timestamp: ts,
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Timestamp.Before(refs[j].Timestamp)
	})

	return refs, nil
}

func (s *LocalStorage) runPath(ref RunRef) string {
	filename := ref.Timestamp.Format(runFileTimestamp) + "-" + ref.ID + ".json"
	return filepath.Join(s.baseDir, "runs", filename)
}

func (s *LocalStorage) loadRunFromFile(path string) (*ScanRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var run ScanRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &run, nil
}

// GetStoragePath returns the full path to the storage directory.
func (s *LocalStorage) GetStoragePath() string {
	return s.baseDir
}

// EnsureDirectoryExists creates the storage directory if needed.
func (s *LocalStorage) EnsureDirectoryExists() error {
	return os.MkdirAll(filepath.Join(s.baseDir, "runs"), 0755)
}
