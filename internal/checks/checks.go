// Package checks performs a readability and parse gate on SodaCL check
// files before a scan. The engine owns the rule language; this only
// rejects files the engine could never read.
package checks

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileError aggregates everything wrong with one check file.
type FileError struct {
	Path   string
	Errors []string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("invalid check file %s:\n  - %s", e.Path, strings.Join(e.Errors, "\n  - "))
}

// ValidateFile checks that a single SodaCL file is readable, parses as
// YAML, and contains at least one top-level check block.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FileError{Path: path, Errors: []string{fmt.Sprintf("not readable: %v", err)}}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &FileError{Path: path, Errors: []string{fmt.Sprintf("not valid YAML: %v", err)}}
	}

	var errs []string
	if len(doc) == 0 {
		errs = append(errs, "no check blocks defined")
	}
	for key := range doc {
		if !strings.HasPrefix(key, "checks") && !strings.HasPrefix(key, "filter") &&
			!strings.HasPrefix(key, "variables") && !strings.HasPrefix(key, "for each") {
			errs = append(errs, fmt.Sprintf("unexpected top-level key %q", key))
		}
	}

	if len(errs) > 0 {
		return &FileError{Path: path, Errors: errs}
	}
	return nil
}

// ValidateFiles validates every path and returns the first failure.
func ValidateFiles(paths []string) error {
	for _, p := range paths {
		if err := ValidateFile(p); err != nil {
			return err
		}
	}
	return nil
}
