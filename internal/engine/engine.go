// Package engine drives the external Soda scan engine. The engine owns
// the rule language, SQL introspection, and check evaluation; this
// package only assembles scan inputs, invokes one scan, and reads back
// the outcome.
package engine

import (
	"context"
	"sort"
)

// Engine executes a prepared scan. Implementations run one synchronous
// scan per call, no retries.
type Engine interface {
	Execute(ctx context.Context, scan *Scan) (*Result, error)
}

// Scan accumulates the inputs for a single engine invocation:
// configuration YAML fragments, the active data-source name, SodaCL
// check files, and a variable mapping.
type Scan struct {
	configYAML     []string
	dataSourceName string
	checkPaths     []string
	vars           map[string]string
}

// NewScan returns an empty scan. The variable mapping starts as a fresh
// map per scan; callers never share one across invocations.
func NewScan() *Scan {
	return &Scan{vars: map[string]string{}}
}

// AddConfigurationYAML registers a configuration fragment with the scan.
func (s *Scan) AddConfigurationYAML(cfg string) {
	s.configYAML = append(s.configYAML, cfg)
}

// SetDataSourceName sets the active data source for the scan.
func (s *Scan) SetDataSourceName(name string) {
	s.dataSourceName = name
}

// DataSourceName returns the active data source name.
func (s *Scan) DataSourceName() string {
	return s.dataSourceName
}

// AddCheckFiles attaches SodaCL check file paths to the scan.
func (s *Scan) AddCheckFiles(paths ...string) {
	s.checkPaths = append(s.checkPaths, paths...)
}

// CheckFiles returns the attached check file paths.
func (s *Scan) CheckFiles() []string {
	return s.checkPaths
}

// AddVariables merges variables into the scan's mapping.
func (s *Scan) AddVariables(vars map[string]string) {
	for k, v := range vars {
		s.vars[k] = v
	}
}

// varNames returns the variable keys in stable order.
func (s *Scan) varNames() []string {
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
