package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecFunc is the signature for running a command and capturing stdout.
// It receives the context, binary path, and args.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// SodaCLI runs scans through the soda binary. One invocation per
// Execute call: write the configuration to a temp file, run soda scan
// with a results file, and parse the results back.
type SodaCLI struct {
	// Binary is the resolved path of the soda executable.
	Binary string

	// Timeout bounds a single scan when non-zero. Zero means no
	// internal timeout; the hosting orchestrator owns termination.
	Timeout time.Duration

	execFn  ExecFunc
	tempDir string
}

// NewSodaCLI creates an engine around the given binary and exec
// function. The temp directory is created lazily on first Execute.
func NewSodaCLI(binary string, execFn ExecFunc) *SodaCLI {
	return &SodaCLI{
		Binary: binary,
		execFn: execFn,
	}
}

// Execute runs the scan synchronously: a single attempt, no retry. The
// command's exit status is ignored whenever a parseable results file
// was produced, because the engine exits non-zero on failing checks;
// scan errors still surface through the result's error logs.
func (c *SodaCLI) Execute(ctx context.Context, scan *Scan) (*Result, error) {
	if scan.dataSourceName == "" {
		return nil, fmt.Errorf("scan has no data source name")
	}
	if len(scan.checkPaths) == 0 {
		return nil, fmt.Errorf("scan has no check files")
	}

	if c.tempDir == "" {
		dir, err := os.MkdirTemp("", "sodaop-scan-*")
		if err != nil {
			return nil, fmt.Errorf("create scan temp directory: %w", err)
		}
		c.tempDir = dir
	}

	cfgPath := filepath.Join(c.tempDir, "configuration.yml")
	if err := os.WriteFile(cfgPath, []byte(c.configurationYAML(scan)), 0o600); err != nil {
		return nil, fmt.Errorf("write scan configuration: %w", err)
	}

	resultsPath := filepath.Join(c.tempDir, "scan-results.json")

	args := []string{"scan",
		"-d", scan.dataSourceName,
		"-c", cfgPath,
		"-srf", resultsPath,
	}
	for _, k := range scan.varNames() {
		args = append(args, "-v", k+"="+scan.vars[k])
	}
	args = append(args, scan.checkPaths...)

	scanCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	_, execErr := c.execFn(scanCtx, c.Binary, args...)

	data, readErr := os.ReadFile(resultsPath)
	if readErr != nil {
		if execErr != nil {
			return nil, fmt.Errorf("scan invocation failed: %w", execErr)
		}
		return nil, fmt.Errorf("scan produced no results file: %w", readErr)
	}

	result, err := ParseResult(data)
	if err != nil {
		if execErr != nil {
			return nil, fmt.Errorf("scan invocation failed: %w", execErr)
		}
		return nil, err
	}

	return result, nil
}

// configurationYAML joins the scan's fragments into one configuration
// document, with anonymous usage stats switched off on every scan.
func (c *SodaCLI) configurationYAML(scan *Scan) string {
	parts := append([]string{"send_anonymous_usage_stats: false\n"}, scan.configYAML...)
	return strings.Join(parts, "\n")
}

// Cleanup removes the temp directory and scan artifacts.
func (c *SodaCLI) Cleanup() error {
	if c.tempDir == "" {
		return nil
	}
	return os.RemoveAll(c.tempDir)
}
