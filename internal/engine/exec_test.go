package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// resultsWritingExec returns an ExecFunc that writes canned results to
// the path given via -srf, the way the real binary does.
func resultsWritingExec(results string, execErr error) ExecFunc {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		for i, a := range args {
			if a == "-srf" && i+1 < len(args) {
				if err := os.WriteFile(args[i+1], []byte(results), 0o600); err != nil {
					return nil, err
				}
			}
		}
		return nil, execErr
	}
}

func preparedScan() *Scan {
	s := NewScan()
	s.AddConfigurationYAML("data_source warehouse:\n  type: mysql\n")
	s.SetDataSourceName("warehouse")
	s.AddCheckFiles("checks/orders.yml")
	return s
}

func TestSodaCLI_Execute(t *testing.T) {
	var gotName string
	var gotArgs []string

	inner := resultsWritingExec(sampleResults, nil)
	exec := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return inner(ctx, name, args...)
	}

	c := NewSodaCLI("/usr/local/bin/soda", exec)
	defer func() { _ = c.Cleanup() }()

	scan := preparedScan()
	scan.AddVariables(map[string]string{"date": "2026-08-25", "env": "prod"})

	result, err := c.Execute(context.Background(), scan)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result.DataSource != "warehouse" {
		t.Errorf("unexpected data source: %s", result.DataSource)
	}

	if gotName != "/usr/local/bin/soda" {
		t.Errorf("unexpected binary: %s", gotName)
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{
		"scan",
		"-d warehouse",
		"-v date=2026-08-25",
		"-v env=prod",
		"checks/orders.yml",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args should contain %q: %s", want, joined)
		}
	}

	// Variables are passed in stable order.
	if strings.Index(joined, "date=") > strings.Index(joined, "env=") {
		t.Errorf("variables not in stable order: %s", joined)
	}
}

func TestSodaCLI_Execute_WritesConfiguration(t *testing.T) {
	var cfgContent string
	exec := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		for i, a := range args {
			if a == "-c" && i+1 < len(args) {
				data, err := os.ReadFile(args[i+1])
				if err != nil {
					return nil, err
				}
				cfgContent = string(data)
			}
			if a == "-srf" && i+1 < len(args) {
				if err := os.WriteFile(args[i+1], []byte(`{"checks":[],"logs":[]}`), 0o600); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	}

	c := NewSodaCLI("soda", exec)
	defer func() { _ = c.Cleanup() }()

	if _, err := c.Execute(context.Background(), preparedScan()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if !strings.Contains(cfgContent, "send_anonymous_usage_stats: false") {
		t.Errorf("telemetry should be disabled in configuration:\n%s", cfgContent)
	}
	if !strings.Contains(cfgContent, "data_source warehouse:") {
		t.Errorf("configuration should carry the fragment:\n%s", cfgContent)
	}
}

func TestSodaCLI_Execute_NonZeroExitWithResults(t *testing.T) {
	// Failing checks make the binary exit non-zero; the results file
	// still decides the outcome.
	exec := resultsWritingExec(sampleResults, errors.New("exit status 2"))

	c := NewSodaCLI("soda", exec)
	defer func() { _ = c.Cleanup() }()

	result, err := c.Execute(context.Background(), preparedScan())
	if err != nil {
		t.Fatalf("expected results despite exit status, got %v", err)
	}
	if len(result.FailedChecks()) != 1 {
		t.Errorf("expected 1 failed check, got %d", len(result.FailedChecks()))
	}
}

func TestSodaCLI_Execute_InvocationFailure(t *testing.T) {
	exec := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("executable file not found")
	}

	c := NewSodaCLI("soda", exec)
	defer func() { _ = c.Cleanup() }()

	if _, err := c.Execute(context.Background(), preparedScan()); err == nil {
		t.Fatal("expected invocation error")
	}
}

func TestSodaCLI_Execute_MissingInputs(t *testing.T) {
	c := NewSodaCLI("soda", resultsWritingExec(sampleResults, nil))
	defer func() { _ = c.Cleanup() }()

	noSource := NewScan()
	noSource.AddCheckFiles("checks.yml")
	if _, err := c.Execute(context.Background(), noSource); err == nil {
		t.Error("expected error for missing data source name")
	}

	noChecks := NewScan()
	noChecks.SetDataSourceName("warehouse")
	if _, err := c.Execute(context.Background(), noChecks); err == nil {
		t.Error("expected error for missing check files")
	}
}

func TestSodaCLI_Execute_Timeout(t *testing.T) {
	exec := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	c := NewSodaCLI("soda", exec)
	c.Timeout = 50 * time.Millisecond
	defer func() { _ = c.Cleanup() }()

	if _, err := c.Execute(context.Background(), preparedScan()); err == nil {
		t.Fatal("expected timeout failure")
	}
}

func TestSodaCLI_Cleanup(t *testing.T) {
	c := NewSodaCLI("soda", resultsWritingExec(`{"checks":[],"logs":[]}`, nil))

	if _, err := c.Execute(context.Background(), preparedScan()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	tempDir := c.tempDir
	if _, err := os.Stat(tempDir); err != nil {
		t.Fatalf("temp dir should exist before cleanup: %v", err)
	}

	if err := c.Cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Error("temp dir should not exist after cleanup")
	}
}

func TestSodaCLI_Cleanup_NoTempDir(t *testing.T) {
	c := NewSodaCLI("soda", nil)
	if err := c.Cleanup(); err != nil {
		t.Errorf("cleanup with no temp dir should not error: %v", err)
	}
}
