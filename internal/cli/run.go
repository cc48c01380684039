package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tdstark/SodaOperator/internal/checks"
	"github.com/tdstark/SodaOperator/internal/connections"
	"github.com/tdstark/SodaOperator/internal/engine"
	"github.com/tdstark/SodaOperator/internal/reporter"
	"github.com/tdstark/SodaOperator/internal/storage"
	"github.com/tdstark/SodaOperator/internal/task"
)

var (
	runConn       string
	runChecks     []string
	runVars       map[string]string
	runTestMode   bool
	runTimeout    time.Duration
	runStore      bool
	runFormat     string
	runOutput     string
	runWorkflowID string
	runTaskID     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a data-quality scan against a named connection",
	Long: `Run performs one scan cycle:

  1. Resolve   - look up the named connection (file or SODAOP_CONN_<ID> env)
  2. Configure - build the matching Soda data source configuration
  3. Scan      - invoke the soda engine once, synchronously, no retries
  4. Signal    - map engine errors and check failures to exit codes

Check failures exit 1 unless --test-mode is set, in which case the full
check summary is logged at error severity and the run exits 0. Check
warnings are logged at warning severity either way.

Workflow and task identifiers default to the AIRFLOW_CTX_DAG_ID and
AIRFLOW_CTX_TASK_ID environment variables when the flags are not given.

Example:
  sodaop run --conn warehouse --checks checks/orders.yml
  sodaop run --conn warehouse --checks checks/orders.yml --var run_date='${EXECUTION_DATE}'
  sodaop run --conn legacy --checks checks/l.yml --test-mode --store`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runConn, "conn", "",
		"connection identifier (required)")
	runCmd.Flags().StringSliceVar(&runChecks, "checks", nil,
		"SodaCL check file(s) (required)")
	runCmd.Flags().StringToStringVar(&runVars, "var", nil,
		"scan variable as key=value (repeatable; values are env-expanded)")
	runCmd.Flags().BoolVar(&runTestMode, "test-mode", false,
		"log check failures instead of failing the run")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0,
		"per-scan timeout (0 = none, the orchestrator owns termination)")
	runCmd.Flags().BoolVar(&runStore, "store", false,
		"persist the run record for the results commands")
	runCmd.Flags().StringVar(&runFormat, "format", "",
		"output format: text or json (default from config)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "",
		"write the report to a file instead of stdout")
	runCmd.Flags().StringVar(&runWorkflowID, "workflow-id", "",
		"workflow identifier for log attribution")
	runCmd.Flags().StringVar(&runTaskID, "task-id", "",
		"task identifier for log attribution")

	_ = runCmd.MarkFlagRequired("conn")
	_ = runCmd.MarkFlagRequired("checks")
}

func runRun(cmd *cobra.Command, args []string) error {
	workflowID := runWorkflowID
	if workflowID == "" {
		workflowID = os.Getenv("AIRFLOW_CTX_DAG_ID")
	}
	taskID := runTaskID
	if taskID == "" {
		taskID = os.Getenv("AIRFLOW_CTX_TASK_ID")
	}

	// Reject unreadable check files before touching the engine.
	if err := checks.ValidateFiles(runChecks); err != nil {
		return err
	}

	registry, err := connections.Load(cfg.ConnectionsFile)
	if err != nil {
		return fmt.Errorf("load connections: %w", err)
	}

	binary, err := engine.Locate(cfg.SodaBinary, exec.LookPath)
	if err != nil {
		return fmt.Errorf("soda binary: %w", err)
	}
	logVerbose("using soda binary %s", binary)

	execFn := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		c := exec.CommandContext(ctx, name, args...)
		return c.Output()
	}

	eng := engine.NewSodaCLI(binary, execFn)
	eng.Timeout = runTimeout
	if eng.Timeout == 0 {
		eng.Timeout = cfg.ScanTimeout
	}
	defer func() { _ = eng.Cleanup() }()

	vars := make(map[string]string, len(runVars))
	for k, v := range runVars {
		vars[k] = os.ExpandEnv(v)
	}

	testMode := runTestMode || cfg.TestMode
	logDebug("test mode %v, timeout %s", testMode, eng.Timeout)

	tk := task.New(task.Params{
		ConnID:     runConn,
		CheckPaths: runChecks,
		Vars:       vars,
		TestMode:   testMode,
	}, registry, eng, log)

	rc := task.RunContext{WorkflowID: workflowID, TaskID: taskID}

	logVerbose("scanning connection %s with %d check file(s)", runConn, len(runChecks))
	result, execErr := tk.Execute(context.Background(), rc)

	// Store and report whatever the engine produced, even when the run
	// is about to fail on check results.
	if result != nil {
		run := &storage.ScanRun{
			ID:         uuid.NewString(),
			Timestamp:  time.Now().UTC(),
			WorkflowID: workflowID,
			TaskID:     taskID,
			Connection: runConn,
			DataSource: result.DataSource,
			TestMode:   testMode,
			Outcome:    result.Outcome(),
			Checks:     result.Checks,
			Logs:       result.Logs,
			ChecksText: result.AllChecksText(),
		}

		if runStore {
			if err := storeRun(run); err != nil {
				logError("failed to store run: %v", err)
			} else {
				logVerbose("stored run %s", run.ID)
			}
		}

		if err := reportRun(run); err != nil {
			logError("failed to write report: %v", err)
		}
	}

	return execErr
}

func storeRun(run *storage.ScanRun) error {
	path, err := cfg.GetStoragePath()
	if err != nil {
		return err
	}
	return storage.NewLocal(path).SaveRun(run)
}

func reportRun(run *storage.ScanRun) error {
	format := runFormat
	if format == "" {
		format = cfg.Format
	}

	out := os.Stdout
	if runOutput != "" {
		f, err := os.Create(runOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	switch format {
	case "json":
		return reporter.NewJSONReporter(out, true).Generate(run)
	case "text":
		return reporter.NewTextReporter(out).Generate(run)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
