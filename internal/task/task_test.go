package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/tdstark/SodaOperator/internal/connections"
	"github.com/tdstark/SodaOperator/internal/datasource"
	"github.com/tdstark/SodaOperator/internal/engine"
)

// fakeEngine records the scan it was handed and returns a canned result.
type fakeEngine struct {
	scan   *engine.Scan
	result *engine.Result
	err    error
	calls  int
}

func (f *fakeEngine) Execute(ctx context.Context, scan *engine.Scan) (*engine.Result, error) {
	f.calls++
	f.scan = scan
	return f.result, f.err
}

func testRegistry(t *testing.T) *connections.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connections.yaml")
	content := `connections:
  warehouse:
    type: postgres
    host: warehouse.example.com
    port: 5439
    login: analytics
    password: hunter2
    schema: analytics_db
  legacy:
    type: mssql
    host: legacy.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write connections file: %v", err)
	}
	r, err := connections.LoadWithEnv(path, func(string) string { return "" })
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return r
}

func passingResult() *engine.Result {
	return &engine.Result{Checks: []engine.Check{
		{Name: "row_count > 0", Table: "orders", Outcome: engine.OutcomePass},
	}}
}

func failingResult() *engine.Result {
	return &engine.Result{
		HasFailures: true,
		Checks: []engine.Check{
			{Name: "row_count > 0", Table: "orders", Outcome: engine.OutcomePass},
			{Name: "missing_count(customer_id) = 0", Table: "orders", Outcome: engine.OutcomeFail},
		},
	}
}

func warningResult() *engine.Result {
	return &engine.Result{
		HasWarnings: true,
		Checks: []engine.Check{
			{Name: "duplicate_count(order_id) < 10", Table: "orders", Outcome: engine.OutcomeWarn},
		},
	}
}

func newTestTask(t *testing.T, p Params, eng engine.Engine) (*Task, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	return New(p, testRegistry(t), eng, logger), hook
}

func TestExecute_Success(t *testing.T) {
	eng := &fakeEngine{result: passingResult()}
	tk, hook := newTestTask(t, Params{
		ConnID:     "warehouse",
		CheckPaths: []string{"checks/orders.yml"},
		Vars:       map[string]string{"date": "2026-08-25"},
	}, eng)

	result, err := tk.Execute(context.Background(), RunContext{WorkflowID: "daily", TaskID: "orders_scan"})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result == nil {
		t.Fatal("expected result")
	}
	if eng.calls != 1 {
		t.Fatalf("expected one engine call, got %d", eng.calls)
	}

	if eng.scan.DataSourceName() != "warehouse" {
		t.Errorf("data source name should be the connection id, got %s", eng.scan.DataSourceName())
	}
	if len(eng.scan.CheckFiles()) != 1 || eng.scan.CheckFiles()[0] != "checks/orders.yml" {
		t.Errorf("unexpected check files: %v", eng.scan.CheckFiles())
	}

	// Clean pass emits neither error nor warning logs.
	if len(hook.Entries) != 0 {
		t.Errorf("expected no log entries, got %d", len(hook.Entries))
	}
}

func TestExecute_UnknownConnection(t *testing.T) {
	eng := &fakeEngine{result: passingResult()}
	tk, _ := newTestTask(t, Params{ConnID: "nope", CheckPaths: []string{"c.yml"}}, eng)

	_, err := tk.Execute(context.Background(), RunContext{})
	if !errors.Is(err, connections.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if eng.calls != 0 {
		t.Error("engine must not run for an unknown connection")
	}
}

func TestExecute_UnsupportedType(t *testing.T) {
	eng := &fakeEngine{result: passingResult()}
	tk, _ := newTestTask(t, Params{ConnID: "legacy", CheckPaths: []string{"c.yml"}}, eng)

	_, err := tk.Execute(context.Background(), RunContext{})
	var ute *datasource.UnsupportedTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnsupportedTypeError, got %v", err)
	}
	if eng.calls != 0 {
		t.Error("dispatch must fail before any engine call")
	}
}

func TestExecute_EngineInvocationError(t *testing.T) {
	eng := &fakeEngine{err: errors.New("soda binary exploded")}
	tk, _ := newTestTask(t, Params{ConnID: "warehouse", CheckPaths: []string{"c.yml"}}, eng)

	if _, err := tk.Execute(context.Background(), RunContext{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestExecute_EngineInternalError(t *testing.T) {
	result := passingResult()
	result.Logs = []engine.LogEntry{{Level: "ERROR", Message: "connection refused"}}

	for _, testMode := range []bool{false, true} {
		eng := &fakeEngine{result: result}
		tk, _ := newTestTask(t, Params{
			ConnID:     "warehouse",
			CheckPaths: []string{"c.yml"},
			TestMode:   testMode,
		}, eng)

		_, err := tk.Execute(context.Background(), RunContext{})
		var ee *engine.EngineError
		if !errors.As(err, &ee) {
			t.Fatalf("test_mode=%v: expected EngineError, got %v", testMode, err)
		}
	}
}

func TestExecute_CheckFailure(t *testing.T) {
	eng := &fakeEngine{result: failingResult()}
	tk, hook := newTestTask(t, Params{ConnID: "warehouse", CheckPaths: []string{"c.yml"}}, eng)

	result, err := tk.Execute(context.Background(), RunContext{WorkflowID: "daily", TaskID: "orders_scan"})
	var cf *engine.CheckFailure
	if !errors.As(err, &cf) {
		t.Fatalf("expected CheckFailure, got %v", err)
	}
	if result == nil {
		t.Error("result should be returned alongside the failure")
	}
	if len(hook.Entries) != 0 {
		t.Errorf("failure propagation should not also log, got %d entries", len(hook.Entries))
	}
}

func TestExecute_CheckFailure_TestMode(t *testing.T) {
	eng := &fakeEngine{result: failingResult()}
	tk, hook := newTestTask(t, Params{
		ConnID:     "warehouse",
		CheckPaths: []string{"c.yml"},
		TestMode:   true,
	}, eng)

	rc := RunContext{WorkflowID: "daily", TaskID: "orders_scan"}
	if _, err := tk.Execute(context.Background(), rc); err != nil {
		t.Fatalf("test mode must suppress the failure, got %v", err)
	}

	if len(hook.Entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(hook.Entries))
	}
	entry := hook.Entries[0]
	if entry.Level != logrus.ErrorLevel {
		t.Errorf("expected error severity, got %v", entry.Level)
	}
	if !strings.Contains(entry.Message, "SODA TESTING DISREGARD") {
		t.Errorf("unexpected message: %s", entry.Message)
	}
	if !strings.Contains(entry.Message, "daily.orders_scan") {
		t.Errorf("message should carry workflow and task ids: %s", entry.Message)
	}
	if !strings.Contains(entry.Message, "missing_count(customer_id) = 0") {
		t.Errorf("message should carry the full check summary: %s", entry.Message)
	}
	if entry.Data["workflow_id"] != "daily" || entry.Data["task_id"] != "orders_scan" {
		t.Errorf("unexpected log fields: %v", entry.Data)
	}
}

func TestExecute_Warnings(t *testing.T) {
	// Warning logging is identical under both test-mode values and
	// never affects success.
	for _, testMode := range []bool{false, true} {
		eng := &fakeEngine{result: warningResult()}
		tk, hook := newTestTask(t, Params{
			ConnID:     "warehouse",
			CheckPaths: []string{"c.yml"},
			TestMode:   testMode,
		}, eng)

		rc := RunContext{WorkflowID: "daily", TaskID: "orders_scan"}
		if _, err := tk.Execute(context.Background(), rc); err != nil {
			t.Fatalf("test_mode=%v: warnings must not fail the task, got %v", testMode, err)
		}

		if len(hook.Entries) != 1 {
			t.Fatalf("test_mode=%v: expected 1 log entry, got %d", testMode, len(hook.Entries))
		}
		entry := hook.Entries[0]
		if entry.Level != logrus.WarnLevel {
			t.Errorf("expected warning severity, got %v", entry.Level)
		}
		if !strings.Contains(entry.Message, "SODA WARNING") {
			t.Errorf("unexpected message: %s", entry.Message)
		}
		if !strings.Contains(entry.Message, "duplicate_count(order_id) < 10") {
			t.Errorf("message should carry the full check summary: %s", entry.Message)
		}
	}
}

func TestExecute_FailureAndWarning_TestMode(t *testing.T) {
	result := failingResult()
	result.HasWarnings = true
	result.Checks = append(result.Checks, engine.Check{
		Name: "duplicate_count(order_id) < 10", Table: "orders", Outcome: engine.OutcomeWarn,
	})

	eng := &fakeEngine{result: result}
	tk, hook := newTestTask(t, Params{
		ConnID:     "warehouse",
		CheckPaths: []string{"c.yml"},
		TestMode:   true,
	}, eng)

	if _, err := tk.Execute(context.Background(), RunContext{WorkflowID: "daily", TaskID: "t"}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	// Suppressed failure logs at error, then the warning logs too.
	if len(hook.Entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(hook.Entries))
	}
	if hook.Entries[0].Level != logrus.ErrorLevel {
		t.Errorf("first entry should be error severity, got %v", hook.Entries[0].Level)
	}
	if hook.Entries[1].Level != logrus.WarnLevel {
		t.Errorf("second entry should be warning severity, got %v", hook.Entries[1].Level)
	}
}

func TestNew_CopiesVars(t *testing.T) {
	vars := map[string]string{"date": "2026-08-25"}
	tk := New(Params{ConnID: "warehouse", Vars: vars}, nil, nil, nil)

	vars["date"] = "mutated"
	if tk.vars["date"] != "2026-08-25" {
		t.Error("task must hold its own copy of the variable mapping")
	}
}

func TestRunContextRef(t *testing.T) {
	tests := []struct {
		rc   RunContext
		want string
	}{
		{RunContext{}, "adhoc"},
		{RunContext{WorkflowID: "daily"}, "daily"},
		{RunContext{TaskID: "scan"}, "scan"},
		{RunContext{WorkflowID: "daily", TaskID: "scan"}, "daily.scan"},
	}
	for _, tt := range tests {
		if got := tt.rc.Ref(); got != tt.want {
			t.Errorf("Ref(%+v) = %q, want %q", tt.rc, got, tt.want)
		}
	}
}
