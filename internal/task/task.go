// Package task is the orchestrator-facing adapter: it resolves a named
// connection, prepares a scan against it, runs the engine once, and
// translates the outcome into task success, failure, or log signaling.
package task

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tdstark/SodaOperator/internal/connections"
	"github.com/tdstark/SodaOperator/internal/datasource"
	"github.com/tdstark/SodaOperator/internal/engine"
)

// RunContext carries the hosting workflow's identifiers, used only for
// log attribution.
type RunContext struct {
	WorkflowID string
	TaskID     string
}

// Ref renders the context as workflow.task for log messages.
func (c RunContext) Ref() string {
	switch {
	case c.WorkflowID == "" && c.TaskID == "":
		return "adhoc"
	case c.WorkflowID == "":
		return c.TaskID
	case c.TaskID == "":
		return c.WorkflowID
	}
	return c.WorkflowID + "." + c.TaskID
}

// Params are the task's constructor inputs. Vars may be nil.
type Params struct {
	ConnID     string
	CheckPaths []string
	Vars       map[string]string

	// TestMode suppresses check-failure propagation: the task logs the
	// full summary at error severity and continues as succeeded.
	// Warning logging is never suppressed.
	TestMode bool
}

// Task performs one data-quality scan per Execute call.
type Task struct {
	connID     string
	checkPaths []string
	vars       map[string]string
	testMode   bool

	registry *connections.Registry
	engine   engine.Engine
	log      *logrus.Logger
}

// New builds a task. The variable mapping is copied into a fresh map so
// no two tasks ever share one.
func New(p Params, registry *connections.Registry, eng engine.Engine, log *logrus.Logger) *Task {
	vars := make(map[string]string, len(p.Vars))
	for k, v := range p.Vars {
		vars[k] = v
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Task{
		connID:     p.ConnID,
		checkPaths: p.CheckPaths,
		vars:       vars,
		testMode:   p.TestMode,
		registry:   registry,
		engine:     eng,
		log:        log,
	}
}

// Execute runs the scan synchronously, a single attempt. The returned
// result is non-nil whenever the engine produced one, including when
// the error is a check failure or an engine error, so callers can still
// store and report it.
func (t *Task) Execute(ctx context.Context, rc RunContext) (*engine.Result, error) {
	conn, err := t.registry.Lookup(t.connID)
	if err != nil {
		return nil, err
	}

	fragment, err := datasource.Build(conn)
	if err != nil {
		return nil, err
	}

	scan := engine.NewScan()
	scan.AddConfigurationYAML(fragment)
	scan.SetDataSourceName(t.connID)
	scan.AddCheckFiles(t.checkPaths...)
	scan.AddVariables(t.vars)

	result, err := t.engine.Execute(ctx, scan)
	if err != nil {
		return nil, fmt.Errorf("execute scan: %w", err)
	}

	// Engine internal errors fail the task regardless of test mode.
	if err := result.AssertNoErrorLogs(); err != nil {
		return result, err
	}

	results := result.AllChecksText()

	if err := result.AssertNoChecksFail(); err != nil {
		if !t.testMode {
			return result, err
		}
		t.entry(rc).Errorf("SODA TESTING DISREGARD: %s:\n\n%s", rc.Ref(), results)
	}

	if result.HasCheckWarns() {
		t.entry(rc).Warnf("SODA WARNING: %s:\n\n%s", rc.Ref(), results)
	}

	return result, nil
}

func (t *Task) entry(rc RunContext) *logrus.Entry {
	return t.log.WithFields(logrus.Fields{
		"workflow_id": rc.WorkflowID,
		"task_id":     rc.TaskID,
		"connection":  t.connID,
	})
}
