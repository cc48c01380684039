package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/tdstark/SodaOperator/internal/config"
	"github.com/tdstark/SodaOperator/internal/connections"
	"github.com/tdstark/SodaOperator/internal/datasource"
	"github.com/tdstark/SodaOperator/internal/engine"
)

var (
	doctorFormat string
	doctorPing   bool
)

const pingTimeout = 5 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment readiness and diagnose common problems",
	Long: `Doctor validates your sodaop setup end-to-end:

  1. Config file      - found and readable?
  2. Connections file - parses, and are the connection types usable?
  3. Soda binary      - installed and responding?
  4. Storage          - directory writable?
  5. Databases        - reachable? (only with --ping)

Fix the issues it reports, then run 'sodaop run' with confidence.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "text",
		"output format: text or json")
	doctorCmd.Flags().BoolVar(&doctorPing, "ping", false,
		"attempt a database connection for every configured connection")
}

type doctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "warn", "fail"
	Detail string `json:"detail,omitempty"`
}

type doctorResult struct {
	Checks  []doctorCheck `json:"checks"`
	Summary string        `json:"summary"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []doctorCheck

	// 1. Config file
	checks = append(checks, checkConfig())

	// 2. Connections file
	connChecks, registry := checkConnections()
	checks = append(checks, connChecks...)

	// 3. Soda binary
	checks = append(checks, checkSodaBinary())

	// 4. Storage directory
	checks = append(checks, checkStorage())

	// 5. Database connectivity
	if doctorPing && registry != nil {
		checks = append(checks, pingConnections(registry)...)
	}

	// Build summary
	fails, warns := 0, 0
	for _, c := range checks {
		switch c.Status {
		case "fail":
			fails++
		case "warn":
			warns++
		}
	}

	summary := "all checks passed"
	if fails > 0 {
		summary = fmt.Sprintf("%d issue(s) found", fails)
	} else if warns > 0 {
		summary = fmt.Sprintf("ok with %d warning(s)", warns)
	}

	result := doctorResult{Checks: checks, Summary: summary}

	if doctorFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return writeDoctorText(result)
}

func writeDoctorText(result doctorResult) error {
	icons := map[string]string{
		"ok":   "✓",
		"warn": "△",
		"fail": "✗",
	}

	for _, c := range result.Checks {
		icon := icons[c.Status]
		if c.Detail != "" {
			fmt.Printf("  %s %-24s %s\n", icon, c.Name, c.Detail)
		} else {
			fmt.Printf("  %s %s\n", icon, c.Name)
		}
	}

	fmt.Printf("\n%s\n", result.Summary)
	return nil
}

func checkConfig() doctorCheck {
	path := config.ConfigPath()
	if configFile != "" {
		path = configFile
	}

	if _, err := os.Stat(path); err != nil {
		return doctorCheck{
			Name:   "config",
			Status: "warn",
			Detail: "no config file found (using defaults)",
		}
	}

	return doctorCheck{
		Name:   "config",
		Status: "ok",
		Detail: path,
	}
}

func checkConnections() ([]doctorCheck, *connections.Registry) {
	if _, err := os.Stat(cfg.ConnectionsFile); err != nil {
		return []doctorCheck{{
			Name:   "connections",
			Status: "warn",
			Detail: fmt.Sprintf("%s not found (env overrides still work)", cfg.ConnectionsFile),
		}}, nil
	}

	registry, err := connections.Load(cfg.ConnectionsFile)
	if err != nil {
		return []doctorCheck{{
			Name:   "connections",
			Status: "fail",
			Detail: fmt.Sprintf("cannot parse %s: %v", cfg.ConnectionsFile, err),
		}}, nil
	}

	ids := registry.IDs()
	checks := []doctorCheck{{
		Name:   "connections",
		Status: "ok",
		Detail: fmt.Sprintf("%s (%d connection(s))", cfg.ConnectionsFile, len(ids)),
	}}

	for _, id := range ids {
		conn, err := registry.Lookup(id)
		if err != nil {
			continue
		}
		if !datasource.Supported(conn.Type) {
			checks = append(checks, doctorCheck{
				Name:   "conn:" + id,
				Status: "warn",
				Detail: fmt.Sprintf("type %q not usable by sodaop run", conn.Type),
			})
		}
	}

	return checks, registry
}

func checkSodaBinary() doctorCheck {
	binary, err := engine.Locate(cfg.SodaBinary, exec.LookPath)
	if err != nil {
		return doctorCheck{
			Name:   "soda",
			Status: "fail",
			Detail: fmt.Sprintf("%v (pip install soda-core)", err),
		}
	}

	execFn := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		c := exec.CommandContext(ctx, name, args...)
		return c.Output()
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	ver, err := engine.ProbeVersion(ctx, binary, execFn)
	if err != nil {
		return doctorCheck{
			Name:   "soda",
			Status: "fail",
			Detail: fmt.Sprintf("%s does not respond to --version: %v", binary, err),
		}
	}

	return doctorCheck{
		Name:   "soda",
		Status: "ok",
		Detail: fmt.Sprintf("%s (%s)", binary, ver),
	}
}

func checkStorage() doctorCheck {
	storagePath, err := cfg.GetStoragePath()
	if err != nil {
		return doctorCheck{
			Name:   "storage",
			Status: "fail",
			Detail: err.Error(),
		}
	}

	info, err := os.Stat(storagePath)
	if err != nil {
		// Created on first --store
		return doctorCheck{
			Name:   "storage",
			Status: "ok",
			Detail: fmt.Sprintf("%s (will be created on first --store)", storagePath),
		}
	}

	if !info.IsDir() {
		return doctorCheck{
			Name:   "storage",
			Status: "fail",
			Detail: fmt.Sprintf("%s exists but is not a directory", storagePath),
		}
	}

	// Try writing a temp file to check write access
	tmpFile := storagePath + "/.doctor-check"
	if err := os.WriteFile(tmpFile, []byte("ok"), 0600); err != nil {
		return doctorCheck{
			Name:   "storage",
			Status: "fail",
			Detail: fmt.Sprintf("%s not writable: %v", storagePath, err),
		}
	}
	_ = os.Remove(tmpFile)

	return doctorCheck{
		Name:   "storage",
		Status: "ok",
		Detail: storagePath,
	}
}

func pingConnections(registry *connections.Registry) []doctorCheck {
	var checks []doctorCheck
	for _, id := range registry.IDs() {
		conn, err := registry.Lookup(id)
		if err != nil {
			continue
		}
		checks = append(checks, pingConnection(conn))
	}
	return checks
}

func pingConnection(conn *connections.Conn) doctorCheck {
	name := "ping:" + conn.ID

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	switch datasource.Type(conn.Type) {
	case datasource.TypePostgres:
		return pingPostgres(ctx, name, conn)
	case datasource.TypeMySQL:
		return pingMySQL(ctx, name, conn)
	case datasource.TypeOracle:
		return doctorCheck{
			Name:   name,
			Status: "warn",
			Detail: "no ping support for oracle connections",
		}
	default:
		return doctorCheck{
			Name:   name,
			Status: "warn",
			Detail: fmt.Sprintf("no ping support for type %q", conn.Type),
		}
	}
}

func pingPostgres(ctx context.Context, name string, conn *connections.Conn) doctorCheck {
	port := conn.Port
	if port == 0 {
		port = 5432
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(conn.Login, conn.Password),
		Host:   fmt.Sprintf("%s:%d", conn.Host, port),
		Path:   "/" + conn.Schema,
	}

	db, err := pgx.Connect(ctx, dsn.String())
	if err != nil {
		return doctorCheck{Name: name, Status: "fail", Detail: fmt.Sprintf("unreachable: %v", err)}
	}
	defer func() { _ = db.Close(ctx) }()

	if err := db.Ping(ctx); err != nil {
		return doctorCheck{Name: name, Status: "fail", Detail: fmt.Sprintf("ping failed: %v", err)}
	}

	return doctorCheck{Name: name, Status: "ok", Detail: fmt.Sprintf("%s:%d", conn.Host, port)}
}

func pingMySQL(ctx context.Context, name string, conn *connections.Conn) doctorCheck {
	port := conn.Port
	if port == 0 {
		port = 3306
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", conn.Login, conn.Password, conn.Host, port, conn.Schema)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return doctorCheck{Name: name, Status: "fail", Detail: fmt.Sprintf("bad DSN: %v", err)}
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return doctorCheck{Name: name, Status: "fail", Detail: fmt.Sprintf("unreachable: %v", err)}
	}

	return doctorCheck{Name: name, Status: "ok", Detail: fmt.Sprintf("%s:%d", conn.Host, port)}
}
