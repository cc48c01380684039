package datasource

import (
	"errors"
	"strings"
	"testing"

	"github.com/tdstark/SodaOperator/internal/connections"
	"gopkg.in/yaml.v3"
)

func postgresConn() *connections.Conn {
	return &connections.Conn{
		ID:       "warehouse",
		Type:     "postgres",
		Host:     "warehouse.example.com",
		Port:     5439,
		Login:    "analytics",
		Password: "hunter2",
		Schema:   "analytics_db",
		Extra: map[string]string{
			"aws_access_key_id":     "AKIAEXAMPLE",
			"aws_secret_access_key": "secret",
			"role_arn":              "arn:aws:iam::123456789012:role/scanner",
		},
	}
}

// unmarshalFragment round-trips a fragment so assertions work on the
// parsed tree instead of raw text.
func unmarshalFragment(t *testing.T, fragment string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(fragment), &doc); err != nil {
		t.Fatalf("fragment is not valid YAML: %v\n%s", err, fragment)
	}
	return doc
}

func TestBuild_Postgres(t *testing.T) {
	fragment, err := Build(postgresConn())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	doc := unmarshalFragment(t, fragment)
	src, ok := doc["data_source warehouse"].(map[string]any)
	if !ok {
		t.Fatalf("missing data_source key:\n%s", fragment)
	}
	if src["type"] != "redshift" {
		t.Errorf("expected redshift type, got %v", src["type"])
	}

	conn, ok := src["connection"].(map[string]any)
	if !ok {
		t.Fatalf("missing connection block:\n%s", fragment)
	}

	want := map[string]any{
		"host":              "warehouse.example.com",
		"username":          "analytics",
		"password":          "hunter2",
		"database":          "analytics_db",
		"access_key_id":     "AKIAEXAMPLE",
		"secret_access_key": "secret",
		"role_arn":          "arn:aws:iam::123456789012:role/scanner",
		"region":            "us-east-1",
	}
	for k, v := range want {
		if conn[k] != v {
			t.Errorf("connection[%q] = %v, want %v", k, conn[k], v)
		}
	}

	// Schema key present but unset.
	if v, ok := conn["schema"]; !ok || v != nil {
		t.Errorf("expected null schema key, got %v (present=%v)", v, ok)
	}
}

func TestBuild_Postgres_MissingRoleARN(t *testing.T) {
	conn := postgresConn()
	delete(conn.Extra, "role_arn")

	fragment, err := Build(conn)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	doc := unmarshalFragment(t, fragment)
	src := doc["data_source warehouse"].(map[string]any)
	connBlock := src["connection"].(map[string]any)

	// Absent extras pass through as null, never as an error.
	if v, ok := connBlock["role_arn"]; !ok || v != nil {
		t.Errorf("expected null role_arn, got %v (present=%v)", v, ok)
	}
}

func TestBuild_Oracle(t *testing.T) {
	fragment, err := Build(&connections.Conn{
		ID:       "erp",
		Type:     "oracle",
		Host:     "erp.example.com",
		Port:     1521,
		Login:    "app",
		Password: "pw",
		Schema:   "ERPDB",
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	doc := unmarshalFragment(t, fragment)
	src, ok := doc["data_source erp"].(map[string]any)
	if !ok {
		t.Fatalf("missing data_source key:\n%s", fragment)
	}

	if src["type"] != "oracle" {
		t.Errorf("expected oracle type, got %v", src["type"])
	}
	if src["username"] != "app" || src["password"] != "pw" {
		t.Errorf("unexpected credentials: %v/%v", src["username"], src["password"])
	}
	if src["connectstring"] != "erp.example.com:1521/ERPDB" {
		t.Errorf("unexpected connectstring: %v", src["connectstring"])
	}
}

func TestBuild_MySQL(t *testing.T) {
	fragment, err := Build(&connections.Conn{
		ID:       "orders",
		Type:     "mysql",
		Host:     "orders.example.com",
		Port:     3306,
		Login:    "reader",
		Password: "pw",
		Schema:   "orders",
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	doc := unmarshalFragment(t, fragment)
	src, ok := doc["data_source orders"].(map[string]any)
	if !ok {
		t.Fatalf("missing data_source key:\n%s", fragment)
	}

	want := map[string]any{
		"type":     "mysql",
		"host":     "orders.example.com",
		"username": "reader",
		"password": "pw",
		"database": "orders",
	}
	for k, v := range want {
		if src[k] != v {
			t.Errorf("src[%q] = %v, want %v", k, src[k], v)
		}
	}
}

func TestBuild_UnsupportedType(t *testing.T) {
	_, err := Build(&connections.Conn{ID: "x", Type: "mssql"})
	if err == nil {
		t.Fatal("expected dispatch error")
	}

	var ute *UnsupportedTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnsupportedTypeError, got %T: %v", err, err)
	}
	if ute.Type != "mssql" {
		t.Errorf("expected type mssql in error, got %s", ute.Type)
	}
	if !strings.Contains(err.Error(), "mssql") {
		t.Errorf("error message should name the type: %s", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := Build(postgresConn())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	b, err := Build(postgresConn())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if a != b {
		t.Error("builder output should be deterministic")
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		typeTag string
		want    bool
	}{
		{"postgres", true},
		{"oracle", true},
		{"mysql", true},
		{"mssql", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Supported(tt.typeTag); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.typeTag, got, tt.want)
		}
	}
}
