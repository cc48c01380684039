// Package datasource renders Soda data-source configuration fragments
// from resolved connection descriptors. One builder per supported
// connection type; dispatch is a closed switch, so an unknown type is
// rejected before anything touches the network.
package datasource

import (
	"fmt"

	"github.com/tdstark/SodaOperator/internal/connections"
	"gopkg.in/yaml.v3"
)

// Type is a connection type tag as declared in the connections file.
type Type string

const (
	TypePostgres Type = "postgres"
	TypeOracle   Type = "oracle"
	TypeMySQL    Type = "mysql"
)

// UnsupportedTypeError is returned when a connection declares a type
// that has no fragment builder.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("no data source builder for connection type %q", e.Type)
}

// Supported reports whether a builder exists for the given type tag.
func Supported(t string) bool {
	switch Type(t) {
	case TypePostgres, TypeOracle, TypeMySQL:
		return true
	}
	return false
}

// Build produces the YAML data-source fragment for the connection. The
// data source is named after the connection identifier. Pure and
// deterministic; missing optional fields pass through as null rather
// than erroring.
func Build(conn *connections.Conn) (string, error) {
	switch Type(conn.Type) {
	case TypePostgres:
		return buildRedshift(conn)
	case TypeOracle:
		return buildOracle(conn)
	case TypeMySQL:
		return buildMySQL(conn)
	default:
		return "", &UnsupportedTypeError{Type: conn.Type}
	}
}

// Postgres-typed connections point at Redshift warehouses; the engine
// config carries the cloud credentials and role from the connection
// extras.
type redshiftSource struct {
	Type       string             `yaml:"type"`
	Connection redshiftConnection `yaml:"connection"`
}

type redshiftConnection struct {
	Host            string  `yaml:"host"`
	Username        string  `yaml:"username"`
	Password        string  `yaml:"password"`
	Database        string  `yaml:"database"`
	AccessKeyID     *string `yaml:"access_key_id"`
	SecretAccessKey *string `yaml:"secret_access_key"`
	RoleARN         *string `yaml:"role_arn"`
	Region          string  `yaml:"region"`
	Schema          *string `yaml:"schema"`
}

func buildRedshift(conn *connections.Conn) (string, error) {
	src := redshiftSource{
		Type: "redshift",
		Connection: redshiftConnection{
			Host:            conn.Host,
			Username:        conn.Login,
			Password:        conn.Password,
			Database:        conn.Schema,
			AccessKeyID:     optExtra(conn, "aws_access_key_id"),
			SecretAccessKey: optExtra(conn, "aws_secret_access_key"),
			RoleARN:         optExtra(conn, "role_arn"),
			Region:          "us-east-1",
			// Schema left unset so the engine falls back to the
			// data source default search path.
		},
	}
	return marshalSource(conn.ID, src)
}

type oracleSource struct {
	Type          string `yaml:"type"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	ConnectString string `yaml:"connectstring"`
}

func buildOracle(conn *connections.Conn) (string, error) {
	src := oracleSource{
		Type:          "oracle",
		Username:      conn.Login,
		Password:      conn.Password,
		ConnectString: fmt.Sprintf("%s:%d/%s", conn.Host, conn.Port, conn.Schema),
	}
	return marshalSource(conn.ID, src)
}

type mysqlSource struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func buildMySQL(conn *connections.Conn) (string, error) {
	src := mysqlSource{
		Type:     "mysql",
		Host:     conn.Host,
		Username: conn.Login,
		Password: conn.Password,
		Database: conn.Schema,
	}
	return marshalSource(conn.ID, src)
}

// marshalSource wraps a source under its "data_source <name>" key.
func marshalSource(name string, src any) (string, error) {
	doc := map[string]any{"data_source " + name: src}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal data source config: %w", err)
	}
	return string(out), nil
}

// optExtra returns a pointer into the connection extras, or nil when
// the key is absent. Absence is passed through, not validated.
func optExtra(conn *connections.Conn, key string) *string {
	if v, ok := conn.Extra[key]; ok {
		return &v
	}
	return nil
}
