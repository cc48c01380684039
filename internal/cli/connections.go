package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tdstark/SodaOperator/internal/connections"
	"github.com/tdstark/SodaOperator/internal/datasource"
)

var connectionsFormat string

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "List configured connections",
	Long: `Connections lists every connection from the connections file, marking
which ones a scan can actually use (postgres, oracle, mysql).

Credentials are never printed.

Example:
  sodaop connections
  sodaop connections --format json`,
	RunE: runConnections,
}

func init() {
	connectionsCmd.Flags().StringVar(&connectionsFormat, "format", "text",
		"output format: text or json")
}

type connectionInfo struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Host      string `json:"host"`
	Port      int    `json:"port,omitempty"`
	Schema    string `json:"schema,omitempty"`
	Supported bool   `json:"supported"`
}

func runConnections(cmd *cobra.Command, args []string) error {
	registry, err := connections.Load(cfg.ConnectionsFile)
	if err != nil {
		return fmt.Errorf("load connections: %w", err)
	}

	ids := registry.IDs()
	if len(ids) == 0 {
		fmt.Printf("No connections defined in %s.\n", cfg.ConnectionsFile)
		return nil
	}

	infos := make([]connectionInfo, 0, len(ids))
	for _, id := range ids {
		conn, err := registry.Lookup(id)
		if err != nil {
			continue
		}
		infos = append(infos, connectionInfo{
			ID:        conn.ID,
			Type:      conn.Type,
			Host:      conn.Host,
			Port:      conn.Port,
			Schema:    conn.Schema,
			Supported: datasource.Supported(conn.Type),
		})
	}

	if connectionsFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	for _, info := range infos {
		marker := " "
		if !info.Supported {
			marker = "!"
		}
		addr := info.Host
		if info.Port > 0 {
			addr = fmt.Sprintf("%s:%d", info.Host, info.Port)
		}
		fmt.Printf("%s %-20s %-10s %-28s %s\n", marker, info.ID, info.Type, addr, info.Schema)
	}
	fmt.Println("\n! = type not usable by sodaop run")
	return nil
}
