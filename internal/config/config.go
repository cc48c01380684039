package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for sodaop
type Config struct {
	// Connections file with named connection descriptors
	ConnectionsFile string `mapstructure:"connections_file"`

	// Soda binary name or path (bare names are resolved via PATH)
	SodaBinary string `mapstructure:"soda_binary"`

	// Storage configuration
	StorageDir string `mapstructure:"storage_dir"`

	// Output format (text, json)
	Format string `mapstructure:"format"`

	// Number of last runs to show in results listings
	LastRuns int `mapstructure:"last_runs"`

	// Per-scan timeout; zero leaves termination to the orchestrator
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`

	// Default test-mode for runs (overridable per run)
	TestMode bool `mapstructure:"test_mode"`

	// Verbose output
	Verbose bool `mapstructure:"verbose"`

	// Debug mode
	Debug bool `mapstructure:"debug"`

	// Log settings
	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ConnectionsFile: "connections.yaml",
		SodaBinary:      "soda",
		StorageDir:      ".sodaop",
		Format:          "text",
		LastRuns:        7,
		ScanTimeout:     0,
		TestMode:        false,
		Verbose:         false,
		Debug:           false,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration with the following precedence (lowest to highest):
// 1. Default values
// 2. Config file (~/.sodaop.yaml or ./sodaop.yaml)
// 3. Environment variables (SODAOP_*)
// 4. CLI flags (handled by caller)
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile loads configuration from a specific file path
// If path is empty, it searches for config in standard locations
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("connections_file", defaults.ConnectionsFile)
	v.SetDefault("soda_binary", defaults.SodaBinary)
	v.SetDefault("storage_dir", defaults.StorageDir)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("last_runs", defaults.LastRuns)
	v.SetDefault("scan_timeout", defaults.ScanTimeout)
	v.SetDefault("test_mode", defaults.TestMode)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.file", "")

	// Set config file settings
	v.SetConfigName("sodaop")
	v.SetConfigType("yaml")

	if configPath != "" {
		// Use explicit config file path
		v.SetConfigFile(configPath)
	} else {
		// Search for config in standard locations
		// 1. Current directory
		v.AddConfigPath(".")

		// 2. Home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}

		// 3. XDG config directory
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			v.AddConfigPath(filepath.Join(xdgConfig, "sodaop"))
		}
	}

	// Enable environment variable support
	v.SetEnvPrefix("SODAOP")
	v.AutomaticEnv()

	// Try to read config file (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		// Only return error if it's not a "file not found" error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Unmarshal into config struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate format
	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format: %s (must be text or json)", c.Format)
	}

	// Validate last_runs (must be positive)
	if c.LastRuns <= 0 {
		return fmt.Errorf("last_runs must be positive")
	}

	// Validate storage_dir is not empty
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir cannot be empty")
	}

	if c.SodaBinary == "" {
		return fmt.Errorf("soda_binary cannot be empty")
	}

	if c.ScanTimeout < 0 {
		return fmt.Errorf("scan_timeout cannot be negative")
	}

	return nil
}

// GetStoragePath returns the absolute path to the storage directory
func (c *Config) GetStoragePath() (string, error) {
	// Expand ~ to home directory
	if len(c.StorageDir) >= 2 && c.StorageDir[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, c.StorageDir[2:]), nil
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(c.StorageDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// ConfigPath returns the preferred location for a new config file:
// $XDG_CONFIG_HOME/sodaop/sodaop.yaml when XDG_CONFIG_HOME is set,
// otherwise ~/.sodaop.yaml.
func ConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "sodaop", "sodaop.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "sodaop.yaml"
	}
	return filepath.Join(home, ".sodaop.yaml")
}

// GenerateSampleConfig generates a sample configuration file content
func GenerateSampleConfig() string {
	return `# sodaop configuration
# Save this file as ~/.sodaop.yaml or ./sodaop.yaml

# Connections file with named connection descriptors.
# Individual connections can be overridden with SODAOP_CONN_<ID> URIs.
connections_file: connections.yaml

# Soda binary; bare names are resolved via PATH
soda_binary: soda

# Directory to store scan run records
storage_dir: .sodaop

# Output format: text or json
format: text

# Number of last runs to show in results listings
last_runs: 7

# Per-scan timeout (0 = none; the orchestrator owns termination)
scan_timeout: 0

# Default test-mode: failing checks are logged instead of failing the run
test_mode: false

# Logging
log:
  level: info
  format: text
  # file: /var/log/sodaop/sodaop.log
`
}
