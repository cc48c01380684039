package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tdstark/SodaOperator/internal/checks"
	"github.com/tdstark/SodaOperator/internal/config"
	"github.com/tdstark/SodaOperator/internal/connections"
	"github.com/tdstark/SodaOperator/internal/datasource"
	"github.com/tdstark/SodaOperator/internal/engine"
	"github.com/tdstark/SodaOperator/internal/logging"
)

const (
	// Exit codes
	ExitOK           = 0 // Success
	ExitChecksFailed = 1 // Data-quality checks failed
	ExitInvalidInput = 2 // Unknown connection, unsupported type, or bad check file
	ExitRuntimeError = 3 // Engine error, I/O, or other runtime failure
)

var (
	// Global config instance
	cfg *config.Config

	// Global logger, configured in PersistentPreRunE
	log *logrus.Logger

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	version = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sodaop",
	Short: "sodaop - Soda data-quality scan runner for workflow tasks",
	Long: `sodaop runs Soda data-quality scans against named database connections,
the way an orchestrated workflow task would: resolve the connection, build
the matching data source configuration, run the scan once, and translate
check failures and warnings into exit codes and logs.

Quick start:
  sodaop doctor
  sodaop validate checks/orders.yml
  sodaop run --conn warehouse --checks checks/orders.yml
  sodaop results --browse

Connections come from a YAML file (see connections_file in the config) and
can be overridden per connection with SODAOP_CONN_<ID> URI env variables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override config with flags if provided
		if verbose {
			cfg.Verbose = true
		}
		if debug {
			cfg.Debug = true
		}

		level := cfg.Log.Level
		if cfg.Debug {
			level = "debug"
		}

		log, err = logging.New(logging.Options{
			Level:      level,
			Format:     cfg.Log.Format,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		if err != nil {
			return fmt.Errorf("failed to configure logging: %w", err)
		}

		return nil
	},
}

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		os.Exit(HandleError(err))
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ~/.sodaop.yaml or ./sodaop.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"debug mode (very verbose)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(connectionsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sodaop %s\n", version)
		fmt.Println("Soda data-quality scan runner")
	},
}

// HandleError determines the appropriate exit code for an error
func HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	var checkFailure *engine.CheckFailure
	if errors.As(err, &checkFailure) {
		return ExitChecksFailed
	}

	var unsupportedType *datasource.UnsupportedTypeError
	var fileError *checks.FileError
	if errors.Is(err, connections.ErrNotFound) ||
		errors.As(err, &unsupportedType) ||
		errors.As(err, &fileError) {
		return ExitInvalidInput
	}

	// Engine errors, I/O, permissions, everything else
	return ExitRuntimeError
}

// logVerbose prints a message if verbose mode is enabled
func logVerbose(format string, args ...interface{}) {
	if cfg != nil && cfg.Verbose {
		log.Infof(format, args...)
	}
}

// logDebug prints a message if debug mode is enabled
func logDebug(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		log.Debugf(format, args...)
	}
}

// logError prints an error message
func logError(format string, args ...interface{}) {
	if log != nil {
		log.Errorf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
}
