package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tdstark/SodaOperator/internal/checks"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate SodaCL check files",
	Long: `Validate checks that each file is readable, parses as YAML, and holds
at least one check block. It does not evaluate check expressions; the
engine owns the rule language.

Returns exit 0 if valid, exit 2 if invalid with details on stderr.

Example:
  sodaop validate checks/orders.yml
  sodaop validate checks/*.yml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := checks.ValidateFiles(args); err != nil {
		return err
	}

	fmt.Printf("VALID: %d check file(s)\n", len(args))
	return nil
}
