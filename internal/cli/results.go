package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdstark/SodaOperator/internal/reporter"
	"github.com/tdstark/SodaOperator/internal/storage"
	"github.com/tdstark/SodaOperator/internal/tui"
)

var (
	resultsLastN  int
	resultsShow   string
	resultsBrowse bool
	resultsFormat string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List and inspect stored scan runs",
	Long: `Results works with runs persisted by 'sodaop run --store'.

Without flags it lists recent runs. --show prints one run's full report,
--browse opens an interactive check browser.

Example:
  sodaop results
  sodaop results --last 20
  sodaop results --show latest
  sodaop results --show 6f1f0f0a-... --format json
  sodaop results --browse`,
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().IntVarP(&resultsLastN, "last", "n", 0,
		"number of runs to list (default from config)")
	resultsCmd.Flags().StringVar(&resultsShow, "show", "",
		"print one run: a run id, or 'latest'")
	resultsCmd.Flags().BoolVar(&resultsBrowse, "browse", false,
		"open the interactive check browser (latest run, or --show <id>)")
	resultsCmd.Flags().StringVar(&resultsFormat, "format", "",
		"output format for --show: text or json (default from config)")
}

func runResults(cmd *cobra.Command, args []string) error {
	storagePath, err := cfg.GetStoragePath()
	if err != nil {
		return err
	}
	store := storage.NewLocal(storagePath)

	if resultsBrowse {
		run, err := loadRun(store, resultsShow)
		if err != nil {
			return err
		}
		return tui.Run(run)
	}

	if resultsShow != "" {
		run, err := loadRun(store, resultsShow)
		if err != nil {
			return err
		}
		return showRun(run)
	}

	return listRuns(store)
}

func loadRun(store *storage.LocalStorage, ref string) (*storage.ScanRun, error) {
	if ref == "" || ref == "latest" {
		return store.GetLatestRun()
	}
	return store.LoadRun(ref)
}

func showRun(run *storage.ScanRun) error {
	format := resultsFormat
	if format == "" {
		format = cfg.Format
	}

	switch format {
	case "json":
		return reporter.NewJSONReporter(os.Stdout, true).Generate(run)
	case "text":
		return reporter.NewTextReporter(os.Stdout).Generate(run)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func listRuns(store *storage.LocalStorage) error {
	lastN := resultsLastN
	if lastN == 0 {
		lastN = cfg.LastRuns
	}

	refs, err := store.ListRuns()
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Println("No stored runs found.")
		fmt.Println("Run 'sodaop run --store ...' to record your first scan.")
		return nil
	}

	runs, err := store.GetLastNRuns(lastN)
	if err != nil {
		return err
	}

	fmt.Printf("%-19s  %-36s  %-5s  %s\n", "TIMESTAMP", "RUN", "STATE", "CONNECTION")
	for _, run := range runs {
		fmt.Printf("%-19s  %-36s  %-5s  %s\n",
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.ID,
			strings.ToUpper(run.Outcome),
			run.Connection)
	}

	if len(refs) > len(runs) {
		fmt.Printf("\n%d of %d runs shown. Use --last to see more.\n", len(runs), len(refs))
	}
	return nil
}
