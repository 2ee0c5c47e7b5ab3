package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gst-reconciler/internal/generator"
	"gst-reconciler/pkg/errors"
	"gst-reconciler/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	outputDir      string
	seed           int64
	groups         int
	rowsPerGroup   int
	exactRatio     float64
	closeRatio     float64
	buffer         int64
	portalOnlyRows int
	startDate      string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgergen",
	Short: "Generate a firm ledger and a GST portal ledger for testing",
	Long: `ledgergen writes firm_ledger.xlsx and portal_ledger.xlsx with a known
mix of exact matches, close matches and unmatched invoices, then prints the
counts a correct reconciliation must report.

Examples:
  # Default data set
  ledgergen --output-dir ./generated

  # A larger, reproducible data set with portal-only rows
  ledgergen -o ./generated --seed 7 --groups 40 --rows 250 --portal-only 15`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	defaults := generator.NewLedgerGenerator(0)

	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "generated", "folder for the generated ledgers")
	rootCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	rootCmd.Flags().IntVar(&groups, "groups", defaults.Groups, "number of supplier GSTINs")
	rootCmd.Flags().IntVar(&rowsPerGroup, "rows", defaults.RowsPerGroup, "firm invoices per GSTIN")
	rootCmd.Flags().Float64Var(&exactRatio, "exact-ratio", defaults.ExactRatio, "share of firm invoices with an exact counterpart")
	rootCmd.Flags().Float64Var(&closeRatio, "close-ratio", defaults.CloseRatio, "share of firm invoices with a close counterpart")
	rootCmd.Flags().Int64Var(&buffer, "buffer", defaults.Buffer, "largest amount drift of close counterparts, in rupees")
	rootCmd.Flags().IntVar(&portalOnlyRows, "portal-only", 0, "portal invoices under a GSTIN missing from the firm ledger")
	rootCmd.Flags().StringVar(&startDate, "start-date", defaults.StartDate.Format("2006-01-02"), "first invoice date (yyyy-mm-dd)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func run(cmd *cobra.Command, args []string) error {
	logConfig := logger.DefaultConfig()
	if verbose {
		logConfig = logger.DebugConfig()
	}
	log, err := logger.NewLogger(logConfig)
	if err != nil {
		return err
	}
	log = log.WithComponent("ledgergen")

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "start-date", startDate, err)
	}

	g := generator.NewLedgerGenerator(seed)
	g.Groups = groups
	g.RowsPerGroup = rowsPerGroup
	g.ExactRatio = exactRatio
	g.CloseRatio = closeRatio
	g.Buffer = buffer
	g.PortalOnlyRows = portalOnlyRows
	g.StartDate = start

	ledgers, err := g.Generate()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.FileError(errors.CodeFilePermission, outputDir, err)
	}

	firmPath, portalPath, err := generator.WriteFiles(outputDir, ledgers, nil)
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"seed":        seed,
		"firm_rows":   len(ledgers.Firm),
		"portal_rows": len(ledgers.Portal),
		"firm_file":   firmPath,
		"portal_file": portalPath,
	}).Info("Ledgers generated")

	out, err := json.MarshalIndent(struct {
		Seed     int64                 `json:"seed"`
		Buffer   int64                 `json:"buffer"`
		Firm     string                `json:"firm_file"`
		Portal   string                `json:"portal_file"`
		Expected generator.Expectation `json:"expected"`
	}{seed, buffer, firmPath, portalPath, ledgers.Expected}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if rerr, ok := errors.AsReconcilerError(err); ok {
			os.Exit(rerr.GetExitCode())
		}
		os.Exit(1)
	}
}
