package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"gst-reconciler/cmd/reconciler/config"
	"gst-reconciler/internal/parsers"
	"gst-reconciler/internal/reconciler"
	"gst-reconciler/internal/reporter"
	"gst-reconciler/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	firmFile      string
	portalFile    string
	outputFile    string
	buffer        int64
	closePolicy   string
	summaryFormat string
	showUnmatched bool
	showProgress  bool
	interactive   bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile the firm ledger with the GST portal ledger",
	Long: `Reconcile compares the firm's purchase ledger with the invoices downloaded
from the GST portal, supplier GSTIN by supplier GSTIN.

A firm invoice is an Exact match when a portal invoice of the same supplier has
the same invoice number once punctuation is ignored. Otherwise it is a Close
match for every portal invoice of the same supplier with the same invoice date
and a tax total within the buffer. Remaining firm invoices are Unmatched.

This command requires:
- The firm ledger (xlsx or csv)
- The portal ledger (xlsx or csv)
- The output workbook path

Examples:
  # Basic reconciliation
  reconciler reconcile --firm books.xlsx --portal gstr2b.xlsx --output reco.xlsx

  # Allow totals to differ by up to 10 rupees for close matches
  reconciler reconcile -f books.xlsx -p gstr2b.xlsx -o reco --buffer 10

  # Keep only the first close match and print the summary as JSON
  reconciler reconcile -f books.xlsx -p gstr2b.xlsx -o reco.xlsx --close-policy first --summary-format json

  # Ask for anything not given on the command line
  reconciler reconcile --interactive`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Input and output flags
	reconcileCmd.Flags().StringVarP(&firmFile, config.KeyFirm, "f", "", "path to the firm ledger (required)")
	reconcileCmd.Flags().StringVarP(&portalFile, config.KeyPortal, "p", "", "path to the GST portal ledger (required)")
	reconcileCmd.Flags().StringVarP(&outputFile, config.KeyOutput, "o", "", "path of the output workbook; .xlsx is added when missing (required)")

	// Matching flags
	reconcileCmd.Flags().Int64VarP(&buffer, config.KeyBuffer, "b", 0, "largest tax total difference, in rupees, for a close match")
	reconcileCmd.Flags().StringVar(&closePolicy, config.KeyClosePolicy, "all", "close matches to keep per firm invoice: all, first")

	// Summary flags
	reconcileCmd.Flags().StringVar(&summaryFormat, config.KeySummaryFormat, "console", "summary format: console, json, csv")
	reconcileCmd.Flags().BoolVar(&showUnmatched, config.KeyShowUnmatched, false, "list unmatched firm invoices in the summary")

	// UI flags
	reconcileCmd.Flags().BoolVar(&showProgress, config.KeyProgress, false, "show a progress bar while matching")
	reconcileCmd.Flags().BoolVarP(&interactive, config.KeyInteractive, "i", false, "prompt for missing paths and buffer")

	// Bind flags to viper
	for _, key := range []string{
		config.KeyFirm, config.KeyPortal, config.KeyOutput, config.KeyBuffer, config.KeyClosePolicy,
		config.KeySummaryFormat, config.KeyShowUnmatched, config.KeyProgress, config.KeyInteractive,
	} {
		viper.BindPFlag(key, reconcileCmd.Flags().Lookup(key))
	}
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file and environment)
	firmFile = viper.GetString(config.KeyFirm)
	portalFile = viper.GetString(config.KeyPortal)
	outputFile = viper.GetString(config.KeyOutput)
	buffer = viper.GetInt64(config.KeyBuffer)
	closePolicy = viper.GetString(config.KeyClosePolicy)
	summaryFormat = viper.GetString(config.KeySummaryFormat)
	showUnmatched = viper.GetBool(config.KeyShowUnmatched)
	showProgress = viper.GetBool(config.KeyProgress)
	interactive = viper.GetBool(config.KeyInteractive)

	if interactive {
		if err := promptMissing(newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())); err != nil {
			return errors.ConfigurationError(errors.CodeMissingConfig, "interactive input", nil, err)
		}
	}

	// Validate required flags
	if firmFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, config.KeyFirm, nil, nil)
	}
	if portalFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, config.KeyPortal, nil, nil)
	}
	if outputFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, config.KeyOutput, nil, nil)
	}

	// Validate file existence
	if err := validateFileExists(firmFile, "firm ledger"); err != nil {
		return err
	}
	if err := validateFileExists(portalFile, "portal ledger"); err != nil {
		return err
	}

	if buffer < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, config.KeyBuffer, buffer,
			fmt.Errorf("buffer cannot be negative")).
			WithSuggestion("use a whole number of rupees, 0 or more")
	}

	// Validate output directory exists
	outputFile = reporter.OutputPath(filepath.Dir(outputFile), filepath.Base(outputFile))
	dir := filepath.Dir(outputFile)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errors.FileError(errors.CodeFileNotFound, dir, fmt.Errorf("output directory does not exist: %s", dir))
	}

	return nil
}

// promptMissing asks for the values the command line did not provide, in the
// order the operator is used to
func promptMissing(p *prompter) error {
	var err error

	if firmFile == "" {
		if firmFile, err = p.askFile("Enter the path to the firm ledger: ", "firm ledger"); err != nil {
			return err
		}
	}
	if portalFile == "" {
		if portalFile, err = p.askFile("Enter the path to the portal ledger: ", "portal ledger"); err != nil {
			return err
		}
	}
	if outputFile == "" {
		dir, err := p.askDir("Enter the folder for the output file: ")
		if err != nil {
			return err
		}
		name, err := p.askName("Enter the name of the output file: ")
		if err != nil {
			return err
		}
		outputFile = reporter.OutputPath(dir, name)
	}
	if !viper.IsSet(config.KeyBuffer) {
		if buffer, err = p.askBuffer("Enter the buffer value (in rupees): "); err != nil {
			return err
		}
	}
	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, description, nil, nil)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, filePath, err).
			WithContext("description", description)
	}
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}

	if info.IsDir() {
		return errors.FileError(errors.CodeUnsupportedType, filePath,
			fmt.Errorf("%s is a directory, expected a file: %s", description, filePath))
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := viper.GetViper()

	// Create configurations
	ledgerConfig, err := config.CreateLedgerConfig(v)
	if err != nil {
		return err
	}
	matchingConfig, err := config.CreateMatchingConfig(buffer, closePolicy)
	if err != nil {
		return err
	}
	reportConfig, err := config.CreateReportConfig(v, summaryFormat, showUnmatched)
	if err != nil {
		return err
	}
	if err := config.ValidateConfig(ledgerConfig, matchingConfig, reportConfig); err != nil {
		return err
	}

	parser, err := parsers.NewLedgerParser(ledgerConfig)
	if err != nil {
		return err
	}
	writer, err := reporter.NewWorkbookWriter(reportConfig)
	if err != nil {
		return err
	}

	service, err := reconciler.NewReconciliationService(parser, writer, matchingConfig)
	if err != nil {
		return err
	}
	if showProgress {
		service.SetProgressOutput(cmd.ErrOrStderr())
	}

	request := &reconciler.ReconciliationRequest{
		FirmFile:   firmFile,
		PortalFile: portalFile,
		OutputFile: outputFile,
	}

	result, err := service.ProcessReconciliation(ctx, request)
	if err != nil {
		return err
	}

	summary, err := reporter.NewSummaryReporter(reportConfig)
	if err != nil {
		return err
	}
	return summary.Report(result, cmd.OutOrStdout())
}
