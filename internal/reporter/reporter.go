// Package reporter writes reconciliation results.
//
// WorkbookWriter persists the matched and unmatched firm records to an xlsx
// workbook and is the result sink used by the reconciliation service.
// SummaryReporter prints the run summary for the operator in one of the
// supported formats:
//   - Console: human-readable text for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: the unmatched firm records, for quick follow-up in a spreadsheet
//
// Example usage:
//
//	writer, err := reporter.NewWorkbookWriter(nil)
//	err = writer.Write(results, reporter.OutputPath(dir, "reco"))
//
//	summary, err := reporter.NewSummaryReporter(&reporter.ReportConfig{Format: reporter.FormatJSON})
//	err = summary.Report(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gst-reconciler/internal/models"
	"gst-reconciler/internal/reconciler"
)

// OutputFormat represents the supported summary output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration for the output workbook and the summary
type ReportConfig struct {
	// Summary format
	Format OutputFormat `json:"format" mapstructure:"format"`

	// Workbook sheet names
	MatchedSheet   string `json:"matched_sheet" mapstructure:"matched_sheet"`
	UnmatchedSheet string `json:"unmatched_sheet" mapstructure:"unmatched_sheet"`

	// Console options
	IncludeUnmatched       bool `json:"include_unmatched" mapstructure:"include_unmatched"`
	IncludeProcessingStats bool `json:"include_processing_stats" mapstructure:"include_processing_stats"`
	MaxListed              int  `json:"max_listed" mapstructure:"max_listed"`

	// CSV options
	// CSVDelimiter is a single character such as "," or ";".
	CSVDelimiter string `json:"csv_delimiter" mapstructure:"csv_delimiter"`
	CSVHeaders   bool   `json:"csv_headers" mapstructure:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                 FormatConsole,
		MatchedSheet:           "Matched",
		UnmatchedSheet:         "Unmatched",
		IncludeUnmatched:       false,
		IncludeProcessingStats: false,
		MaxListed:              10,
		CSVDelimiter:           ",",
		CSVHeaders:             true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if strings.TrimSpace(c.MatchedSheet) == "" || strings.TrimSpace(c.UnmatchedSheet) == "" {
		return fmt.Errorf("sheet names cannot be empty")
	}
	if strings.EqualFold(c.MatchedSheet, c.UnmatchedSheet) {
		return fmt.Errorf("matched and unmatched sheets must have different names, got %q", c.MatchedSheet)
	}
	// Sheet names are limited to 31 characters in xlsx
	if len([]rune(c.MatchedSheet)) > 31 || len([]rune(c.UnmatchedSheet)) > 31 {
		return fmt.Errorf("sheet names cannot exceed 31 characters")
	}

	if c.MaxListed < 0 {
		return fmt.Errorf("max listed must be non-negative, got %d", c.MaxListed)
	}

	if _, err := c.delimiter(); err != nil {
		return err
	}

	return nil
}

// delimiter returns the CSV field separator. It must be one character that
// encoding/csv accepts as a separator.
func (c *ReportConfig) delimiter() (rune, error) {
	r, size := utf8.DecodeRuneInString(c.CSVDelimiter)
	if size == 0 || size != len(c.CSVDelimiter) {
		return 0, fmt.Errorf("csv delimiter must be a single character, got %q", c.CSVDelimiter)
	}
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError || (unicode.IsSpace(r) && r != '\t') {
		return 0, fmt.Errorf("csv delimiter %q is not allowed", c.CSVDelimiter)
	}
	return r, nil
}

// SummaryReporter prints the summary of a reconciliation run
type SummaryReporter struct {
	config *ReportConfig
}

// NewSummaryReporter creates a new summary reporter with the specified configuration
func NewSummaryReporter(config *ReportConfig) (*SummaryReporter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &SummaryReporter{config: config}, nil
}

// Report writes the summary of result to writer
func (sr *SummaryReporter) Report(result *reconciler.ReconciliationResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch sr.config.Format {
	case FormatConsole:
		return sr.generateConsoleReport(result, writer)
	case FormatJSON:
		return sr.generateJSONReport(result, writer)
	case FormatCSV:
		return sr.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", sr.config.Format)
	}
}

func (sr *SummaryReporter) generateConsoleReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	s := result.Summary

	fmt.Fprintf(writer, "Total number of rows: %d\n", s.TotalFirmRows)
	fmt.Fprintf(writer, "Matched rows: %d\n", s.MatchedRows)
	fmt.Fprintf(writer, "Unmatched rows: %d\n", s.UnmatchedRows)
	if result.Request != nil {
		fmt.Fprintf(writer, "Output file: %s\n", result.Request.OutputFile)
	}
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== MATCH BREAKDOWN ===\n")
	fmt.Fprintf(writer, "Exact matches:          %d (%.1f%%)\n", s.ExactMatches, percentage(s.ExactMatches, s.TotalFirmRows))
	fmt.Fprintf(writer, "Close matches:          %d (%.1f%%)\n", s.CloseMatches, percentage(s.CloseMatches, s.TotalFirmRows))
	fmt.Fprintf(writer, "Unmatched:              %d (%.1f%%)\n", s.UnmatchedRows, percentage(s.UnmatchedRows, s.TotalFirmRows))
	fmt.Fprintf(writer, "Multiple close matches: %d firm records\n", s.MultiCloseRecords)
	fmt.Fprintf(writer, "GSTIN groups:           %d\n", s.Groups)
	fmt.Fprintf(writer, "Buffer:                 %d (%s)\n", result.Matching.Buffer, result.Matching.ClosePolicy)

	if s.SkippedPortalRows > 0 {
		fmt.Fprintf(writer, "\nWARNING: %d portal rows under %d GSTINs not present in the firm ledger were not reconciled\n",
			s.SkippedPortalRows, s.PortalOnlyGSTINs)
		if result.Results != nil {
			sr.printList(result.Results.PortalOnlyGSTINs, writer)
		}
	}

	if sr.config.IncludeUnmatched && result.Results != nil && len(result.Results.Unmatched) > 0 {
		fmt.Fprintf(writer, "\n=== UNMATCHED FIRM RECORDS ===\n")
		sr.printUnmatched(result.Results.Unmatched, writer)
	}

	if sr.config.IncludeProcessingStats && result.Processing != nil {
		fmt.Fprintf(writer, "\n=== PROCESSING STATISTICS ===\n")
		sr.printProcessingStats(result, writer)
	}

	return nil
}

func (sr *SummaryReporter) generateJSONReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	output := map[string]interface{}{
		"run_id":       result.RunID,
		"summary":      result.Summary,
		"matching":     result.Matching,
		"processed_at": result.ProcessedAt,
	}
	if result.Request != nil {
		output["output_file"] = result.Request.OutputFile
	}
	if sr.config.IncludeUnmatched && result.Results != nil {
		output["unmatched"] = result.Results.Unmatched
	}
	if sr.config.IncludeProcessingStats {
		output["processing"] = result.Processing
		output["firm_stats"] = result.FirmStats
		output["portal_stats"] = result.PortalStats
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(output)
}

// generateCSVReport writes the unmatched firm records
func (sr *SummaryReporter) generateCSVReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	comma, err := sr.config.delimiter()
	if err != nil {
		return err
	}

	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = comma

	if sr.config.CSVHeaders {
		if err := csvWriter.Write(UnmatchedHeaders); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	var unmatched []*models.UnmatchedResult
	if result.Results != nil {
		unmatched = result.Results.Unmatched
	}
	for _, u := range unmatched {
		record := []string{
			u.GSTIN,
			u.PartyName,
			u.InvoiceNumber,
			models.FormatDate(u.InvoiceDate),
			u.FirmTotal.StringFixed(2),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write unmatched record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (sr *SummaryReporter) printUnmatched(unmatched []*models.UnmatchedResult, writer io.Writer) {
	for i, u := range unmatched {
		if sr.config.MaxListed > 0 && i >= sr.config.MaxListed {
			fmt.Fprintf(writer, "  ... and %d more\n", len(unmatched)-sr.config.MaxListed)
			break
		}
		fmt.Fprintf(writer, "  %d. GSTIN: %s, Invoice: %s, Date: %s, Total: %s\n",
			i+1, u.GSTIN, u.InvoiceNumber, models.FormatDate(u.InvoiceDate), u.FirmTotal.StringFixed(2))
	}
}

func (sr *SummaryReporter) printList(items []string, writer io.Writer) {
	for i, item := range items {
		if sr.config.MaxListed > 0 && i >= sr.config.MaxListed {
			fmt.Fprintf(writer, "  ... and %d more\n", len(items)-sr.config.MaxListed)
			break
		}
		fmt.Fprintf(writer, "  - %s\n", item)
	}
}

func (sr *SummaryReporter) printProcessingStats(result *reconciler.ReconciliationResult, writer io.Writer) {
	stats := result.Processing
	if result.FirmStats != nil {
		fmt.Fprintf(writer, "Firm ledger:      %s\n", result.FirmStats)
	}
	if result.PortalStats != nil {
		fmt.Fprintf(writer, "Portal ledger:    %s\n", result.PortalStats)
	}
	fmt.Fprintf(writer, "Parsing Time:     %v\n", stats.ParsingTime.Round(time.Millisecond))
	fmt.Fprintf(writer, "Matching Time:    %v\n", stats.MatchingTime.Round(time.Millisecond))
	fmt.Fprintf(writer, "Writing Time:     %v\n", stats.WritingTime.Round(time.Millisecond))
	fmt.Fprintf(writer, "Total Processing: %v\n", stats.TotalProcessingTime.Round(time.Millisecond))
}

// GetConfiguration returns the current configuration
func (sr *SummaryReporter) GetConfiguration() *ReportConfig {
	return sr.config
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}
