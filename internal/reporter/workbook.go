package reporter

import (
	"path/filepath"
	"strconv"
	"strings"

	"gst-reconciler/internal/matcher"
	"gst-reconciler/internal/models"
	"gst-reconciler/internal/reconciler"
	"gst-reconciler/pkg/errors"
	"gst-reconciler/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// Column headers of the output sheets
var (
	MatchedHeaders = []string{
		"GSTIN", "Accounting Document No", "Party Name", "Invoice No", "Invoice Date",
		"Firm Total", "Portal Total", "Difference", "Match Status", "Portal Match",
	}
	UnmatchedHeaders = []string{
		"GSTIN", "Party Name", "Invoice No", "Invoice Date", "Firm Total",
	}
)

// numFmtTwoDecimals is the built-in "0.00" number format
const numFmtTwoDecimals = 2

// WorkbookWriter writes reconciliation results to an xlsx workbook with a
// Matched sheet and an Unmatched sheet.
type WorkbookWriter struct {
	config *ReportConfig
	logger logger.Logger
}

var _ reconciler.ResultSink = (*WorkbookWriter)(nil)

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(config *ReportConfig) (*WorkbookWriter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", config, err).
			WithSuggestion("Check the report configuration values")
	}

	return &WorkbookWriter{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("workbook_writer"),
	}, nil
}

// Write saves results to path. It fails with a resource-busy error when the
// destination cannot be written, for example while the workbook is open in
// a spreadsheet program.
func (w *WorkbookWriter) Write(results *matcher.Results, path string) error {
	w.logger.WithFields(logger.Fields{
		"output_file": path,
		"matched":     len(results.Matched),
		"unmatched":   len(results.Unmatched),
	}).Info("Writing output workbook")

	if err := checkDestination(path); err != nil {
		w.logger.WithError(err).WithField("output_file", path).Error("Output workbook is not writable")
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.build(f, results); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "building output workbook", err)
	}

	if err := f.SaveAs(path); err != nil {
		w.logger.WithError(err).WithField("output_file", path).Error("Failed to save output workbook")
		return wrapWriteError(path, err)
	}

	w.logger.WithField("output_file", path).Info("Output workbook saved")
	return nil
}

func (w *WorkbookWriter) build(f *excelize.File, results *matcher.Results) error {
	matched, unmatched := w.config.MatchedSheet, w.config.UnmatchedSheet

	if err := f.SetSheetName(f.GetSheetName(0), matched); err != nil {
		return err
	}
	if _, err := f.NewSheet(unmatched); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoDecimals})
	if err != nil {
		return err
	}

	matchedRows := make([][]interface{}, 0, len(results.Matched))
	for _, m := range results.Matched {
		matchedRows = append(matchedRows, []interface{}{
			m.GSTIN,
			m.AccountingDocNo,
			m.PartyName,
			m.InvoiceNumber,
			models.FormatDate(m.InvoiceDate),
			m.FirmTotal.InexactFloat64(),
			m.PortalTotal.InexactFloat64(),
			m.Difference.InexactFloat64(),
			m.Kind.String(),
			m.PortalInvoiceNumber,
		})
	}
	if err := writeSheet(f, matched, MatchedHeaders, matchedRows, headerStyle, amountStyle, "F", "H"); err != nil {
		return err
	}

	unmatchedRows := make([][]interface{}, 0, len(results.Unmatched))
	for _, u := range results.Unmatched {
		unmatchedRows = append(unmatchedRows, []interface{}{
			u.GSTIN,
			u.PartyName,
			u.InvoiceNumber,
			models.FormatDate(u.InvoiceDate),
			u.FirmTotal.InexactFloat64(),
		})
	}
	if err := writeSheet(f, unmatched, UnmatchedHeaders, unmatchedRows, headerStyle, amountStyle, "E", "E"); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return nil
}

// writeSheet writes a bold, frozen header row followed by rows. Columns
// firstAmount through lastAmount get the two-decimal number format.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle, amountStyle int, firstAmount, lastAmount string) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		lastRow := strconv.Itoa(len(rows) + 1)
		if err := f.SetCellStyle(sheet, firstAmount+"2", lastAmount+lastRow, amountStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// OutputPath joins an output folder and file name, adding the .xlsx
// extension when the name has none.
func OutputPath(dir, name string) string {
	name = strings.TrimSpace(name)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		name += ".xlsx"
	}
	return filepath.Join(dir, name)
}
