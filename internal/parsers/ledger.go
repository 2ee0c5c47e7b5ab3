package parsers

import (
	"context"
	"fmt"
	"time"

	"gst-reconciler/internal/models"
	"gst-reconciler/pkg/errors"
	"gst-reconciler/pkg/logger"

	"github.com/shopspring/decimal"
)

// Ledger source names used in errors and logs
const (
	SourceFirm   = "firm"
	SourcePortal = "portal"
)

// LedgerParser loads firm and portal ledgers using a column mapping
type LedgerParser struct {
	*BaseParser
	config *LedgerConfig
	logger logger.Logger
}

// NewLedgerParser creates a new LedgerParser with the given configuration
func NewLedgerParser(config *LedgerConfig) (*LedgerParser, error) {
	if config == nil {
		config = DefaultLedgerConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"ledger_columns",
			config,
			err,
		).WithSuggestion("Check the column names and date formats in the config file")
	}

	log := logger.GetGlobalLogger().WithComponent("ledger_parser")
	log.WithFields(logger.Fields{
		"firm_date_format":   config.Firm.DateFormat,
		"portal_date_format": config.Portal.DateFormat,
		"firm_sheet":         config.Firm.Sheet,
		"portal_sheet":       config.Portal.Sheet,
	}).Debug("Created ledger parser")

	return &LedgerParser{
		BaseParser: NewBaseParser(),
		config:     config,
		logger:     log,
	}, nil
}

// Config returns the parser's column mapping
func (lp *LedgerParser) Config() *LedgerConfig {
	return lp.config
}

// cellReader reads named cells of one row and converts them, keeping the
// first conversion error.
type cellReader struct {
	table  *Table
	index  map[string]int
	names  map[string]string
	layout string
	row    Row
	err    error
}

func (c *cellReader) text(field string) string {
	return c.table.Value(c.row, c.index[field])
}

func (c *cellReader) amount(field string) decimal.Decimal {
	raw := c.text(field)
	v, err := ParseAmount(raw)
	if err != nil && c.err == nil {
		c.err = errors.ParseError(errors.CodeInvalidAmount, c.table.Path, c.row.Line, c.names[field], raw, err)
	}
	return v
}

func (c *cellReader) date(field string) time.Time {
	raw := c.text(field)
	v, err := ParseDate(raw, c.layout, c.table.Workbook, c.table.Date1904)
	if err != nil && c.err == nil {
		c.err = errors.ParseError(errors.CodeInvalidDate, c.table.Path, c.row.Line, c.names[field], raw, err).
			WithSuggestion("invoice dates in this ledger must be written as " + layoutHint(c.layout))
	}
	return v
}

// openLedger reads the table and resolves every required column, failing
// with a schema error on the first missing one.
func (lp *LedgerParser) openLedger(ctx context.Context, source, path, sheet string, required []requiredColumn) (*Table, map[string]int, map[string]string, error) {
	table, err := lp.ReadTable(ctx, path, sheet)
	if err != nil {
		return nil, nil, nil, err
	}

	index := make(map[string]int, len(required))
	names := make(map[string]string, len(required))
	var missing []string
	for _, col := range required {
		i := table.ColumnIndex(col.header)
		if i == -1 {
			missing = append(missing, col.header)
			continue
		}
		index[col.field] = i
		names[col.field] = col.header
	}

	if len(missing) > 0 {
		lp.logger.WithFields(logger.Fields{
			"source":            source,
			"file_path":         path,
			"missing_headers":   missing,
			"available_headers": table.Headers,
		}).Error("Required columns are missing")

		return nil, nil, nil, errors.SchemaError(source, path, missing[0], lp.config.ColumnMappings()).
			WithContext("missing_columns", missing).
			WithContext("required_columns", headers(required))
	}

	return table, index, names, nil
}

// ParseFirmLedger loads the firm's purchase ledger
func (lp *LedgerParser) ParseFirmLedger(ctx context.Context, path string) ([]*models.FirmRecord, *ParseStats, error) {
	lp.logger.WithFields(logger.Fields{
		"file_path": path,
		"operation": "parse_firm_ledger",
	}).Info("Starting firm ledger parsing")

	table, index, names, err := lp.openLedger(ctx, SourceFirm, path, lp.config.Firm.Sheet, lp.config.firmRequired())
	if err != nil {
		return nil, nil, err
	}

	stats := newParseStats(table)
	records := make([]*models.FirmRecord, 0, len(table.Rows))
	cells := &cellReader{table: table, index: index, names: names, layout: lp.config.Firm.DateFormat}

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, stats, errors.ReconciliationError(errors.CodeCancelled, "parse_firm_ledger", err)
		}
		cells.row = row

		gstin := cells.text("gstin")
		if gstin == "" {
			stats.skip(row.Line)
			continue
		}

		record := &models.FirmRecord{
			GSTIN:           gstin,
			PartyName:       cells.text("party_name"),
			AccountingDocNo: cells.text("accounting_document_no"),
			InvoiceNumber:   cells.text("invoice_number"),
			InvoiceDate:     cells.date("invoice_date"),
			CGST:            cells.amount("cgst"),
			SGST:            cells.amount("sgst"),
			IGST:            cells.amount("igst"),
			Row:             row.Line,
		}
		if cells.err != nil {
			lp.logger.WithError(cells.err).WithField("line_number", row.Line).Error("Failed to parse firm ledger row")
			return nil, stats, cells.err
		}
		if err := record.Validate(); err != nil {
			return nil, stats, invalidRecord(SourceFirm, table.Path, row.Line, err)
		}

		records = append(records, record)
		stats.RecordsParsed++
	}

	lp.logCompleted(SourceFirm, stats)
	return records, stats, nil
}

// ParsePortalLedger loads the ledger downloaded from the tax portal
func (lp *LedgerParser) ParsePortalLedger(ctx context.Context, path string) ([]*models.PortalRecord, *ParseStats, error) {
	lp.logger.WithFields(logger.Fields{
		"file_path": path,
		"operation": "parse_portal_ledger",
	}).Info("Starting portal ledger parsing")

	table, index, names, err := lp.openLedger(ctx, SourcePortal, path, lp.config.Portal.Sheet, lp.config.portalRequired())
	if err != nil {
		return nil, nil, err
	}

	stats := newParseStats(table)
	records := make([]*models.PortalRecord, 0, len(table.Rows))
	cells := &cellReader{table: table, index: index, names: names, layout: lp.config.Portal.DateFormat}

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, stats, errors.ReconciliationError(errors.CodeCancelled, "parse_portal_ledger", err)
		}
		cells.row = row

		gstin := cells.text("gstin")
		if gstin == "" {
			stats.skip(row.Line)
			continue
		}

		record := &models.PortalRecord{
			GSTIN:         gstin,
			InvoiceNumber: cells.text("invoice_number"),
			InvoiceDate:   cells.date("invoice_date"),
			CentralTax:    cells.amount("central_tax"),
			StateTax:      cells.amount("state_tax"),
			IntegratedTax: cells.amount("integrated_tax"),
			Row:           row.Line,
		}
		if cells.err != nil {
			lp.logger.WithError(cells.err).WithField("line_number", row.Line).Error("Failed to parse portal ledger row")
			return nil, stats, cells.err
		}
		if err := record.Validate(); err != nil {
			return nil, stats, invalidRecord(SourcePortal, table.Path, row.Line, err)
		}

		records = append(records, record)
		stats.RecordsParsed++
	}

	lp.logCompleted(SourcePortal, stats)
	return records, stats, nil
}

// invalidRecord reports a row whose cells parsed but do not form a usable
// invoice record
func invalidRecord(source, path string, line int, err error) *errors.ReconcilerError {
	return errors.Wrap(err, errors.CategoryParse, errors.CodeInvalidData,
		fmt.Sprintf("invalid %s ledger record in file %s at row %d: %v", source, path, line, err)).
		WithContext("file", path).
		WithContext("row", line).
		WithSuggestion("check the supplier GSTIN and invoice date of this row")
}

func (lp *LedgerParser) logCompleted(source string, stats *ParseStats) {
	lp.logger.WithFields(logger.Fields{
		"source":         source,
		"file_path":      stats.File,
		"sheet":          stats.Sheet,
		"data_rows":      stats.DataRows,
		"records_parsed": stats.RecordsParsed,
		"skipped_rows":   stats.SkippedRows,
		"blank_rows":     stats.BlankRows,
	}).Info("Ledger parsing completed")

	if stats.SkippedRows > 0 {
		lp.logger.WithFields(logger.Fields{
			"source": source,
			"lines":  stats.SkippedLines,
		}).Warn("Skipped rows without a supplier GSTIN")
	}
}
