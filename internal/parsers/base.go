// Package parsers loads the firm and portal ledgers into typed records.
//
// Ledgers are read from spreadsheet workbooks (.xlsx, .xlsm) or CSV exports.
// The first non-empty row is the header row. Required columns are located
// by header name using LedgerConfig, which is the only place header names
// appear; everything after loading works on models.FirmRecord and
// models.PortalRecord.
//
// Example usage:
//
//	parser, err := parsers.NewLedgerParser(parsers.DefaultLedgerConfig())
//	firm, stats, err := parser.ParseFirmLedger(ctx, "purchase_register.xlsx")
//	portal, _, err := parser.ParsePortalLedger(ctx, "portal_download.xlsx")
//
// Loading fails with a schema error naming the missing column when a
// required header is absent, and with a parse error naming the file, row,
// column and value when a date or amount cell cannot be read.
package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gst-reconciler/pkg/errors"
	"gst-reconciler/pkg/logger"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data row of a table with its 1-based line number in the source
type Row struct {
	Line  int
	Cells []string
}

// Table holds the header row and the non-blank data rows of one worksheet
// or CSV file.
type Table struct {
	Path       string
	Sheet      string
	Headers    []string
	HeaderLine int
	HeaderMap  map[string]int
	Rows       []Row
	BlankRows  int

	// Workbook is set when cells come from a spreadsheet, where dates may
	// be stored as serial numbers.
	Workbook bool
	Date1904 bool
}

// ColumnIndex returns the index of a column by name, or -1 if not found
func (t *Table) ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	if index, exists := t.HeaderMap[name]; exists {
		return index
	}

	// Try case-insensitive lookup
	for i, header := range t.Headers {
		if strings.EqualFold(header, name) {
			return i
		}
	}

	return -1
}

// Value returns the trimmed cell of row at index, or "" when the row is short
func (t *Table) Value(row Row, index int) string {
	if index < 0 || index >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[index])
}

// BaseParser reads workbook and CSV files into tables
type BaseParser struct {
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser
func NewBaseParser() *BaseParser {
	return &BaseParser{
		logger: logger.GetGlobalLogger().WithComponent("base_parser"),
	}
}

// ReadTable reads the given sheet of a workbook, or a CSV file, into a
// Table. An empty sheet name selects the first worksheet.
func (bp *BaseParser) ReadTable(ctx context.Context, path, sheet string) (*Table, error) {
	bp.logger.WithFields(logger.Fields{
		"file_path": path,
		"sheet":     sheet,
	}).Debug("Reading ledger table")

	if err := checkReadable(path); err != nil {
		bp.logger.WithError(err).WithField("file_path", path).Error("Ledger file is not readable")
		return nil, err
	}

	var (
		table *Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		table, err = bp.readWorkbook(ctx, path, sheet)
	case ".csv":
		table, err = bp.readCSV(ctx, path)
	default:
		return nil, errors.FileError(errors.CodeUnsupportedType, path, nil)
	}
	if err != nil {
		return nil, err
	}

	bp.logger.WithFields(logger.Fields{
		"file_path":   path,
		"sheet":       table.Sheet,
		"header_line": table.HeaderLine,
		"rows":        len(table.Rows),
		"blank_rows":  table.BlankRows,
	}).Debug("Read ledger table")

	return table, nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return errors.FileError(errors.CodeFilePermission, path, err)
		}
		return errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	if info.IsDir() {
		return errors.FileError(errors.CodeUnsupportedType, path, fmt.Errorf("%s is a directory", path))
	}
	return nil
}

func (bp *BaseParser) readWorkbook(ctx context.Context, path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, fmt.Errorf("workbook has no worksheets"))
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if index, _ := f.GetSheetIndex(sheet); index == -1 {
		return nil, errors.New(errors.CategorySchema, errors.CodeMissingHeader,
			fmt.Sprintf("worksheet '%s' not found in %s", sheet, path)).
			WithSuggestion(fmt.Sprintf("available worksheets: %s", strings.Join(sheets, ", "))).
			WithContext("file", path).
			WithContext("sheet", sheet)
	}

	table := &Table{Path: path, Sheet: sheet, Workbook: true}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		table.Date1904 = *props.Date1904
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer rows.Close()

	line := 0
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, errors.ReconciliationError(errors.CodeCancelled, "reading "+path, err)
		}
		line++

		cells, err := rows.Columns()
		if err != nil {
			return nil, errors.FileError(errors.CodeFileCorrupted, path, err).WithContext("row", line)
		}
		table.add(line, cells)
	}
	if err := rows.Error(); err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	if table.HeaderLine == 0 {
		return nil, missingHeader(path)
	}
	return table, nil
}

// csv files have no sheets; encoding/csv covers the format
func (bp *BaseParser) readCSV(ctx context.Context, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1 // Variable number of fields
	reader.TrimLeadingSpace = true

	table := &Table{Path: path}
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.ReconciliationError(errors.CodeCancelled, "reading "+path, err)
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, path, line, "", "", err).
				WithSuggestion("check the CSV quoting and delimiters")
		}
		table.add(line, record)
	}

	if table.HeaderLine == 0 {
		return nil, missingHeader(path)
	}
	return table, nil
}

// add records a source row as the header row or a data row. Rows before the
// header and blank rows after it are not kept.
func (t *Table) add(line int, cells []string) {
	if isBlank(cells) {
		if t.HeaderLine != 0 {
			t.BlankRows++
		}
		return
	}

	if t.HeaderLine == 0 {
		t.HeaderLine = line
		t.Headers = make([]string, len(cells))
		t.HeaderMap = make(map[string]int, len(cells))
		for i, h := range cells {
			t.Headers[i] = strings.TrimSpace(h)
			if _, dup := t.HeaderMap[t.Headers[i]]; !dup {
				t.HeaderMap[t.Headers[i]] = i
			}
		}
		return
	}

	t.Rows = append(t.Rows, Row{Line: line, Cells: cells})
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func missingHeader(path string) *errors.ReconcilerError {
	return errors.New(errors.CategorySchema, errors.CodeMissingHeader,
		fmt.Sprintf("no header row found in %s", path)).
		WithSuggestion("the ledger appears to be empty; export it again with its header row").
		WithContext("file", path)
}

// ParseStats holds statistics about loading one ledger
type ParseStats struct {
	File          string
	Sheet         string
	HeaderLine    int
	DataRows      int
	RecordsParsed int
	BlankRows     int
	// SkippedRows counts data rows without a supplier GSTIN, such as
	// trailing total rows. They cannot belong to any group.
	SkippedRows  int
	SkippedLines []int
}

func newParseStats(table *Table) *ParseStats {
	return &ParseStats{
		File:       table.Path,
		Sheet:      table.Sheet,
		HeaderLine: table.HeaderLine,
		DataRows:   len(table.Rows),
		BlankRows:  table.BlankRows,
	}
}

func (ps *ParseStats) skip(line int) {
	ps.SkippedRows++
	ps.SkippedLines = append(ps.SkippedLines, line)
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Read %d data rows, %d records, %d skipped without GSTIN, %d blank",
		ps.DataRows, ps.RecordsParsed, ps.SkippedRows, ps.BlankRows)
}
