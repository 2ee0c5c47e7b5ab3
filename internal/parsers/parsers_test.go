package parsers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gst-reconciler/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var firmHeader = []interface{}{
	"GSTIN of supplier", "Party Name", "Accounting Document No", "Invoice No",
	"Invoice Date", "CGST Amount", "SGST Amount", "IGST Amount",
}

var portalHeader = []interface{}{
	"GSTIN of supplier", "Invoice number", "Invoice Date",
	"Central Tax(₹)", "State/UT Tax(₹)", "Integrated Tax(₹)",
}

// writeXLSX creates a workbook with one sheet holding the given rows
func writeXLSX(t *testing.T, name, sheet string, rows ...[]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	} else {
		sheet = "Sheet1"
	}

	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newParser(t *testing.T) *LedgerParser {
	t.Helper()
	parser, err := NewLedgerParser(nil)
	require.NoError(t, err)
	return parser
}

func TestDefaultLedgerConfig(t *testing.T) {
	config := DefaultLedgerConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, "02-01-2006", config.Firm.DateFormat)
	assert.Equal(t, "02/01/2006", config.Portal.DateFormat)
	assert.Equal(t, "Central Tax(₹)", config.Portal.Columns.CentralTax)
	assert.Len(t, config.firmRequired(), 8)
	assert.Len(t, config.portalRequired(), 6)
}

func TestLedgerConfig_Validate(t *testing.T) {
	config := DefaultLedgerConfig()
	config.Portal.Columns.StateTax = " "
	assert.Error(t, config.Validate())

	config = DefaultLedgerConfig()
	config.Firm.DateFormat = ""
	assert.Error(t, config.Validate())

	_, err := NewLedgerParser(config)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestParseFirmLedger_Workbook(t *testing.T) {
	path := writeXLSX(t, "firm.xlsx", "",
		firmHeader,
		[]interface{}{"27AAACB1234F1Z5", "Acme Traders", "AD-001", "INV-001", "05-03-2024", "1,234.50", "1234.50", ""},
		[]interface{}{"29AAACX9876K1Z2", "Beta Corp", "AD-002", "B/77", "31-12-2023", 0, 0, 180.18},
	)

	records, stats, err := newParser(t).ParseFirmLedger(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, "27AAACB1234F1Z5", r.GSTIN)
	assert.Equal(t, "Acme Traders", r.PartyName)
	assert.Equal(t, "AD-001", r.AccountingDocNo)
	assert.Equal(t, "INV-001", r.InvoiceNumber)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), r.InvoiceDate)
	assert.True(t, r.Total().Equal(decimal.RequireFromString("2469")), "total %s", r.Total())
	assert.Equal(t, 2, r.Row)

	assert.True(t, records[1].Total().Equal(decimal.RequireFromString("180.18")))
	assert.Equal(t, 3, records[1].Row)

	assert.Equal(t, 2, stats.RecordsParsed)
	assert.Equal(t, 1, stats.HeaderLine)
	assert.Equal(t, "Sheet1", stats.Sheet)
}

func TestParsePortalLedger_Workbook(t *testing.T) {
	path := writeXLSX(t, "portal.xlsx", "",
		portalHeader,
		[]interface{}{"27AAACB1234F1Z5", "INV001", "05/03/2024", "₹ 1,234.50", "1234.50", "0"},
	)

	records, stats, err := newParser(t).ParsePortalLedger(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "INV001", r.InvoiceNumber)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), r.InvoiceDate)
	assert.True(t, r.Total().Equal(decimal.RequireFromString("2469")))
	assert.Equal(t, 1, stats.RecordsParsed)
}

func TestParse_DateFormatIndependence(t *testing.T) {
	parser := newParser(t)

	firmPath := writeXLSX(t, "firm.xlsx", "",
		firmHeader,
		[]interface{}{"G1", "P", "AD", "I", "05-03-2024", 1, 1, 1},
	)
	portalPath := writeXLSX(t, "portal.xlsx", "",
		portalHeader,
		[]interface{}{"G1", "I", "05/03/2024", 1, 1, 1},
	)

	firm, _, err := parser.ParseFirmLedger(context.Background(), firmPath)
	require.NoError(t, err)
	portal, _, err := parser.ParsePortalLedger(context.Background(), portalPath)
	require.NoError(t, err)

	assert.True(t, firm[0].InvoiceDate.Equal(portal[0].InvoiceDate))
}

func TestParse_DateFormatIndependence_Unpadded(t *testing.T) {
	parser := newParser(t)

	firmPath := writeXLSX(t, "firm.xlsx", "",
		firmHeader,
		[]interface{}{"G1", "P", "AD", "I", "5-3-2024", 1, 1, 1},
		[]interface{}{"G1", "P", "AD", "J", "10-01-2024", 1, 1, 1},
	)
	portalPath := writeXLSX(t, "portal.xlsx", "",
		portalHeader,
		[]interface{}{"G1", "I", "05/03/2024", 1, 1, 1},
		[]interface{}{"G1", "J", "10/1/2024", 1, 1, 1},
	)

	firm, _, err := parser.ParseFirmLedger(context.Background(), firmPath)
	require.NoError(t, err)
	portal, _, err := parser.ParsePortalLedger(context.Background(), portalPath)
	require.NoError(t, err)

	require.Len(t, firm, 2)
	require.Len(t, portal, 2)
	assert.True(t, firm[0].InvoiceDate.Equal(portal[0].InvoiceDate))
	assert.True(t, firm[1].InvoiceDate.Equal(portal[1].InvoiceDate))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), firm[0].InvoiceDate)
}

func TestParse_NativeDateCells(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	path := writeXLSX(t, "portal.xlsx", "",
		portalHeader,
		[]interface{}{"G1", "INV001", date, 250, 250, 0},
	)

	records, _, err := newParser(t).ParsePortalLedger(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, date, records[0].InvoiceDate)
}

func TestParse_MissingColumn(t *testing.T) {
	header := []interface{}{"GSTIN of supplier", "Party Name", "Accounting Document No", "Invoice No", "Invoice Date", "CGST Amount", "IGST Amount"}
	path := writeXLSX(t, "firm.xlsx", "", header, []interface{}{"G1", "P", "AD", "I", "05-03-2024", 1, 1})

	_, _, err := newParser(t).ParseFirmLedger(context.Background(), path)
	require.Error(t, err)

	rerr, ok := errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategorySchema, rerr.Category)
	assert.Equal(t, errors.CodeMissingColumn, rerr.Code)
	assert.Contains(t, rerr.Message, "SGST Amount")
	assert.Contains(t, rerr.Message, "firm")
	assert.Contains(t, rerr.Suggestion, `"SGST Amount" in the firm ledger, "State/UT Tax(₹)" in the portal ledger`)
	assert.Contains(t, rerr.Suggestion, `"Accounting Document No" in the firm ledger`)
	assert.Equal(t, 3, rerr.GetExitCode())
}

func TestParse_MissingPortalColumn(t *testing.T) {
	path := writeXLSX(t, "portal.xlsx", "",
		[]interface{}{"GSTIN of supplier", "Invoice number", "Invoice Date", "Central Tax(₹)", "State/UT Tax(₹)"},
	)

	_, _, err := newParser(t).ParsePortalLedger(context.Background(), path)
	require.Error(t, err)

	rerr, ok := errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategorySchema, rerr.Category)
	assert.Contains(t, rerr.Message, "Integrated Tax(₹)")
	assert.Equal(t, SourcePortal, rerr.Context["source"])
}

func TestParse_HeaderLookupIsCaseInsensitive(t *testing.T) {
	path := writeXLSX(t, "portal.xlsx", "",
		[]interface{}{" gstin of supplier ", "INVOICE NUMBER", "Invoice Date", "Central Tax(₹)", "State/UT Tax(₹)", "Integrated Tax(₹)"},
		[]interface{}{"G1", "X1", "01/02/2024", 1, 2, 3},
	)

	records, _, err := newParser(t).ParsePortalLedger(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "X1", records[0].InvoiceNumber)
}

func TestParse_InvalidCells(t *testing.T) {
	tests := []struct {
		name   string
		row    []interface{}
		code   errors.ErrorCode
		column string
	}{
		{"wrong date separator", []interface{}{"G1", "P", "AD", "I", "05/03/2024", 1, 1, 1}, errors.CodeInvalidDate, "Invoice Date"},
		{"empty date", []interface{}{"G1", "P", "AD", "I", "", 1, 1, 1}, errors.CodeInvalidDate, "Invoice Date"},
		{"text amount", []interface{}{"G1", "P", "AD", "I", "05-03-2024", "abc", 1, 1}, errors.CodeInvalidAmount, "CGST Amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeXLSX(t, "firm.xlsx", "", firmHeader, []interface{}{"G1", "P", "AD", "I0", "01-01-2024", 0, 0, 0}, tt.row)

			_, _, err := newParser(t).ParseFirmLedger(context.Background(), path)
			require.Error(t, err)

			rerr, ok := errors.AsReconcilerError(err)
			require.True(t, ok)
			assert.Equal(t, errors.CategoryParse, rerr.Category)
			assert.Equal(t, tt.code, rerr.Code)
			assert.Equal(t, 3, rerr.Context["row"])
			assert.Equal(t, tt.column, rerr.Context["column"])
		})
	}
}

func TestParse_RejectsZeroInvoiceDate(t *testing.T) {
	firmPath := writeXLSX(t, "firm.xlsx", "", firmHeader,
		[]interface{}{"G1", "P", "AD", "I1", "01-01-2024", 1, 1, 0},
		[]interface{}{"G1", "P", "AD", "I2", "01-01-0001", 1, 1, 0},
	)
	portalPath := writeXLSX(t, "portal.xlsx", "", portalHeader,
		[]interface{}{"G1", "I2", "01/01/0001", 1, 1, 0},
	)
	parser := newParser(t)

	_, _, err := parser.ParseFirmLedger(context.Background(), firmPath)
	require.Error(t, err)
	rerr, ok := errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryParse, rerr.Category)
	assert.Equal(t, errors.CodeInvalidData, rerr.Code)
	assert.Equal(t, 3, rerr.Context["row"])
	assert.Contains(t, rerr.Message, "invoice date cannot be zero")

	_, _, err = parser.ParsePortalLedger(context.Background(), portalPath)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryParse))
	assert.Contains(t, err.Error(), "invalid portal ledger record")
}

func TestParse_SkipsBlankAndTotalRows(t *testing.T) {
	path := writeXLSX(t, "firm.xlsx", "",
		nil,
		firmHeader,
		[]interface{}{"G1", "P", "AD", "I1", "01-01-2024", 1, 1, 0},
		nil,
		[]interface{}{"G1", "P", "AD", "I2", "02-01-2024", 2, 2, 0},
		[]interface{}{"", "Total", "", "", "", 3, 3, 0},
	)

	records, stats, err := newParser(t).ParseFirmLedger(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].Row)
	assert.Equal(t, 5, records[1].Row)
	assert.Equal(t, 2, stats.HeaderLine)
	assert.Equal(t, 1, stats.SkippedRows)
	assert.Equal(t, []int{6}, stats.SkippedLines)
	assert.Equal(t, 1, stats.BlankRows)
}

func TestParse_ConfiguredSheet(t *testing.T) {
	path := writeXLSX(t, "portal.xlsx", "B2B",
		portalHeader,
		[]interface{}{"G1", "X1", "01/02/2024", 1, 2, 3},
	)

	config := DefaultLedgerConfig()
	config.Portal.Sheet = "B2B"
	parser, err := NewLedgerParser(config)
	require.NoError(t, err)

	records, stats, err := parser.ParsePortalLedger(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "B2B", stats.Sheet)

	config.Portal.Sheet = "B2BA"
	_, _, err = parser.ParsePortalLedger(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategorySchema))
	assert.Contains(t, err.Error(), "B2B")
}

func TestParse_CustomColumns(t *testing.T) {
	config := DefaultLedgerConfig()
	config.Firm.Columns.InvoiceNumber = "Bill No"
	config.Firm.DateFormat = "2006-01-02"

	header := append([]interface{}{}, firmHeader...)
	header[3] = "Bill No"
	path := writeXLSX(t, "firm.xlsx", "", header, []interface{}{"G1", "P", "AD", "B-1", "2024-03-05", 1, 1, 1})

	parser, err := NewLedgerParser(config)
	require.NoError(t, err)

	records, _, err := parser.ParseFirmLedger(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B-1", records[0].InvoiceNumber)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), records[0].InvoiceDate)
}

func TestParse_CSV(t *testing.T) {
	content := "\xEF\xBB\xBFGSTIN of supplier,Invoice number,Invoice Date,Central Tax(₹),State/UT Tax(₹),Integrated Tax(₹)\n" +
		"G1,INV/1,10/01/2024,\"1,000.00\",\"1,000.00\",\n" +
		",,,,,\n" +
		"G2,INV-2,11/01/2024,0,0,50.5\n"
	path := writeFile(t, "portal.csv", content)

	records, stats, err := newParser(t).ParsePortalLedger(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "G1", records[0].GSTIN)
	assert.True(t, records[0].Total().Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, 4, records[1].Row)
	assert.Equal(t, 1, stats.BlankRows)
	assert.Empty(t, stats.Sheet)
}

func TestParse_SerialNumbersOnlyInWorkbooks(t *testing.T) {
	content := "GSTIN of supplier,Invoice number,Invoice Date,Central Tax(₹),State/UT Tax(₹),Integrated Tax(₹)\n" +
		"G1,INV/1,45301,1,1,1\n"
	path := writeFile(t, "portal.csv", content)

	_, _, err := newParser(t).ParsePortalLedger(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryParse))
}

func TestParse_FileErrors(t *testing.T) {
	parser := newParser(t)

	_, _, err := parser.ParseFirmLedger(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	rerr, ok := errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeFileNotFound, rerr.Code)

	_, _, err = parser.ParseFirmLedger(context.Background(), writeFile(t, "ledger.pdf", "%PDF"))
	rerr, ok = errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeUnsupportedType, rerr.Code)

	_, _, err = parser.ParseFirmLedger(context.Background(), writeFile(t, "broken.xlsx", "not a zip"))
	rerr, ok = errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeFileCorrupted, rerr.Code)

	_, _, err = parser.ParseFirmLedger(context.Background(), writeFile(t, "empty.csv", ""))
	rerr, ok = errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeMissingHeader, rerr.Code)
}

func TestParse_Cancelled(t *testing.T) {
	path := writeXLSX(t, "firm.xlsx", "", firmHeader, []interface{}{"G1", "P", "AD", "I", "05-03-2024", 1, 1, 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newParser(t).ParseFirmLedger(ctx, path)
	require.Error(t, err)
	rerr, ok := errors.AsReconcilerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeCancelled, rerr.Code)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"1234.50", "1234.5", false},
		{"1,23,456.78", "123456.78", false},
		{"₹ 99", "99", false},
		{"  ", "0", false},
		{"", "0", false},
		{"-12.5", "-12.5", false},
		{"1.5E+2", "150", false},
		{"12abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	got, err := ParseDate(" 10-01-2024 ", FirmDateLayout, false, false)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseDate("10/01/2024", PortalDateLayout, false, false)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseDate("45301", PortalDateLayout, true, false)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseDate("45301.75", PortalDateLayout, true, false)
	require.NoError(t, err)
	assert.Equal(t, want, got, "time of day is dropped")

	unpaddedDates := []struct {
		raw    string
		layout string
		want   time.Time
	}{
		{"5-3-2024", FirmDateLayout, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"05-3-2024", FirmDateLayout, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"10-1-2024", FirmDateLayout, want},
		{"5/3/2024", PortalDateLayout, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"10/1/2024", PortalDateLayout, want},
	}
	for _, tt := range unpaddedDates {
		got, err := ParseDate(tt.raw, tt.layout, false, false)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, err = ParseDate("5/3/2024", FirmDateLayout, false, false)
	assert.Error(t, err, "separator must still match the layout")

	_, err = ParseDate("2024-01-10", FirmDateLayout, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dd-mm-yyyy")

	_, err = ParseDate("45301", FirmDateLayout, false, false)
	assert.Error(t, err)
}
