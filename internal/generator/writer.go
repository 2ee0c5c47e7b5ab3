package generator

import (
	"fmt"
	"path/filepath"

	"gst-reconciler/internal/models"
	"gst-reconciler/internal/parsers"

	"github.com/xuri/excelize/v2"
)

// File names written by WriteFiles
const (
	FirmFileName   = "firm_ledger.xlsx"
	PortalFileName = "portal_ledger.xlsx"
)

// WriteFiles writes both ledgers into dir and returns their paths
func WriteFiles(dir string, ledgers *Ledgers, config *parsers.LedgerConfig) (firmPath, portalPath string, err error) {
	if config == nil {
		config = parsers.DefaultLedgerConfig()
	}

	firmPath = filepath.Join(dir, FirmFileName)
	if err := WriteFirmLedger(firmPath, ledgers.Firm, config); err != nil {
		return "", "", err
	}

	portalPath = filepath.Join(dir, PortalFileName)
	if err := WritePortalLedger(portalPath, ledgers.Portal, config); err != nil {
		return "", "", err
	}

	return firmPath, portalPath, nil
}

// WriteFirmLedger writes firm records as an xlsx workbook with the
// configured headers. Dates are written as text in the configured layout.
func WriteFirmLedger(path string, records []*models.FirmRecord, config *parsers.LedgerConfig) error {
	c := config.Firm.Columns
	header := []interface{}{
		c.GSTIN, c.PartyName, c.AccountingDocNo, c.InvoiceNumber, c.InvoiceDate, c.CGST, c.SGST, c.IGST,
	}

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{
			r.GSTIN,
			r.PartyName,
			r.AccountingDocNo,
			r.InvoiceNumber,
			r.InvoiceDate.Format(config.Firm.DateFormat),
			r.CGST.InexactFloat64(),
			r.SGST.InexactFloat64(),
			r.IGST.InexactFloat64(),
		})
	}

	return writeWorkbook(path, config.Firm.Sheet, header, rows)
}

// WritePortalLedger writes portal records as an xlsx workbook
func WritePortalLedger(path string, records []*models.PortalRecord, config *parsers.LedgerConfig) error {
	c := config.Portal.Columns
	header := []interface{}{
		c.GSTIN, c.InvoiceNumber, c.InvoiceDate, c.CentralTax, c.StateTax, c.IntegratedTax,
	}

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{
			r.GSTIN,
			r.InvoiceNumber,
			r.InvoiceDate.Format(config.Portal.DateFormat),
			r.CentralTax.InexactFloat64(),
			r.StateTax.InexactFloat64(),
			r.IntegratedTax.InexactFloat64(),
		})
	}

	return writeWorkbook(path, config.Portal.Sheet, header, rows)
}

func writeWorkbook(path, sheet string, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
