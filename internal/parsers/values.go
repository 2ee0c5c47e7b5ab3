package parsers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var amountReplacer = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "₹", "")

// ParseAmount parses a tax amount cell. Thousands separators, spaces and the
// rupee sign are ignored and an empty cell is zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := amountReplacer.Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// ParseDate parses an invoice date cell with the given layout. Day and month
// may also be written without a leading zero (5-3-2024 for 05-03-2024).
// Workbook cells holding a spreadsheet serial date are converted as well. The
// result is midnight UTC of that day.
func ParseDate(raw, layout string, workbook, date1904 bool) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}

	if t, err := time.Parse(layout, s); err == nil {
		return dateOnly(t), nil
	}
	if loose := unpadded(layout); loose != layout {
		if t, err := time.Parse(loose, s); err == nil {
			return dateOnly(t), nil
		}
	}

	if workbook {
		if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				return time.Time{}, err
			}
			return dateOnly(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("expected format %s", layoutHint(layout))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var unpadReplacer = strings.NewReplacer("02", "2", "01", "1")

// unpadded turns the zero-padded day and month of a layout into their
// one-or-two digit forms
func unpadded(layout string) string {
	return unpadReplacer.Replace(layout)
}

// layoutHint renders a Go reference layout as dd/mm/yyyy style text
func layoutHint(layout string) string {
	return strings.NewReplacer("2006", "yyyy", "01", "mm", "02", "dd").Replace(layout)
}
