package config

import (
	"os"
	"path/filepath"
	"testing"

	"gst-reconciler/internal/matcher"
	"gst-reconciler/internal/parsers"
	"gst-reconciler/internal/reporter"
	"gst-reconciler/pkg/errors"
	"gst-reconciler/pkg/logger"

	"github.com/spf13/viper"
)

func TestCreateLedgerConfig_Defaults(t *testing.T) {
	config, err := CreateLedgerConfig(viper.New())
	if err != nil {
		t.Fatalf("failed to create ledger config: %v", err)
	}

	defaults := parsers.DefaultLedgerConfig()
	if config.Firm.Columns != defaults.Firm.Columns {
		t.Errorf("firm columns = %+v, want defaults", config.Firm.Columns)
	}
	if config.Portal.Columns.IntegratedTax != "Integrated Tax(₹)" {
		t.Errorf("expected portal integrated tax column 'Integrated Tax(₹)', got '%s'", config.Portal.Columns.IntegratedTax)
	}
	if config.Firm.DateFormat != parsers.FirmDateLayout || config.Portal.DateFormat != parsers.PortalDateLayout {
		t.Errorf("unexpected date formats %q / %q", config.Firm.DateFormat, config.Portal.DateFormat)
	}
}

func TestCreateLedgerConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconciler.yaml")
	content := `
ledger:
  firm:
    sheet: Purchases
    date_format: "2006-01-02"
    columns:
      invoice_number: Bill No
  portal:
    columns:
      gstin: Supplier GSTIN
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	config, err := CreateLedgerConfig(v)
	if err != nil {
		t.Fatalf("failed to create ledger config: %v", err)
	}

	if config.Firm.Sheet != "Purchases" {
		t.Errorf("expected firm sheet 'Purchases', got '%s'", config.Firm.Sheet)
	}
	if config.Firm.DateFormat != "2006-01-02" {
		t.Errorf("expected firm date format '2006-01-02', got '%s'", config.Firm.DateFormat)
	}
	if config.Firm.Columns.InvoiceNumber != "Bill No" {
		t.Errorf("expected firm invoice column 'Bill No', got '%s'", config.Firm.Columns.InvoiceNumber)
	}
	// Keys not in the file keep their defaults
	if config.Firm.Columns.GSTIN != "GSTIN of supplier" {
		t.Errorf("expected default firm GSTIN column, got '%s'", config.Firm.Columns.GSTIN)
	}
	if config.Portal.Columns.GSTIN != "Supplier GSTIN" {
		t.Errorf("expected portal GSTIN column 'Supplier GSTIN', got '%s'", config.Portal.Columns.GSTIN)
	}
	if config.Portal.DateFormat != parsers.PortalDateLayout {
		t.Errorf("expected default portal date format, got '%s'", config.Portal.DateFormat)
	}
}

func TestCreateLedgerConfig_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("ledger.firm.columns.cgst", "")

	_, err := CreateLedgerConfig(v)
	if !errors.IsCategory(err, errors.CategoryConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestCreateMatchingConfig(t *testing.T) {
	tests := []struct {
		name        string
		buffer      int64
		policy      string
		want        matcher.ClosePolicy
		expectError bool
	}{
		{"defaults", 0, "", matcher.CloseMatchAll, false},
		{"buffer with all", 10, "all", matcher.CloseMatchAll, false},
		{"first policy", 5, "FIRST", matcher.CloseMatchFirst, false},
		{"negative buffer", -1, "", "", true},
		{"unknown policy", 10, "best", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateMatchingConfig(tt.buffer, tt.policy)

			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				if rerr, ok := errors.AsReconcilerError(err); !ok || rerr.GetExitCode() != 4 {
					t.Errorf("expected configuration exit code 4, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Buffer != tt.buffer {
				t.Errorf("expected buffer %d, got %d", tt.buffer, config.Buffer)
			}
			if config.ClosePolicy != tt.want {
				t.Errorf("expected policy %s, got %s", tt.want, config.ClosePolicy)
			}
		})
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		format         string
		showUnmatched  bool
		expectedFormat reporter.OutputFormat
		expectError    bool
	}{
		{"console", false, reporter.FormatConsole, false},
		{"", false, reporter.FormatConsole, false},
		{"json", false, reporter.FormatJSON, false},
		{"CSV", true, reporter.FormatCSV, false},
		{"xml", false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			config, err := CreateReportConfig(viper.New(), tt.format, tt.showUnmatched)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for format %q", tt.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Format != tt.expectedFormat {
				t.Errorf("expected format %s, got %s", tt.expectedFormat, config.Format)
			}
			if config.IncludeUnmatched != tt.showUnmatched {
				t.Errorf("expected IncludeUnmatched %v, got %v", tt.showUnmatched, config.IncludeUnmatched)
			}
			if config.MatchedSheet != "Matched" || config.UnmatchedSheet != "Unmatched" {
				t.Errorf("unexpected sheet names %q / %q", config.MatchedSheet, config.UnmatchedSheet)
			}
		})
	}
}

func TestCreateReportConfig_SheetNames(t *testing.T) {
	v := viper.New()
	v.Set("report", map[string]interface{}{
		"matched_sheet":   "Reconciled",
		"unmatched_sheet": "Pending",
	})

	config, err := CreateReportConfig(v, "console", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.MatchedSheet != "Reconciled" || config.UnmatchedSheet != "Pending" {
		t.Errorf("unexpected sheet names %q / %q", config.MatchedSheet, config.UnmatchedSheet)
	}
}

func TestCreateReportConfig_CSVDelimiterFromFile(t *testing.T) {
	tests := []struct {
		name      string
		delimiter string
		want      string
		wantErr   bool
	}{
		{"semicolon", `";"`, ";", false},
		{"pipe", `"|"`, "|", false},
		{"two characters", `";;"`, "", true},
		{"empty", `""`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "reconciler.yaml")
			content := "report:\n  csv_delimiter: " + tt.delimiter + "\n"
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			v := viper.New()
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				t.Fatalf("failed to read config: %v", err)
			}

			config, err := CreateReportConfig(v, "csv", false)
			if tt.wantErr {
				if !errors.IsCategory(err, errors.CategoryConfiguration) {
					t.Errorf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.CSVDelimiter != tt.want {
				t.Errorf("expected delimiter %q, got %q", tt.want, config.CSVDelimiter)
			}
		})
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	config, err := CreateLoggerConfig(false, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Level != logger.WarnLevel || config.Output != logger.StderrOutput {
		t.Errorf("unexpected default logger config %+v", config)
	}

	config, err = CreateLoggerConfig(true, "json", filepath.Join(t.TempDir(), "run.log"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Level != logger.DebugLevel || config.Format != logger.JSONFormat || config.Output != logger.FileOutput {
		t.Errorf("unexpected verbose logger config %+v", config)
	}

	if _, err := CreateLoggerConfig(false, "xml", ""); err == nil {
		t.Errorf("expected error for unknown log format")
	}
}

func TestConfigure_Environment(t *testing.T) {
	t.Setenv("RECONCILER_BUFFER", "25")
	t.Setenv("RECONCILER_CLOSE_POLICY", "first")

	v := viper.New()
	Configure(v)

	if got := v.GetInt64(KeyBuffer); got != 25 {
		t.Errorf("expected buffer 25 from environment, got %d", got)
	}
	if got := v.GetString(KeyClosePolicy); got != "first" {
		t.Errorf("expected close policy 'first' from environment, got %q", got)
	}
}

func TestValidateConfig(t *testing.T) {
	ledger := parsers.DefaultLedgerConfig()
	matching := matcher.DefaultMatchingConfig()
	report := reporter.DefaultReportConfig()

	if err := ValidateConfig(ledger, matching, report); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(l *parsers.LedgerConfig, m *matcher.MatchingConfig, r *reporter.ReportConfig)
		setting string
	}{
		{"negative buffer", func(_ *parsers.LedgerConfig, m *matcher.MatchingConfig, _ *reporter.ReportConfig) { m.Buffer = -5 }, "matching"},
		{"empty firm date format", func(l *parsers.LedgerConfig, _ *matcher.MatchingConfig, _ *reporter.ReportConfig) { l.Firm.DateFormat = "" }, KeyLedger},
		{"same sheet names", func(_ *parsers.LedgerConfig, _ *matcher.MatchingConfig, r *reporter.ReportConfig) { r.UnmatchedSheet = r.MatchedSheet }, KeyReport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, m, r := parsers.DefaultLedgerConfig(), matcher.DefaultMatchingConfig(), reporter.DefaultReportConfig()
			tt.mutate(l, m, r)

			err := ValidateConfig(l, m, r)
			rerr, ok := errors.AsReconcilerError(err)
			if !ok {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if rerr.GetExitCode() != 4 {
				t.Errorf("expected exit code 4, got %d", rerr.GetExitCode())
			}
			if rerr.Context["setting"] != tt.setting {
				t.Errorf("expected setting %q, got %v", tt.setting, rerr.Context["setting"])
			}
		})
	}

	if err := ValidateConfig(nil, matching, report); err == nil {
		t.Errorf("expected error for missing ledger config")
	}
}
