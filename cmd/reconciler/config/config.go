package config

import (
	"strings"

	"gst-reconciler/internal/matcher"
	"gst-reconciler/internal/parsers"
	"gst-reconciler/internal/reporter"
	"gst-reconciler/pkg/errors"
	"gst-reconciler/pkg/logger"

	"github.com/spf13/viper"
)

// Config keys. Flags use the same names so a config file, an environment
// variable (RECONCILER_BUFFER) or a flag can set each value.
const (
	KeyFirm          = "firm"
	KeyPortal        = "portal"
	KeyOutput        = "output"
	KeyBuffer        = "buffer"
	KeyClosePolicy   = "close-policy"
	KeySummaryFormat = "summary-format"
	KeyShowUnmatched = "show-unmatched"
	KeyProgress      = "progress"
	KeyInteractive   = "interactive"
	KeyVerbose       = "verbose"
	KeyLogFormat     = "log-format"
	KeyLogFile       = "log-file"

	// Sections of the config file
	KeyLedger = "ledger"
	KeyReport = "report"
)

// EnvPrefix is the prefix of environment variables read by the CLI
const EnvPrefix = "RECONCILER"

// Configure sets up environment lookup on v
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// CreateLedgerConfig returns the column mapping of both ledgers. Values in
// the ledger section of the config file override the defaults field by field.
func CreateLedgerConfig(v *viper.Viper) (*parsers.LedgerConfig, error) {
	config := parsers.DefaultLedgerConfig()

	if v.IsSet(KeyLedger) {
		if err := v.UnmarshalKey(KeyLedger, config); err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyLedger, v.Get(KeyLedger), err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyLedger, config, err)
	}
	return config, nil
}

// CreateMatchingConfig creates a matching configuration with the specified
// buffer and close-match policy
func CreateMatchingConfig(buffer int64, closePolicy string) (*matcher.MatchingConfig, error) {
	config := matcher.DefaultMatchingConfig()

	config.Buffer = buffer
	if closePolicy != "" {
		config.ClosePolicy = matcher.ClosePolicy(strings.ToLower(strings.TrimSpace(closePolicy)))
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "matching", config, err)
	}
	return config, nil
}

// CreateReportConfig creates the report configuration for the summary
// format. Sheet names may come from the report section of the config file.
func CreateReportConfig(v *viper.Viper, format string, showUnmatched bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()

	if v.IsSet(KeyReport) {
		if err := v.UnmarshalKey(KeyReport, config); err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyReport, v.Get(KeyReport), err)
		}
	}

	switch strings.ToLower(format) {
	case "", "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeProcessingStats = true
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
	default:
		config.Format = reporter.OutputFormat(format)
	}
	if showUnmatched {
		config.IncludeUnmatched = true
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeySummaryFormat, format, err)
	}
	return config, nil
}

// CreateLoggerConfig creates the logger configuration for the CLI. Logs go to
// stderr unless a log file is given.
func CreateLoggerConfig(verbose bool, format, file string) (*logger.Config, error) {
	config := logger.DefaultConfig()
	if verbose {
		config = logger.DebugConfig()
	} else {
		config.Level = logger.WarnLevel
	}

	if format != "" {
		config.Format = logger.Format(strings.ToLower(format))
	}
	if file != "" {
		config.Output = logger.FileOutput
		config.File = file
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyLogFormat, format, err)
	}
	return config, nil
}

// ValidateConfig validates the three configurations together before a run
func ValidateConfig(ledger *parsers.LedgerConfig, matching *matcher.MatchingConfig, report *reporter.ReportConfig) error {
	if ledger == nil || matching == nil || report == nil {
		return errors.ConfigurationError(errors.CodeMissingConfig, "ledger, matching and report", nil, nil)
	}
	if err := ledger.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, KeyLedger, ledger, err)
	}
	if err := matching.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "matching", matching, err)
	}
	if err := report.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, KeyReport, report, err)
	}
	return nil
}
