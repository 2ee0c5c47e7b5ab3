package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategorySchema         ErrorCategory = "schema"
	CategoryResource       ErrorCategory = "resource"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound    ErrorCode = "file_not_found"
	CodeFilePermission  ErrorCode = "file_permission"
	CodeFileCorrupted   ErrorCode = "file_corrupted"
	CodeUnsupportedType ErrorCode = "unsupported_type"

	// Parse errors
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Schema errors
	CodeMissingColumn ErrorCode = "missing_column"
	CodeMissingHeader ErrorCode = "missing_header"

	// Resource errors
	CodeResourceBusy ErrorCode = "resource_busy"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Reconciliation errors
	CodeCancelled ErrorCode = "cancelled"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile, CategoryResource:
		return 2
	case CategoryParse, CategorySchema:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReconcilerError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newOrWrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ReconcilerError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file could not be opened as a ledger: %s", path)
		suggestion = "re-export the ledger from its source system and try again"
	case CodeUnsupportedType:
		message = fmt.Sprintf("unsupported ledger file type: %s", path)
		suggestion = "provide the ledger as .xlsx or .csv"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return newOrWrap(err, CategoryFile, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates an error for a cell that could not be parsed
func ParseError(code ErrorCode, file string, row int, column string, value string, err error) *ReconcilerError {
	var message, suggestion string

	switch code {
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in file %s at row %d, column '%s': '%s'", file, row, column, value)
		suggestion = "use the date format expected for this ledger"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in file %s at row %d, column '%s': '%s'", file, row, column, value)
		suggestion = "amounts must be plain decimal numbers (e.g. '1234.50')"
	default:
		message = fmt.Sprintf("invalid data in file %s at row %d, column '%s': '%s'", file, row, column, value)
		suggestion = "correct the cell value or remove the row"
	}

	return newOrWrap(err, CategoryParse, code, message).
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("row", row).
		WithContext("column", column).
		WithContext("value", value)
}

// ColumnMapping names one logical field in both ledgers.
type ColumnMapping struct {
	Field  string
	Firm   string
	Portal string
}

// SchemaError reports a required column that is absent from a ledger. The
// suggestion lists the expected header names of both ledgers.
func SchemaError(source, file, column string, mappings []ColumnMapping) *ReconcilerError {
	message := fmt.Sprintf("missing required column '%s' in %s ledger %s", column, source, file)

	return New(CategorySchema, CodeMissingColumn, message).
		WithSuggestion(ExpectedColumnsHelp(mappings)).
		WithContext("source", source).
		WithContext("file", file).
		WithContext("column", column)
}

// ExpectedColumnsHelp renders the column mapping table shown with schema errors.
func ExpectedColumnsHelp(mappings []ColumnMapping) string {
	var b strings.Builder
	b.WriteString("make sure all column headers are in the first row with no merged or multi-row headers, and that the columns are named as follows:")
	for _, m := range mappings {
		switch {
		case m.Firm != "" && m.Portal != "":
			fmt.Fprintf(&b, "\n  %s: %q in the firm ledger, %q in the portal ledger", m.Field, m.Firm, m.Portal)
		case m.Firm != "":
			fmt.Fprintf(&b, "\n  %s: %q in the firm ledger", m.Field, m.Firm)
		case m.Portal != "":
			fmt.Fprintf(&b, "\n  %s: %q in the portal ledger", m.Field, m.Portal)
		}
	}
	return b.String()
}

// ResourceBusyError reports an output destination that cannot be written,
// typically because the workbook is open in another program.
func ResourceBusyError(path string, err error) *ReconcilerError {
	message := fmt.Sprintf("cannot write output file: %s", path)

	return newOrWrap(err, CategoryResource, CodeResourceBusy, message).
		WithSuggestion("the output file might be open in another program; close it and try again").
		WithContext("file_path", path)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ReconcilerError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the flag or config file value"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting as a flag, config file entry or RECONCILER_ environment variable"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return newOrWrap(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ReconciliationError creates a reconciliation-related error
func ReconciliationError(code ErrorCode, operation string, err error) *ReconcilerError {
	var message string
	switch code {
	case CodeCancelled:
		message = fmt.Sprintf("reconciliation cancelled during %s", operation)
	default:
		message = fmt.Sprintf("reconciliation error during %s", operation)
	}

	return newOrWrap(err, CategoryReconciliation, code, message).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ReconcilerError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	return newOrWrap(err, CategoryInternal, code, message).
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// IsReconcilerError checks if an error is a ReconcilerError
func IsReconcilerError(err error) bool {
	_, ok := err.(*ReconcilerError)
	return ok
}

// AsReconcilerError extracts a ReconcilerError from an error chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var reconcilerErr *ReconcilerError
	if errors.As(err, &reconcilerErr) {
		return reconcilerErr, true
	}
	return nil, false
}

// IsCategory reports whether err carries a ReconcilerError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	rerr, ok := AsReconcilerError(err)
	return ok && rerr.Category == category
}

// WrapIfNeeded wraps an error if it's not already a ReconcilerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	if reconcilerErr, ok := AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return Wrap(err, category, code, message)
}
