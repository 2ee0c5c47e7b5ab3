package reconciler

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gst-reconciler/internal/matcher"
	"gst-reconciler/internal/models"
	"gst-reconciler/internal/parsers"
	"gst-reconciler/pkg/errors"
	"gst-reconciler/pkg/logger"

	"github.com/google/uuid"
)

// ReconciliationService runs one reconciliation: load both ledgers, match
// them and persist the results.
type ReconciliationService struct {
	loader         LedgerLoader
	sink           ResultSink
	matchingConfig *matcher.MatchingConfig
	progressOutput io.Writer
	logger         logger.Logger
}

// ReconciliationRequest names the input ledgers and the output workbook
type ReconciliationRequest struct {
	FirmFile   string `json:"firm_file"`
	PortalFile string `json:"portal_file"`
	OutputFile string `json:"output_file"`
}

// Validate validates the reconciliation request
func (r *ReconciliationRequest) Validate() error {
	if strings.TrimSpace(r.FirmFile) == "" {
		return fmt.Errorf("firm ledger path is required")
	}
	if strings.TrimSpace(r.PortalFile) == "" {
		return fmt.Errorf("portal ledger path is required")
	}
	if strings.TrimSpace(r.OutputFile) == "" {
		return fmt.Errorf("output path is required")
	}

	out := filepath.Clean(r.OutputFile)
	if out == filepath.Clean(r.FirmFile) || out == filepath.Clean(r.PortalFile) {
		return fmt.Errorf("output path %s would overwrite an input ledger", r.OutputFile)
	}
	return nil
}

// ReconciliationResult contains the complete results of one run
type ReconciliationResult struct {
	RunID       string                 `json:"run_id"`
	Request     *ReconciliationRequest `json:"request"`
	Matching    matcher.MatchingConfig `json:"matching"`
	Summary     matcher.Summary        `json:"summary"`
	FirmStats   *parsers.ParseStats    `json:"firm_stats,omitempty"`
	PortalStats *parsers.ParseStats    `json:"portal_stats,omitempty"`
	Processing  *ProcessingStats       `json:"processing"`
	ProcessedAt time.Time              `json:"processed_at"`

	Results *matcher.Results `json:"-"`
}

// ProcessingStats contains timing of each phase
type ProcessingStats struct {
	ParsingTime         time.Duration `json:"parsing_time"`
	MatchingTime        time.Duration `json:"matching_time"`
	WritingTime         time.Duration `json:"writing_time"`
	TotalProcessingTime time.Duration `json:"total_processing_time"`
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	loader LedgerLoader,
	sink ResultSink,
	matchingConfig *matcher.MatchingConfig,
) (*ReconciliationService, error) {

	if loader == nil || sink == nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "service setup",
			fmt.Errorf("ledger loader and result sink are required"))
	}

	if matchingConfig == nil {
		matchingConfig = matcher.DefaultMatchingConfig()
	}
	if err := matchingConfig.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "matching", matchingConfig, err)
	}

	return &ReconciliationService{
		loader:         loader,
		sink:           sink,
		matchingConfig: matchingConfig.Clone(),
		logger:         logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// SetProgressOutput renders a progress bar for the matching phase on w.
// Without it, progress is logged at intervals.
func (rs *ReconciliationService) SetProgressOutput(w io.Writer) {
	rs.progressOutput = w
}

// ProcessReconciliation performs the complete reconciliation process. Any
// loader or sink failure ends the run with no partial output.
func (rs *ReconciliationService) ProcessReconciliation(
	ctx context.Context,
	request *ReconciliationRequest,
) (*ReconciliationResult, error) {

	if err := request.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "request", request, err).
			WithSuggestion("provide the firm ledger, portal ledger and output paths")
	}

	startTime := time.Now()
	result := &ReconciliationResult{
		RunID:       uuid.NewString(),
		Request:     request,
		Matching:    *rs.matchingConfig,
		ProcessedAt: startTime,
		Processing:  &ProcessingStats{},
	}

	op := logger.NewOperationLogger("reconcile", rs.logger).
		WithField("run_id", result.RunID)

	// Step 1: Load both ledgers
	op.Step("load_ledgers", logger.Fields{
		"firm_file":   request.FirmFile,
		"portal_file": request.PortalFile,
	})

	firm, firmStats, err := rs.loader.ParseFirmLedger(ctx, request.FirmFile)
	if err != nil {
		op.Error(err, "Failed to load firm ledger")
		return nil, errors.WrapIfNeeded(err, errors.CategoryFile, errors.CodeFileCorrupted, "failed to load firm ledger")
	}

	portal, portalStats, err := rs.loader.ParsePortalLedger(ctx, request.PortalFile)
	if err != nil {
		op.Error(err, "Failed to load portal ledger")
		return nil, errors.WrapIfNeeded(err, errors.CategoryFile, errors.CodeFileCorrupted, "failed to load portal ledger")
	}
	result.FirmStats, result.PortalStats = firmStats, portalStats
	result.Processing.ParsingTime = time.Since(startTime)

	// Step 2: Match
	op.Step("match", logger.Fields{
		"firm_records":   len(firm),
		"portal_records": len(portal),
		"buffer":         rs.matchingConfig.Buffer,
		"close_policy":   rs.matchingConfig.ClosePolicy,
	})

	matchStart := time.Now()
	results, err := rs.performMatching(ctx, firm, portal)
	if err != nil {
		op.Error(err, "Matching was interrupted")
		return nil, err
	}
	result.Results = results
	result.Summary = results.Summary()
	result.Processing.MatchingTime = time.Since(matchStart)

	if results.SkippedPortalRows > 0 {
		op.Warning("Portal rows under GSTINs absent from the firm ledger were not reconciled", logger.Fields{
			"skipped_portal_rows": results.SkippedPortalRows,
			"gstins":              results.PortalOnlyGSTINs,
		})
	}

	// Step 3: Persist
	op.Step("write_output", logger.Fields{"output_file": request.OutputFile})

	writeStart := time.Now()
	if err := rs.sink.Write(results, request.OutputFile); err != nil {
		op.Error(err, "Failed to write output workbook")
		if rerr, ok := errors.AsReconcilerError(err); ok {
			return nil, rerr
		}
		return nil, errors.ResourceBusyError(request.OutputFile, err)
	}
	result.Processing.WritingTime = time.Since(writeStart)
	result.Processing.TotalProcessingTime = time.Since(startTime)

	op.Success("Reconciliation completed", logger.Fields{
		"total_firm_rows": result.Summary.TotalFirmRows,
		"matched_rows":    result.Summary.MatchedRows,
		"unmatched_rows":  result.Summary.UnmatchedRows,
	})

	return result, nil
}

// performMatching runs the matching engine with progress reporting
func (rs *ReconciliationService) performMatching(
	ctx context.Context,
	firm []*models.FirmRecord,
	portal []*models.PortalRecord,
) (*matcher.Results, error) {

	engine := matcher.NewMatchingEngine(rs.matchingConfig)

	var tracker *logger.ProgressTracker
	engine.OnProgress(func(done, total int) {
		if tracker == nil {
			tracker = logger.NewProgressTracker(logger.ProgressConfig{
				Operation: "Matching GSTIN groups",
				Total:     int64(total),
				Logger:    rs.logger,
				BarWriter: rs.progressOutput,
			})
		}
		tracker.Update(int64(done))
	})

	results, err := engine.ReconcileContext(ctx, firm, portal)
	if tracker != nil {
		tracker.Complete()
	}
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeCancelled, "matching", err)
	}

	if err := results.CheckTotality(); err != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "matching", err)
	}

	return results, nil
}
