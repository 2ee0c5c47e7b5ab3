package reconciler

import (
	"context"

	"gst-reconciler/internal/matcher"
	"gst-reconciler/internal/models"
	"gst-reconciler/internal/parsers"
)

// LedgerLoader reads both ledgers into typed records. The service depends on
// this interface, not on a concrete parser.
//
//go:generate mockgen -destination=mocks/mock_interface.go -source=interface.go LedgerLoader ResultSink
type LedgerLoader interface {
	ParseFirmLedger(ctx context.Context, path string) ([]*models.FirmRecord, *parsers.ParseStats, error)
	ParsePortalLedger(ctx context.Context, path string) ([]*models.PortalRecord, *parsers.ParseStats, error)
}

// ResultSink persists the matched and unmatched results to path
type ResultSink interface {
	Write(results *matcher.Results, path string) error
}
