package repository

import (
	"context"
	"time"

	"RegimeCast/internal/domain/models"
)

// DataSource is the data-access collaborator. Fetch resolves a named series
// reference as of a point in time and reports the lineage id that goes into
// the provenance receipt.
type DataSource interface {
	Fetch(ctx context.Context, ref string, asOf time.Time) (models.TimeSeries, string, error)
}

// ReceiptSink persists or forwards provenance receipts. Append-only: a sink
// never mutates or deletes a prior receipt.
type ReceiptSink interface {
	Append(ctx context.Context, r models.ProvenanceReceipt) error
}

// Metrics records engine-level observability signals.
type Metrics interface {
	RecordPlan(operator, outcome string)
	RecordDispatch(function string)
	RecordRetry(function string)
	RecordError(code string)
	RecordIterations(n int)
	RecordLatency(op string, seconds float64)
}
