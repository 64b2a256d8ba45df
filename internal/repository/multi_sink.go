package repository

import (
	"context"
	"errors"

	"RegimeCast/internal/domain/models"
	domrepo "RegimeCast/internal/domain/repository"
)

// MultiSink fans one receipt out to several sinks. Every sink sees the
// receipt even if an earlier one fails; the errors are joined.
type MultiSink struct {
	sinks []domrepo.ReceiptSink
}

func NewMultiSink(sinks ...domrepo.ReceiptSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Append(ctx context.Context, r models.ProvenanceReceipt) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Append(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopSink discards receipts. Used when no persistence backend is enabled.
type NoopSink struct{}

func (NoopSink) Append(context.Context, models.ProvenanceReceipt) error { return nil }

var (
	_ domrepo.ReceiptSink = (*CHReceiptStore)(nil)
	_ domrepo.ReceiptSink = (*KafkaReceiptPublisher)(nil)
	_ domrepo.ReceiptSink = (*MultiSink)(nil)
	_ domrepo.ReceiptSink = NoopSink{}
	_ domrepo.DataSource  = (*CHCandleSource)(nil)
)
