package usecase

import (
	"context"
	"testing"
	"time"

	"RegimeCast/internal/domain/models"
	"RegimeCast/internal/engine"
	"RegimeCast/internal/service/datasource"
)

type recordingSink struct {
	receipts []models.ProvenanceReceipt
}

func (s *recordingSink) Append(_ context.Context, r models.ProvenanceReceipt) error {
	s.receipts = append(s.receipts, r)
	return nil
}

func identity(series []float64) ([]int, error) {
	out := make([]int, len(series))
	for i, v := range series {
		if v > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func newExecutor(t *testing.T, sink *recordingSink) *PlanExecutor {
	t.Helper()
	reg := engine.NewRegistry()
	if err := reg.Register("positive", func(series []float64) ([]int, error) {
		out := make([]int, len(series))
		for i, v := range series {
			if v > 0 {
				out[i] = 1
			}
		}
		return out, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("majority_smooth", identity); err != nil {
		t.Fatalf("register: %v", err)
	}
	interp := engine.NewInterpreter(reg, datasource.NewSynthetic(50), "test-lib/v1")
	return NewPlanExecutor(interp, sink)
}

func TestExecuteAppendsReceiptOnSuccess(t *testing.T) {
	sink := &recordingSink{}
	uc := newExecutor(t, sink)

	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "positive", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
		AsOf:        time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
	outcome, err := uc.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(sink.receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(sink.receipts))
	}
	if sink.receipts[0].LibraryVersionHash != outcome.Receipt.LibraryVersionHash {
		t.Fatalf("sink receipt differs from outcome receipt")
	}
}

func TestExecuteNoReceiptOnFailure(t *testing.T) {
	sink := &recordingSink{}
	uc := newExecutor(t, sink)

	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "unknown_fn", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
		AsOf:        time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
	if _, err := uc.Execute(context.Background(), plan); err == nil {
		t.Fatalf("expected error for unknown function")
	}
	if len(sink.receipts) != 0 {
		t.Fatalf("failed run must not emit a receipt, got %d", len(sink.receipts))
	}
}

func TestExecuteStabilityReceiptFields(t *testing.T) {
	sink := &recordingSink{}
	uc := newExecutor(t, sink)

	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "positive", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
		Stability:   &models.StabilityRequest{MaxIterations: 5, ThresholdFraction: 0.01},
		AsOf:        time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
	outcome, err := uc.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.Status != engine.StatusConverged {
		t.Fatalf("identity stabilizer should converge, got %s", outcome.Status)
	}
	r := sink.receipts[0]
	if r.IterationsRun == 0 || !r.Converged {
		t.Fatalf("loop stats missing from persisted receipt: %+v", r)
	}
}
