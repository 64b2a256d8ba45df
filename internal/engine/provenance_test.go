package engine

import (
	"testing"

	"RegimeCast/internal/domain/models"
)

func TestLibraryVersionHashOrderInsensitive(t *testing.T) {
	a := LibraryVersionHash("v1", []string{"sma_crossover", "rsi_oversold"})
	b := LibraryVersionHash("v1", []string{"rsi_oversold", "sma_crossover"})
	if a != b {
		t.Fatalf("hash must not depend on invocation order")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
}

func TestLibraryVersionHashSensitivity(t *testing.T) {
	base := LibraryVersionHash("v1", []string{"sma_crossover"})
	if LibraryVersionHash("v2", []string{"sma_crossover"}) == base {
		t.Fatalf("hash must change with version")
	}
	if LibraryVersionHash("v1", []string{"rsi_oversold"}) == base {
		t.Fatalf("hash must change with invoked set")
	}
}

func TestBuildReceiptDirectRun(t *testing.T) {
	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "sma_crossover", Input: "BTC:1d"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
	}
	lineage := []models.Lineage{{Ref: "BTC:1d", SourceID: "synthetic:BTC:1d"}}

	r := BuildReceipt("v1", []string{"sma_crossover"}, lineage, plan, nil, nil)
	if !r.Converged {
		t.Fatalf("direct run must report converged")
	}
	if r.IterationsRun != 0 {
		t.Fatalf("direct run has no iterations, got %d", r.IterationsRun)
	}
	if r.CompositionOperator != models.OpNone {
		t.Fatalf("unexpected operator %s", r.CompositionOperator)
	}
	if r.OperationRetries != nil {
		t.Fatalf("no retries expected on clean run")
	}
	if r.CreatedAt.IsZero() {
		t.Fatalf("created_at must be set")
	}
}

func TestBuildReceiptLoopRun(t *testing.T) {
	plan := models.ExecutionPlan{
		Operations: []models.Operation{
			{Function: "rsi_overbought", Input: "BTC:1h"},
			{Function: "rsi_oversold", Input: "ETH:1h"},
		},
		Composition: models.CompositionSpec{Operator: models.OpMeanRound},
	}
	loop := &LoopResult{Iterations: 4, Hamming: 3, Converged: false, State: StateHaltedBreaker}
	retries := map[string]int{"rsi_overbought": 1}

	r := BuildReceipt("v1", []string{"rsi_overbought", "rsi_oversold", "majority_smooth"}, nil, plan, loop, retries)
	if r.Converged {
		t.Fatalf("breaker halt must not report converged")
	}
	if r.IterationsRun != 4 || r.FinalHammingDistance != 3 {
		t.Fatalf("loop stats not carried: %d/%d", r.IterationsRun, r.FinalHammingDistance)
	}
	if r.OperationRetries["rsi_overbought"] != 1 {
		t.Fatalf("retry count not carried")
	}
}
