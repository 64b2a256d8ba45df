package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"RegimeCast/internal/domain/models"
)

type fakeSource struct {
	mu     sync.Mutex
	series map[string]models.TimeSeries
	calls  int
}

func (f *fakeSource) Fetch(_ context.Context, ref string, asOf time.Time) (models.TimeSeries, string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	s, ok := f.series[ref]
	if !ok {
		return models.TimeSeries{}, "", fmt.Errorf("no series for %q", ref)
	}
	return s, "fake:" + ref, nil
}

func aboveFifty(series []float64) ([]int, error) {
	out := make([]int, len(series))
	for i, v := range series {
		if v > 50 {
			out[i] = 1
		}
	}
	return out, nil
}

func newTestInterpreter(t *testing.T, src *fakeSource, opts ...InterpreterOption) *Interpreter {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Register("above_fifty", aboveFifty); err != nil {
		t.Fatalf("register above_fifty: %v", err)
	}
	if err := reg.Register("settle", constantOne); err != nil {
		t.Fatalf("register settle: %v", err)
	}
	return NewInterpreter(reg, src, "test-lib/v1", opts...)
}

func TestExecuteMultiTimeframePlan(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{series: map[string]models.TimeSeries{
		"BTC:1h": mkSeries("BTC:1h", start, time.Hour, []float64{60, 40, 70, 45, 80, 30, 90, 55, 20, 75}),
		"BTC:1d": mkSeries("BTC:1d", start, 5*time.Hour, []float64{100, 10}),
	}}
	in := newTestInterpreter(t, src)

	plan := models.ExecutionPlan{
		Operations: []models.Operation{
			{Function: "above_fifty", Input: "BTC:1h"},
			{Function: "above_fifty", Input: "BTC:1d"},
		},
		Composition: models.CompositionSpec{Operator: models.OpConsensus},
		AsOf:        start.Add(10 * time.Hour),
	}

	outcome, err := in.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.Status != StatusDirect {
		t.Fatalf("expected direct status, got %s", outcome.Status)
	}
	if len(outcome.Result.Vector) != 10 {
		t.Fatalf("expected broadcast length 10, got %d", len(outcome.Result.Vector))
	}

	// Coarse leg is 1 for the first 5 hours (100 > 50), 0 after (10 < 50);
	// consensus gates the fine leg accordingly.
	want := []int{1, 0, 1, 0, 1, 0, 0, 0, 0, 0}
	for i, v := range outcome.Result.Vector {
		if v != want[i] {
			t.Fatalf("vector[%d] = %d, want %d", i, v, want[i])
		}
	}

	if len(outcome.Receipt.DataLineage) != 2 {
		t.Fatalf("expected 2 lineage entries, got %d", len(outcome.Receipt.DataLineage))
	}
	if outcome.Receipt.DataLineage[0].Ref != "BTC:1h" || outcome.Receipt.DataLineage[0].SourceID != "fake:BTC:1h" {
		t.Fatalf("unexpected lineage %+v", outcome.Receipt.DataLineage[0])
	}
	if !outcome.Receipt.Converged {
		t.Fatalf("direct run must report converged receipt")
	}
	if outcome.Receipt.LibraryVersionHash == "" {
		t.Fatalf("receipt missing library version hash")
	}
}

func TestExecuteDeterministic(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{series: map[string]models.TimeSeries{
		"BTC:1h": mkSeries("BTC:1h", start, time.Hour, []float64{60, 40, 70, 45, 80, 30}),
	}}
	in := newTestInterpreter(t, src)

	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "above_fifty", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
		AsOf:        start,
	}

	first, err := in.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("first execute: %v", err)
	}
	second, err := in.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	for i := range first.Result.Vector {
		if first.Result.Vector[i] != second.Result.Vector[i] {
			t.Fatalf("identical plans produced different vectors at %d", i)
		}
	}
	if first.Receipt.LibraryVersionHash != second.Receipt.LibraryVersionHash {
		t.Fatalf("identical plans produced different hashes")
	}
}

func TestExecuteUnknownFunctionFailsBeforeFetch(t *testing.T) {
	src := &fakeSource{series: map[string]models.TimeSeries{}}
	in := newTestInterpreter(t, src)

	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "missing", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
	}
	_, err := in.Execute(context.Background(), plan)
	if !IsCode(err, CodeUnknownFunction) {
		t.Fatalf("expected UnknownFunction, got %v", err)
	}
	if src.calls != 0 {
		t.Fatalf("no fetch should happen for an unresolvable plan, saw %d", src.calls)
	}
}

func TestExecuteInvalidPlans(t *testing.T) {
	src := &fakeSource{series: map[string]models.TimeSeries{}}
	in := newTestInterpreter(t, src)

	cases := []models.ExecutionPlan{
		{},
		{
			Operations:  []models.Operation{{Function: "above_fifty", Input: ""}},
			Composition: models.CompositionSpec{Operator: models.OpNone},
		},
		{
			Operations:  []models.Operation{{Function: "above_fifty", Input: "BTC:1h"}},
			Composition: models.CompositionSpec{Operator: "xor"},
		},
		{
			Operations: []models.Operation{
				{Function: "above_fifty", Input: "BTC:1h"},
				{Function: "above_fifty", Input: "ETH:1h"},
			},
			Composition: models.CompositionSpec{Operator: models.OpDivergence},
			Stability:   &models.StabilityRequest{MaxIterations: 5},
		},
		{
			Operations:  []models.Operation{{Function: "above_fifty", Input: "BTC:1h"}},
			Composition: models.CompositionSpec{Operator: models.OpNone},
			Stability:   &models.StabilityRequest{ThresholdFraction: 1.5},
		},
	}
	for i, plan := range cases {
		_, err := in.Execute(context.Background(), plan)
		if !IsCode(err, CodeInvalidPlanSchema) {
			t.Fatalf("case %d: expected InvalidPlanSchema, got %v", i, err)
		}
	}
}

func TestExecuteContractRetry(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{series: map[string]models.TimeSeries{
		"BTC:1h": mkSeries("BTC:1h", start, time.Hour, []float64{60, 40, 70, 45}),
	}}

	// Fails on the first plan-sized invocation, then behaves. The registry's
	// 16-point smoke probe always succeeds.
	var mu sync.Mutex
	failures := 1
	flaky := func(series []float64) ([]int, error) {
		if len(series) == 4 {
			mu.Lock()
			remaining := failures
			if remaining > 0 {
				failures--
			}
			mu.Unlock()
			if remaining > 0 {
				return nil, fmt.Errorf("transient")
			}
		}
		return make([]int, len(series)), nil
	}

	reg := NewRegistry()
	if err := reg.Register("flaky", flaky); err != nil {
		t.Fatalf("register flaky: %v", err)
	}
	in := NewInterpreter(reg, src, "test-lib/v1", WithContractRetries(2))

	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "flaky", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
		AsOf:        start,
	}
	outcome, err := in.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.Receipt.OperationRetries["flaky"] != 1 {
		t.Fatalf("expected 1 recorded retry, got %v", outcome.Receipt.OperationRetries)
	}
}

func TestExecuteRetriesExhausted(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{series: map[string]models.TimeSeries{
		"BTC:1h": mkSeries("BTC:1h", start, time.Hour, []float64{60, 40, 70, 45}),
	}}

	broken := func(series []float64) ([]int, error) {
		if len(series) == 4 {
			return nil, fmt.Errorf("always broken")
		}
		return make([]int, len(series)), nil
	}
	reg := NewRegistry()
	if err := reg.Register("broken", broken); err != nil {
		t.Fatalf("register broken: %v", err)
	}
	in := NewInterpreter(reg, src, "test-lib/v1", WithContractRetries(1))

	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "broken", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
		AsOf:        start,
	}
	_, err := in.Execute(context.Background(), plan)
	if !IsCode(err, CodeContractViolation) {
		t.Fatalf("expected ContractViolation after retries, got %v", err)
	}
}

func TestExecuteWithStability(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{series: map[string]models.TimeSeries{
		"BTC:1h": mkSeries("BTC:1h", start, time.Hour, []float64{60, 40, 70, 45, 80, 30}),
	}}
	in := newTestInterpreter(t, src)

	var observed []IterationState
	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "above_fifty", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
		Stability:   &models.StabilityRequest{MaxIterations: 5, ThresholdFraction: 0.01, Stabilizer: "settle"},
		AsOf:        start,
	}
	outcome, err := in.Execute(context.Background(), plan, func(st IterationState) { observed = append(observed, st) })
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome.Status != StatusConverged {
		t.Fatalf("expected converged status, got %s", outcome.Status)
	}
	if outcome.Loop == nil || outcome.Receipt.IterationsRun == 0 {
		t.Fatalf("loop stats missing from outcome")
	}
	if len(observed) == 0 {
		t.Fatalf("observer saw no iteration states")
	}
	// The constant stabilizer fixes every position to 1.
	for i, v := range outcome.Result.Vector {
		if v != 1 {
			t.Fatalf("stabilized vector[%d] = %d, want 1", i, v)
		}
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{series: map[string]models.TimeSeries{
		"BTC:1h": mkSeries("BTC:1h", start, time.Hour, []float64{60, 40, 70}),
	}}
	in := newTestInterpreter(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := models.ExecutionPlan{
		Operations:  []models.Operation{{Function: "above_fifty", Input: "BTC:1h"}},
		Composition: models.CompositionSpec{Operator: models.OpNone},
		AsOf:        start,
	}
	if _, err := in.Execute(ctx, plan); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}
