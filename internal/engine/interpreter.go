package engine

import (
	"context"
	"sync"
	"time"

	"RegimeCast/internal/domain/models"
	domrepo "RegimeCast/internal/domain/repository"
	applogger "RegimeCast/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// DefaultStabilizer is the registry function the stability loop re-applies
// when the request does not name one.
const DefaultStabilizer = "majority_smooth"

// Status values reported to the caller alongside a plan result.
const (
	StatusConverged = "converged"
	StatusUnstable  = "unstable"
	StatusDirect    = "direct"
)

// Interpreter walks an execution plan: resolves functions, fetches and aligns
// input series, dispatches the pure functions with lifecycle hooks and bounded
// retries, applies the composition, optionally runs the stability loop, and
// assembles the provenance receipt.
type Interpreter struct {
	registry        *Registry
	source          domrepo.DataSource
	libraryVersion  string
	hooks           Hooks
	retries         int
	dispatchTimeout time.Duration
	defaults        StabilityConfig
	metrics         domrepo.Metrics
	logger          *applogger.Logger
}

// InterpreterOption configures Interpreter.
type InterpreterOption func(*Interpreter)

// WithContractRetries bounds how often a single operation is retried after a
// contract violation before the whole plan fails.
func WithContractRetries(n int) InterpreterOption {
	return func(in *Interpreter) {
		if n >= 0 {
			in.retries = n
		}
	}
}

// WithDispatchTimeout bounds the wall time of one full dispatch fan-out.
func WithDispatchTimeout(d time.Duration) InterpreterOption {
	return func(in *Interpreter) {
		in.dispatchTimeout = d
	}
}

// WithHooks replaces the default lifecycle hook set.
func WithHooks(h Hooks) InterpreterOption {
	return func(in *Interpreter) {
		in.hooks = h
	}
}

// WithStabilityDefaults sets fallback loop bounds for requests that omit them.
func WithStabilityDefaults(cfg StabilityConfig) InterpreterOption {
	return func(in *Interpreter) {
		in.defaults = cfg
	}
}

// WithMetrics injects a metrics recorder.
func WithMetrics(m domrepo.Metrics) InterpreterOption {
	return func(in *Interpreter) {
		in.metrics = m
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) InterpreterOption {
	return func(in *Interpreter) {
		in.logger = l
	}
}

// NewInterpreter creates a plan interpreter over a registry and a data source.
func NewInterpreter(registry *Registry, source domrepo.DataSource, libraryVersion string, opts ...InterpreterOption) *Interpreter {
	in := &Interpreter{
		registry:       registry,
		source:         source,
		libraryVersion: libraryVersion,
		hooks:          DefaultHooks(),
		retries:        2,
		defaults:       StabilityConfig{MaxIterations: 10, ThresholdFraction: 0.01},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// PlanOutcome is the result of one executed plan. The receipt is complete:
// either the whole outcome exists or the run failed without one.
type PlanOutcome struct {
	Result  Result
	Loop    *LoopResult
	Receipt models.ProvenanceReceipt
	Status  string
}

// Execute runs a plan end to end. Optional observers receive the stability
// loop's iteration states as they happen.
func (in *Interpreter) Execute(ctx context.Context, plan models.ExecutionPlan, observers ...func(IterationState)) (*PlanOutcome, error) {
	start := time.Now()
	outcome, err := in.execute(ctx, plan, observers...)
	if err != nil {
		if in.metrics != nil {
			in.metrics.RecordError(string(CodeOf(err)))
			in.metrics.RecordPlan(string(plan.Composition.Operator), "error")
		}
		return nil, err
	}
	if in.metrics != nil {
		in.metrics.RecordPlan(string(plan.Composition.Operator), outcome.Status)
		in.metrics.RecordLatency("plan", time.Since(start).Seconds())
		if outcome.Loop != nil {
			in.metrics.RecordIterations(outcome.Loop.Iterations)
		}
	}
	return outcome, nil
}

func (in *Interpreter) execute(ctx context.Context, plan models.ExecutionPlan, observers ...func(IterationState)) (*PlanOutcome, error) {
	if err := in.validatePlan(plan); err != nil {
		return nil, err
	}

	// Resolve every function before any dispatch: an unknown identifier
	// fails the request with no work started and no receipt emitted.
	fns := make([]SignalFunc, len(plan.Operations))
	for i, op := range plan.Operations {
		fn, err := in.registry.Resolve(op.Function)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}

	stabilizerID := ""
	var stabilizer SignalFunc
	if plan.Stability != nil {
		stabilizerID = plan.Stability.Stabilizer
		if stabilizerID == "" {
			stabilizerID = DefaultStabilizer
		}
		fn, err := in.registry.Resolve(stabilizerID)
		if err != nil {
			return nil, err
		}
		stabilizer = fn
	}

	series, lineage, err := in.fetchInputs(ctx, plan)
	if err != nil {
		return nil, err
	}

	aligned, err := in.alignInputs(plan, series)
	if err != nil {
		return nil, err
	}

	operands, retries, err := in.dispatchAll(ctx, plan, fns, aligned)
	if err != nil {
		return nil, err
	}

	composed, err := Compose(plan.Composition.Operator, operands)
	if err != nil {
		return nil, err
	}

	outcome := &PlanOutcome{Result: composed, Status: StatusDirect}
	invoked := make([]string, 0, len(plan.Operations)+1)
	for _, op := range plan.Operations {
		invoked = append(invoked, op.Function)
	}

	if plan.Stability != nil {
		loop, err := in.runStability(ctx, plan, composed.Vector, stabilizerID, stabilizer, observers...)
		if err != nil {
			return nil, err
		}
		invoked = append(invoked, stabilizerID)
		outcome.Loop = &loop
		outcome.Result = Result{Kind: KindVector, Vector: loop.Final}
		if loop.Converged {
			outcome.Status = StatusConverged
		} else {
			outcome.Status = StatusUnstable
		}
	}

	// Cancellation must not emit a partial receipt: either the run reaches
	// this point intact or no receipt exists at all.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome.Receipt = BuildReceipt(in.libraryVersion, invoked, lineage, plan, outcome.Loop, retries)
	return outcome, nil
}

func (in *Interpreter) validatePlan(plan models.ExecutionPlan) error {
	if len(plan.Operations) == 0 {
		return Errf(CodeInvalidPlanSchema, "plan has no operations")
	}
	for i, op := range plan.Operations {
		if op.Function == "" {
			return Errf(CodeInvalidPlanSchema, "operation %d has empty function identifier", i)
		}
		if op.Input == "" {
			return Errf(CodeInvalidPlanSchema, "operation %d has empty input reference", i)
		}
	}
	if !models.KnownOperator(plan.Composition.Operator) {
		return Errf(CodeInvalidPlanSchema, "unknown composition operator %q", plan.Composition.Operator)
	}
	if err := checkOperandCount(plan.Composition.Operator, len(plan.Operations)); err != nil {
		return err
	}
	if plan.Stability != nil {
		if plan.Composition.Operator == models.OpDivergence {
			return Errf(CodeInvalidPlanSchema, "stability loop cannot run on the scalar divergence result")
		}
		if plan.Stability.ThresholdFraction < 0 || plan.Stability.ThresholdFraction >= 1 {
			return Errf(CodeInvalidPlanSchema, "stability threshold_fraction %v out of range", plan.Stability.ThresholdFraction)
		}
	}
	return nil
}

// fetchInputs resolves every distinct input reference through the data-access
// collaborator, concurrently. Lineage entries come back in first-appearance
// order.
func (in *Interpreter) fetchInputs(ctx context.Context, plan models.ExecutionPlan) (map[string]models.TimeSeries, []models.Lineage, error) {
	refs := make([]string, 0, len(plan.Operations))
	seen := make(map[string]bool)
	for _, op := range plan.Operations {
		if !seen[op.Input] {
			seen[op.Input] = true
			refs = append(refs, op.Input)
		}
	}

	var mu sync.Mutex
	series := make(map[string]models.TimeSeries, len(refs))
	sources := make(map[string]string, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		g.Go(func() error {
			s, sourceID, err := in.source.Fetch(gctx, ref, plan.AsOf)
			if err != nil {
				return err
			}
			mu.Lock()
			series[ref] = s
			sources[ref] = sourceID
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	lineage := make([]models.Lineage, 0, len(refs))
	for _, ref := range refs {
		lineage = append(lineage, models.Lineage{Ref: ref, SourceID: sources[ref], AsOf: plan.AsOf})
	}
	return series, lineage, nil
}

// alignInputs reconciles the fetched series onto a common index and maps each
// reference to its aligned values.
func (in *Interpreter) alignInputs(plan models.ExecutionPlan, series map[string]models.TimeSeries) (map[string][]float64, error) {
	ordered := make([]models.TimeSeries, 0, len(series))
	for _, op := range plan.Operations {
		if s, ok := series[op.Input]; ok {
			ordered = append(ordered, s)
			delete(series, op.Input)
		}
	}

	aligned, err := Align(ordered)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]float64, len(aligned))
	for _, s := range aligned {
		out[s.Ref] = s.Values()
	}
	return out, nil
}

// dispatchAll runs every operation concurrently. Signal functions are pure
// and side-effect-free, so parallel dispatch is safe by construction; the
// caller's composition acts as the barrier.
func (in *Interpreter) dispatchAll(ctx context.Context, plan models.ExecutionPlan, fns []SignalFunc, aligned map[string][]float64) ([]Operand, map[string]int, error) {
	operands := make([]Operand, len(plan.Operations))
	retried := make([]int, len(plan.Operations))

	if in.dispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.dispatchTimeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, op := range plan.Operations {
		g.Go(func() error {
			input := aligned[op.Input]
			out, attempts, err := in.dispatchWithRetry(gctx, op.Function, fns[i], input)
			if err != nil {
				return err
			}
			operands[i] = Operand{Vector: out, Source: input}
			retried[i] = attempts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	retries := make(map[string]int)
	for i, op := range plan.Operations {
		if retried[i] > 0 {
			retries[op.Function] += retried[i]
		}
	}
	return operands, retries, nil
}

// dispatchWithRetry invokes one signal function under the lifecycle hooks,
// retrying on contract violations up to the configured bound. Returns the
// output and how many retries were consumed.
func (in *Interpreter) dispatchWithRetry(ctx context.Context, id string, fn SignalFunc, input []float64) ([]int, int, error) {
	if err := in.hooks.runPre(id, input); err != nil {
		return nil, 0, err
	}

	var lastErr error
	for attempt := 0; attempt <= in.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt, err
		}
		if attempt > 0 {
			if in.metrics != nil {
				in.metrics.RecordRetry(id)
			}
			if in.logger != nil {
				in.logger.Warn("retrying after contract violation",
					applogger.String("function", id),
					applogger.Int("attempt", attempt),
				)
			}
		}

		out, err := fn(input)
		if err != nil {
			lastErr = Wrap(CodeContractViolation, err, "dispatch failed for "+id)
			continue
		}
		if err := in.hooks.runPost(id, input, out); err != nil {
			if !Retryable(err) {
				return nil, attempt, err
			}
			lastErr = err
			continue
		}

		if in.metrics != nil {
			in.metrics.RecordDispatch(id)
		}
		return out, attempt, nil
	}
	return nil, in.retries, lastErr
}

// runStability hands the composed vector to the loop controller, wrapping the
// stabilizer with post-hook validation so a contract break inside the loop is
// caught the same way as in direct dispatch.
func (in *Interpreter) runStability(ctx context.Context, plan models.ExecutionPlan, initial []int, stabilizerID string, stabilizer SignalFunc, observers ...func(IterationState)) (LoopResult, error) {
	cfg := in.defaults
	if plan.Stability.MaxIterations > 0 {
		cfg.MaxIterations = plan.Stability.MaxIterations
	}
	if plan.Stability.ThresholdFraction > 0 {
		cfg.ThresholdFraction = plan.Stability.ThresholdFraction
	}

	step := func(ctx context.Context, series []float64) ([]int, error) {
		out, err := stabilizer(series)
		if err != nil {
			return nil, Wrap(CodeContractViolation, err, "stabilizer dispatch failed for "+stabilizerID)
		}
		if err := in.hooks.runPost(stabilizerID, series, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	return RunStabilityLoop(ctx, initial, step, cfg, observers...)
}
