package usecase

import (
	"context"
	"fmt"
	"time"

	"RegimeCast/internal/domain/models"
	domrepo "RegimeCast/internal/domain/repository"
	"RegimeCast/internal/engine"
	applogger "RegimeCast/pkg/logger"
)

// PlanExecutor provides business logic for executing plans: it runs the
// interpreter and, on success, hands the provenance receipt to the sink.
// A run that fails never reaches the sink.
type PlanExecutor struct {
	interp *engine.Interpreter
	sink   domrepo.ReceiptSink
	l      *applogger.Logger
}

func NewPlanExecutor(interp *engine.Interpreter, sink domrepo.ReceiptSink) *PlanExecutor {
	return &PlanExecutor{interp: interp, sink: sink}
}

// SetLogger injects a structured logger.
func (uc *PlanExecutor) SetLogger(l *applogger.Logger) { uc.l = l }

// Execute runs one plan end to end. Optional observers receive stability-loop
// iteration states as they happen.
func (uc *PlanExecutor) Execute(ctx context.Context, plan models.ExecutionPlan, observers ...func(engine.IterationState)) (*engine.PlanOutcome, error) {
	start := time.Now()
	outcome, err := uc.interp.Execute(ctx, plan, observers...)
	if err != nil {
		return nil, err
	}

	if uc.sink != nil {
		if err := uc.sink.Append(ctx, outcome.Receipt); err != nil {
			return nil, fmt.Errorf("append receipt: %w", err)
		}
	}

	if uc.l != nil {
		uc.l.Info("plan executed",
			applogger.String("operator", string(plan.Composition.Operator)),
			applogger.String("status", outcome.Status),
			applogger.Int("operations", len(plan.Operations)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return outcome, nil
}
