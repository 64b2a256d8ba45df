package api

import (
	"net/http"
	"time"

	models "RegimeCast/internal/domain/models"
	"RegimeCast/internal/engine"
	"RegimeCast/internal/usecase"
	xhttp "RegimeCast/pkg/http"
	xlogger "RegimeCast/pkg/logger"
	"RegimeCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// PlansEchoHandler exposes plan execution and the function catalog over HTTP.
type PlansEchoHandler struct {
	logger         *xlogger.Logger
	executor       *usecase.PlanExecutor
	registry       *engine.Registry
	libraryVersion string
}

func NewPlansEchoHandler(logger *xlogger.Logger, executor *usecase.PlanExecutor, registry *engine.Registry, libraryVersion string) *PlansEchoHandler {
	return &PlansEchoHandler{
		logger:         logger,
		executor:       executor,
		registry:       registry,
		libraryVersion: libraryVersion,
	}
}

func (h *PlansEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/plans/execute", h.Execute)
	g.GET("/functions", h.Functions)
}

func (h *PlansEchoHandler) Execute(c echo.Context) error {
	req := &models.ExecutePlanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	plan := PlanFromRequest(req)

	outcome, err := h.executor.Execute(c.Request().Context(), plan)
	if err != nil {
		h.logger.Error("execute plan usecase error",
			xlogger.String("operator", string(plan.Composition.Operator)),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, MapEngineError(err))
	}
	return xhttp.SuccessResponse(c, OutcomeToResponse(outcome))
}

func (h *PlansEchoHandler) Functions(c echo.Context) error {
	ids := h.registry.Identifiers()
	infos := make([]models.FunctionInfo, len(ids))
	for i, id := range ids {
		infos[i] = models.FunctionInfo{Identifier: id}
	}
	return xhttp.SuccessResponse(c, models.FunctionsResponse{
		LibraryVersion: h.libraryVersion,
		Functions:      infos,
	})
}

// PlanFromRequest converts a validated request body into a plan. A missing
// as_of pins the plan to the current instant.
func PlanFromRequest(req *models.ExecutePlanRequest) models.ExecutionPlan {
	plan := models.ExecutionPlan{
		Operations:  make([]models.Operation, len(req.Operations)),
		Composition: models.CompositionSpec{Operator: models.Operator(req.Composition.Operator)},
		AsOf:        util.ParseTimeDefault(req.AsOf, time.Now().UTC()),
	}
	for i, op := range req.Operations {
		plan.Operations[i] = models.Operation{Function: op.Function, Input: op.Input}
	}
	if req.Stability != nil {
		plan.Stability = &models.StabilityRequest{
			MaxIterations:     req.Stability.MaxIterations,
			ThresholdFraction: req.Stability.ThresholdFraction,
			Stabilizer:        req.Stability.Stabilizer,
		}
	}
	return plan
}

// OutcomeToResponse shapes an engine outcome for the wire.
func OutcomeToResponse(outcome *engine.PlanOutcome) models.ExecutePlanResponse {
	resp := models.ExecutePlanResponse{
		Status:  outcome.Status,
		Receipt: outcome.Receipt,
	}
	if outcome.Result.Kind == engine.KindScalar {
		scalar := outcome.Result.Scalar
		resp.Scalar = &scalar
	} else {
		resp.Vector = outcome.Result.Vector
	}
	return resp
}

// MapEngineError translates taxonomy codes into HTTP application errors.
func MapEngineError(err error) *xhttp.AppError {
	code := engine.CodeOf(err)
	switch code {
	case engine.CodeInvalidPlanSchema, engine.CodeOperandCountMismatch:
		return xhttp.BadRequestError(err.Error())
	case engine.CodeUnknownFunction:
		return xhttp.NotFoundError(err.Error())
	case engine.CodeNoAlignmentAnchor, engine.CodeConvergedIndexEmpty:
		return xhttp.UnprocessableError(err.Error())
	case engine.CodeContractViolation:
		return xhttp.NewAppError("ERR_CONTRACT_VIOLATION", err.Error(), http.StatusBadGateway)
	default:
		return xhttp.InternalError(err.Error())
	}
}
