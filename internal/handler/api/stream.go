package api

import (
	"net/http"

	models "RegimeCast/internal/domain/models"
	"RegimeCast/internal/engine"
	"RegimeCast/internal/usecase"
	xhttp "RegimeCast/pkg/http"
	xlogger "RegimeCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Stream frame types.
const (
	frameIteration = "iteration"
	frameResult    = "result"
	frameError     = "error"
)

type streamFrame struct {
	Type      string                      `json:"type"`
	Iteration *engine.IterationState      `json:"iteration,omitempty"`
	Result    *models.ExecutePlanResponse `json:"result,omitempty"`
	Error     *xhttp.AppError             `json:"error,omitempty"`
}

// StreamEchoHandler executes a plan over a websocket, pushing stability-loop
// iteration states to the client as they happen. The client sends one plan
// request as the first message; the connection closes after the final frame.
type StreamEchoHandler struct {
	logger   *xlogger.Logger
	executor *usecase.PlanExecutor
	upgrader websocket.Upgrader
}

func NewStreamEchoHandler(logger *xlogger.Logger, executor *usecase.PlanExecutor) *StreamEchoHandler {
	return &StreamEchoHandler{
		logger:   logger,
		executor: executor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/plans/stream", h.Stream)
}

func (h *StreamEchoHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade error", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	req := &models.ExecutePlanRequest{}
	if err := conn.ReadJSON(req); err != nil {
		_ = conn.WriteJSON(streamFrame{Type: frameError, Error: xhttp.BadRequestError("malformed plan request")})
		return nil
	}
	if verr := xhttp.ValidateStruct(req); verr != nil {
		_ = conn.WriteJSON(streamFrame{Type: frameError, Error: xhttp.BadRequestErrorf("invalid plan request: %v", verr)})
		return nil
	}
	plan := PlanFromRequest(req)

	observer := func(state engine.IterationState) {
		_ = conn.WriteJSON(streamFrame{Type: frameIteration, Iteration: &state})
	}

	outcome, err := h.executor.Execute(c.Request().Context(), plan, observer)
	if err != nil {
		h.logger.Error("stream plan execution error",
			xlogger.String("operator", string(plan.Composition.Operator)),
			xlogger.Error(err),
		)
		_ = conn.WriteJSON(streamFrame{Type: frameError, Error: MapEngineError(err)})
		return nil
	}

	resp := OutcomeToResponse(outcome)
	_ = conn.WriteJSON(streamFrame{Type: frameResult, Result: &resp})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return nil
}
