package api

import (
	"github.com/labstack/echo/v4"
)

// Router bundles the API handlers behind one route registrar.
type Router struct {
	plans  *PlansEchoHandler
	stream *StreamEchoHandler
}

func NewRouter(plans *PlansEchoHandler, stream *StreamEchoHandler) *Router {
	return &Router{plans: plans, stream: stream}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.plans.RegisterRoutes(e)
	r.stream.RegisterRoutes(e)
}
