package api

import (
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/usecase"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler serves the operational endpoints: /health for component
// liveness and /status for a snapshot of the engine.
type StatusHandler struct {
	logger *xlogger.Logger
	engine *usecase.Engine
	store  domrepo.SignalStore
}

func NewStatusHandler(logger *xlogger.Logger, engine *usecase.Engine, store domrepo.SignalStore) *StatusHandler {
	return &StatusHandler{logger: logger, engine: engine, store: store}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/status", h.Status)
}

func (h *StatusHandler) Health(c echo.Context) error {
	components := map[string]string{"engine": "ok"}
	healthy := true
	if err := h.store.Health(c.Request().Context()); err != nil {
		components["clickhouse"] = err.Error()
		healthy = false
		h.logger.Warn("health check failed", xlogger.Error(err))
	} else {
		components["clickhouse"] = "ok"
	}

	body := map[string]interface{}{
		"status":     "healthy",
		"components": components,
	}
	if !healthy {
		body["status"] = "degraded"
		return xhttp.UnavailableResponse(c, body)
	}
	return xhttp.SuccessResponse(c, body)
}

func (h *StatusHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Status(c.Request().Context()))
}

var _ xhttp.Handler = (*StatusHandler)(nil)
