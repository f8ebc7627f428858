package api

import (
	"context"
	"errors"
	"time"

	models "TiltGuard/internal/domain/models"
	domrepo "TiltGuard/internal/domain/repository"
	"TiltGuard/internal/usecase"
	xhttp "TiltGuard/pkg/http"
	xlogger "TiltGuard/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BehavioralEchoHandler exposes the risk engine over HTTP.
type BehavioralEchoHandler struct {
	logger *xlogger.Logger
	engine *usecase.Engine
	ledger domrepo.TradeLedger
}

func NewBehavioralEchoHandler(logger *xlogger.Logger, engine *usecase.Engine, ledger domrepo.TradeLedger) *BehavioralEchoHandler {
	return &BehavioralEchoHandler{logger: logger, engine: engine, ledger: ledger}
}

func (h *BehavioralEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/behavioral/analyze", h.Analyze)
	g.GET("/trader-profile", h.TraderProfile)
	g.GET("/interventions/stats", h.InterventionStats)
	g.GET("/health", h.Health)
}

func (h *BehavioralEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.Analyze(c.Request().Context(), *req)
	if err != nil {
		return h.mapError(c, "analyze", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BehavioralEchoHandler) TraderProfile(c echo.Context) error {
	req := &models.ProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	prof, err := h.engine.Profile(c.Request().Context(), *req)
	if err != nil {
		return h.mapError(c, "trader profile", err)
	}
	return xhttp.SuccessResponse(c, prof)
}

func (h *BehavioralEchoHandler) InterventionStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Stats())
}

func (h *BehavioralEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
	if err := h.ledger.Health(ctx); err != nil {
		h.logger.Warn("ledger health check failed", xlogger.Error(err))
		status["status"] = "degraded"
		status["ledger"] = err.Error()
	}
	return xhttp.SuccessResponse(c, status)
}

// mapError translates domain sentinels into transport errors.
func (h *BehavioralEchoHandler) mapError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidRange):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	case errors.Is(err, models.ErrUpstreamUnavailable):
		h.logger.Error(op+" upstream error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("upstream dependency unavailable").WithError(err))
	default:
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}
