package http

import (
	"net/http"

	"golang-portfolio-tracker/internal/portfolio/dto"
	"golang-portfolio-tracker/internal/portfolio/service"
	"golang-portfolio-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PositionHandler handles HTTP requests for derived positions.
type PositionHandler struct {
	positionService service.PositionService
	logger          *logger.Logger
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(positionService service.PositionService, logger *logger.Logger) *PositionHandler {
	return &PositionHandler{positionService: positionService, logger: logger}
}

// RegisterRoutes registers the position routes to the Echo group.
func (h *PositionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListCurrentPositions)
	g.POST("/recalculate", h.RecalculateAll)
	g.GET("/:ticker", h.GetPosition)
	g.POST("/:ticker/recalculate", h.RecalculatePosition)
	g.PUT("/:ticker/market-data", h.UpdateMarketData)
}

// ListCurrentPositions godoc
// @Summary List current positions
// @Description Open positions only; closed tickers are filtered out
// @Tags positions
// @Produce  json
// @Success 200 {array} dto.PositionResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /positions [get]
func (h *PositionHandler) ListCurrentPositions(c echo.Context) error {
	positions, err := h.positionService.ListCurrentPositions(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list positions", logger.ErrorField(err))
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, positions)
}

// GetPosition godoc
// @Summary Get a position by ticker
// @Tags positions
// @Produce  json
// @Param   ticker  path    string true    "Ticker symbol"
// @Success 200 {object} dto.PositionResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /positions/{ticker} [get]
func (h *PositionHandler) GetPosition(c echo.Context) error {
	position, err := h.positionService.GetPosition(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, position)
}

// RecalculatePosition godoc
// @Summary Recalculate a position
// @Description Refold the ticker's full history into a fresh snapshot
// @Tags positions
// @Produce  json
// @Param   ticker  path    string true    "Ticker symbol"
// @Success 200 {object} dto.RecalculatePositionResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /positions/{ticker}/recalculate [post]
func (h *PositionHandler) RecalculatePosition(c echo.Context) error {
	resp, err := h.positionService.Recalculate(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// RecalculateAll godoc
// @Summary Recalculate every position
// @Description Refold every ledger ticker; failures are reported, not fatal
// @Tags positions
// @Produce  json
// @Success 200 {object} dto.RecalculateAllResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /positions/recalculate [post]
func (h *PositionHandler) RecalculateAll(c echo.Context) error {
	resp, err := h.positionService.RecalculateAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateMarketData godoc
// @Summary Update market data
// @Description Store an observed price and refresh derived market fields
// @Tags positions
// @Accept  json
// @Produce  json
// @Param   ticker  path    string true    "Ticker symbol"
// @Param   market_data  body    dto.UpdateMarketDataRequest   true    "Observed price"
// @Success 200 {object} dto.PositionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /positions/{ticker}/market-data [put]
func (h *PositionHandler) UpdateMarketData(c echo.Context) error {
	var req dto.UpdateMarketDataRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	position, err := h.positionService.UpdateMarketData(c.Request().Context(), c.Param("ticker"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, position)
}
