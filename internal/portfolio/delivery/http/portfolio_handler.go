package http

import (
	"net/http"

	"golang-portfolio-tracker/internal/portfolio/service"
	"golang-portfolio-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PortfolioHandler handles HTTP requests for portfolio rollups.
type PortfolioHandler struct {
	portfolioService service.PortfolioService
	logger           *logger.Logger
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService service.PortfolioService, logger *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, logger: logger}
}

// RegisterRoutes registers the portfolio routes to the Echo group.
func (h *PortfolioHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/summary", h.GetSummary)
	g.GET("/performance", h.GetPerformanceMetrics)
	g.GET("/currencies", h.GetCurrencyBreakdown)
	g.GET("/analysis/:ticker", h.GetTickerAnalysis)
}

// GetSummary godoc
// @Summary Portfolio summary
// @Description Headline totals over open positions
// @Tags portfolio
// @Produce  json
// @Success 200 {object} dto.PortfolioSummaryResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/summary [get]
func (h *PortfolioHandler) GetSummary(c echo.Context) error {
	summary, err := h.portfolioService.Summary(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to build portfolio summary", logger.ErrorField(err))
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetPerformanceMetrics godoc
// @Summary Portfolio performance
// @Description Win/loss statistics, win rate and total return
// @Tags portfolio
// @Produce  json
// @Success 200 {object} dto.PerformanceMetricsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/performance [get]
func (h *PortfolioHandler) GetPerformanceMetrics(c echo.Context) error {
	metrics, err := h.portfolioService.PerformanceMetrics(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, metrics)
}

// GetCurrencyBreakdown godoc
// @Summary Portfolio by currency
// @Tags portfolio
// @Produce  json
// @Success 200 {object} dto.CurrencyBreakdownResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/currencies [get]
func (h *PortfolioHandler) GetCurrencyBreakdown(c echo.Context) error {
	breakdown, err := h.portfolioService.CurrencyBreakdown(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, breakdown)
}

// GetTickerAnalysis godoc
// @Summary Ticker analysis
// @Description Position, full history and derived counters for one ticker
// @Tags portfolio
// @Produce  json
// @Param   ticker  path    string true    "Ticker symbol"
// @Success 200 {object} dto.TickerAnalysisResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /portfolio/analysis/{ticker} [get]
func (h *PortfolioHandler) GetTickerAnalysis(c echo.Context) error {
	analysis, err := h.portfolioService.TickerAnalysis(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}
