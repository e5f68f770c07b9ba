package http

import (
	"net/http"

	"golang-portfolio-tracker/internal/portfolio/dto"
	"golang-portfolio-tracker/internal/portfolio/service"
	"golang-portfolio-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TransactionHandler handles HTTP requests for the transaction ledger.
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *logger.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService service.TransactionService, logger *logger.Logger) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, logger: logger}
}

// RegisterRoutes registers the transaction routes to the Echo group.
func (h *TransactionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateTransaction)
	g.POST("/bulk", h.BulkCreateTransactions)
	g.GET("", h.SearchTransactions)
	g.GET("/tickers", h.ListTickers)
	g.GET("/ticker/:ticker", h.ListByTicker)
	g.GET("/:id", h.GetTransaction)
	g.PUT("/:id", h.UpdateTransaction)
	g.DELETE("/:id", h.DeleteTransaction)
}

// CreateTransaction godoc
// @Summary Record a transaction
// @Description Record a ledger entry and refresh the ticker's position
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction  body    dto.CreateTransactionRequest   true    "Transaction to record"
// @Success 201 {object} dto.CreateTransactionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req dto.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	resp, err := h.transactionService.Create(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// BulkCreateTransactions godoc
// @Summary Record several transactions
// @Description Record a batch of ledger entries, reporting per-row failures
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transactions  body    dto.BulkCreateTransactionsRequest   true    "Transactions to record"
// @Success 201 {object} dto.BulkCreateTransactionsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /transactions/bulk [post]
func (h *TransactionHandler) BulkCreateTransactions(c echo.Context) error {
	var req dto.BulkCreateTransactionsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	resp, err := h.transactionService.BulkCreate(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// SearchTransactions godoc
// @Summary Search the ledger
// @Description Filter transactions by ticker, date range, type and quantity range
// @Tags transactions
// @Produce  json
// @Success 200 {array} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /transactions [get]
func (h *TransactionHandler) SearchTransactions(c echo.Context) error {
	var req dto.SearchTransactionsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query parameters"})
	}

	transactions, err := h.transactionService.Search(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, transactions)
}

// ListTickers godoc
// @Summary List ledger tickers
// @Tags transactions
// @Produce  json
// @Success 200 {array} string
// @Failure 500 {object} dto.ErrorResponse
// @Router /transactions/tickers [get]
func (h *TransactionHandler) ListTickers(c echo.Context) error {
	tickers, err := h.transactionService.DistinctTickers(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list tickers", logger.ErrorField(err))
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tickers)
}

// ListByTicker godoc
// @Summary List a ticker's history
// @Description Full transaction history for a ticker, chronological order
// @Tags transactions
// @Produce  json
// @Param   ticker  path    string true    "Ticker symbol"
// @Success 200 {array} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /transactions/ticker/{ticker} [get]
func (h *TransactionHandler) ListByTicker(c echo.Context) error {
	transactions, err := h.transactionService.ListByTicker(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, transactions)
}

// GetTransaction godoc
// @Summary Get a transaction by ID
// @Tags transactions
// @Produce  json
// @Param   id  path    string true    "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	transaction, err := h.transactionService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, transaction)
}

// UpdateTransaction godoc
// @Summary Correct a transaction
// @Description Apply a partial-field correction and refresh affected positions
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id  path    string true    "Transaction ID"
// @Param   transaction  body    dto.UpdateTransactionRequest   true    "Fields to change"
// @Success 200 {object} dto.CreateTransactionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	var req dto.UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	resp, err := h.transactionService.Update(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Description Remove a ledger entry and refresh the ticker's position
// @Tags transactions
// @Produce  json
// @Param   id  path    string true    "Transaction ID"
// @Success 204 {object} nil
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	if err := h.transactionService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
