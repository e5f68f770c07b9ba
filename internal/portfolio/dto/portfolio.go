package dto

import (
	"github.com/shopspring/decimal"
)

// PortfolioSummaryResponse is the headline rollup over current positions.
type PortfolioSummaryResponse struct {
	TotalPositions     int             `json:"total_positions"`
	TotalMarketValue   decimal.Decimal `json:"total_market_value"`
	TotalCostBasis     decimal.Decimal `json:"total_cost_basis"`
	TotalUnrealizedPnL decimal.Decimal `json:"total_unrealized_pnl"`
}

// PerformanceMetricsResponse extends the summary with win/loss statistics.
// Percentages are 0 when there is nothing to divide by.
type PerformanceMetricsResponse struct {
	TotalPositions        int             `json:"total_positions"`
	WinningPositions      int             `json:"winning_positions"`
	LosingPositions       int             `json:"losing_positions"`
	WinRate               float64         `json:"win_rate"`
	TotalMarketValue      decimal.Decimal `json:"total_market_value"`
	TotalInvested         decimal.Decimal `json:"total_invested"`
	TotalReturnPercentage float64         `json:"total_return_percentage"`
	AvgUnrealizedPnL      decimal.Decimal `json:"avg_unrealized_pnl"`
	BestPerformer         decimal.Decimal `json:"best_performer"`
	WorstPerformer        decimal.Decimal `json:"worst_performer"`
}

// CurrencyBreakdownEntry is the rollup for one currency, ordered by market
// value descending in the response.
type CurrencyBreakdownEntry struct {
	Currency           string          `json:"currency"`
	PositionsCount     int             `json:"positions_count"`
	TotalMarketValue   decimal.Decimal `json:"total_market_value"`
	TotalCostBasis     decimal.Decimal `json:"total_cost_basis"`
	TotalUnrealizedPnL decimal.Decimal `json:"total_unrealized_pnl"`
}

// CurrencyBreakdownResponse groups current positions by primary currency.
type CurrencyBreakdownResponse struct {
	Currencies []CurrencyBreakdownEntry `json:"currencies"`
}

// TickerMetrics are the derived counters of a ticker analysis.
type TickerMetrics struct {
	TotalBought       decimal.Decimal `json:"total_bought"`
	TotalSold         decimal.Decimal `json:"total_sold"`
	NetQuantity       decimal.Decimal `json:"net_quantity"`
	TotalTransactions int             `json:"total_transactions"`
}

// TickerAnalysisResponse joins a ticker's position, its full history and
// derived counters. It is a read-side view, not a stored entity.
type TickerAnalysisResponse struct {
	Ticker       string                 `json:"ticker"`
	Position     *PositionResponse      `json:"position,omitempty"`
	Transactions []*TransactionResponse `json:"transactions"`
	Metrics      TickerMetrics          `json:"metrics"`
}
