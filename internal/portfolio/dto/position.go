package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionResponse is the API representation of a derived position.
type PositionResponse struct {
	Ticker              string           `json:"ticker"`
	CurrentQuantity     decimal.Decimal  `json:"current_quantity"`
	AvgCostPerShare     decimal.Decimal  `json:"avg_cost_per_share"`
	TotalCostBasis      decimal.Decimal  `json:"total_cost_basis"`
	CurrentPrice        *decimal.Decimal `json:"current_price,omitempty"`
	CurrentMarketValue  *decimal.Decimal `json:"current_market_value,omitempty"`
	UnrealizedGainLoss  *decimal.Decimal `json:"unrealized_gain_loss,omitempty"`
	LastPriceUpdate     *time.Time       `json:"last_price_update,omitempty"`
	PrimaryCurrency     string           `json:"primary_currency"`
	FirstPurchaseDate   *string          `json:"first_purchase_date,omitempty"`
	LastTransactionDate *string          `json:"last_transaction_date,omitempty"`
	TotalCommissions    decimal.Decimal  `json:"total_commissions"`
	HasIntegrityWarning bool             `json:"has_integrity_warning"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// UpdateMarketDataRequest sets the externally observed price for a ticker.
type UpdateMarketDataRequest struct {
	CurrentPrice decimal.Decimal `json:"current_price"`
	ObservedAt   *time.Time      `json:"observed_at,omitempty"`
}

// RecalculatePositionResponse returns the refreshed snapshot plus any
// integrity warnings the fold raised.
type RecalculatePositionResponse struct {
	Position *PositionResponse `json:"position"`
	Warnings []string          `json:"warnings,omitempty"`
}

// RecalculationFailure describes one ticker a batch recalculation could not
// refresh.
type RecalculationFailure struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// RecalculateAllResponse is the partial-success summary of a batch
// recalculation.
type RecalculateAllResponse struct {
	Recalculated int                    `json:"recalculated"`
	Failures     []RecalculationFailure `json:"failures,omitempty"`
}
