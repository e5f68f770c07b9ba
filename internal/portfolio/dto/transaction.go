package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the payload for recording a new ledger entry.
type CreateTransactionRequest struct {
	Ticker               string           `json:"ticker"`
	TransactionType      string           `json:"transaction_type"`
	Quantity             decimal.Decimal  `json:"quantity"`
	CostPerShare         decimal.Decimal  `json:"cost_per_share"`
	Currency             string           `json:"currency"`
	TransactionDate      string           `json:"transaction_date"`
	Commission           decimal.Decimal  `json:"commission"`
	CommissionCurrency   *string          `json:"commission_currency,omitempty"`
	DripConfirmed        bool             `json:"drip_confirmed"`
	IsFractional         bool             `json:"is_fractional"`
	FractionalMultiplier *decimal.Decimal `json:"fractional_multiplier,omitempty"`
	Notes                string           `json:"notes"`
	Metadata             json.RawMessage  `json:"metadata,omitempty"`
}

// UpdateTransactionRequest is a partial-field update; only non-nil fields
// are applied.
type UpdateTransactionRequest struct {
	Ticker               *string          `json:"ticker,omitempty"`
	TransactionType      *string          `json:"transaction_type,omitempty"`
	Quantity             *decimal.Decimal `json:"quantity,omitempty"`
	CostPerShare         *decimal.Decimal `json:"cost_per_share,omitempty"`
	Currency             *string          `json:"currency,omitempty"`
	TransactionDate      *string          `json:"transaction_date,omitempty"`
	Commission           *decimal.Decimal `json:"commission,omitempty"`
	CommissionCurrency   *string          `json:"commission_currency,omitempty"`
	DripConfirmed        *bool            `json:"drip_confirmed,omitempty"`
	IsFractional         *bool            `json:"is_fractional,omitempty"`
	FractionalMultiplier *decimal.Decimal `json:"fractional_multiplier,omitempty"`
	Notes                *string          `json:"notes,omitempty"`
	Metadata             json.RawMessage  `json:"metadata,omitempty"`
}

// SearchTransactionsRequest carries the optional ledger search filters.
// Quantity bounds are compared against the absolute recorded quantity.
type SearchTransactionsRequest struct {
	Ticker          string `query:"ticker"`
	StartDate       string `query:"start_date"`
	EndDate         string `query:"end_date"`
	TransactionType string `query:"transaction_type"`
	MinQuantity     string `query:"min_quantity"`
	MaxQuantity     string `query:"max_quantity"`
	Limit           int    `query:"limit"`
	Offset          int    `query:"offset"`
}

// TransactionResponse is the API representation of a ledger entry.
type TransactionResponse struct {
	ID                   string          `json:"id"`
	Ticker               string          `json:"ticker"`
	TransactionType      string          `json:"transaction_type"`
	Quantity             decimal.Decimal `json:"quantity"`
	CostPerShare         decimal.Decimal `json:"cost_per_share"`
	Currency             string          `json:"currency"`
	TransactionDate      string          `json:"transaction_date"`
	Commission           decimal.Decimal `json:"commission"`
	CommissionCurrency   *string         `json:"commission_currency,omitempty"`
	DripConfirmed        bool            `json:"drip_confirmed"`
	IsFractional         bool            `json:"is_fractional"`
	FractionalMultiplier decimal.Decimal `json:"fractional_multiplier"`
	EffectiveShares      decimal.Decimal `json:"effective_shares"`
	Notes                string          `json:"notes,omitempty"`
	Metadata             json.RawMessage `json:"metadata,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// CreateTransactionResponse acknowledges a ledger write and surfaces any
// integrity warnings raised by the triggered recalculation.
type CreateTransactionResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// BulkCreateTransactionsRequest creates several ledger entries in one call.
type BulkCreateTransactionsRequest struct {
	Transactions []CreateTransactionRequest `json:"transactions"`
}

// BulkCreateFailure describes one rejected row of a bulk create.
type BulkCreateFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BulkCreateTransactionsResponse is the partial-success summary of a bulk
// create.
type BulkCreateTransactionsResponse struct {
	CreatedIDs []string            `json:"created_ids"`
	Failures   []BulkCreateFailure `json:"failures,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
}
