package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionType classifies the effect of a ledger entry on a holding.
type TransactionType string

const (
	TransactionTypeBuy      TransactionType = "BUY"
	TransactionTypeSell     TransactionType = "SELL"
	TransactionTypeDividend TransactionType = "DIVIDEND"
	TransactionTypeSplit    TransactionType = "SPLIT"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeDividend, TransactionTypeSplit:
		return true
	}
	return false
}

// Transaction is a single ledger entry for a ticker. Rows are facts that can
// be individually corrected; every mutation invalidates the derived position
// for the ticker.
type Transaction struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Ticker               string          `gorm:"not null;index" json:"ticker"`
	TransactionType      TransactionType `gorm:"not null" json:"transaction_type"`
	Quantity             decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"quantity"`
	CostPerShare         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"cost_per_share"`
	Currency             string          `gorm:"not null" json:"currency"`
	TransactionDate      time.Time       `gorm:"type:date;not null;index" json:"transaction_date"`
	Commission           decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"commission"`
	CommissionCurrency   *string         `json:"commission_currency,omitempty"`
	DripConfirmed        bool            `gorm:"not null;default:false" json:"drip_confirmed"`
	IsFractional         bool            `gorm:"not null;default:false" json:"is_fractional"`
	FractionalMultiplier decimal.Decimal `gorm:"type:decimal(20,8);not null;default:1" json:"fractional_multiplier"`
	Notes                string          `json:"notes"`
	Metadata             datatypes.JSON  `json:"metadata,omitempty"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// EffectiveShares is the actual share count the entry moves, after the
// fractional multiplier is applied.
func (t *Transaction) EffectiveShares() decimal.Decimal {
	return t.Quantity.Mul(t.FractionalMultiplier)
}
