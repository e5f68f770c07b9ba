package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the derived snapshot of net holdings for one ticker. It is a
// cache refreshed from the transaction history, never edited directly;
// market-price fields are the only externally supplied values.
type Position struct {
	Ticker              string           `gorm:"primaryKey" json:"ticker"`
	CurrentQuantity     decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"current_quantity"`
	AvgCostPerShare     decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"avg_cost_per_share"`
	TotalCostBasis      decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"total_cost_basis"`
	CurrentPrice        *decimal.Decimal `gorm:"type:decimal(20,8)" json:"current_price,omitempty"`
	CurrentMarketValue  *decimal.Decimal `gorm:"type:decimal(20,8)" json:"current_market_value,omitempty"`
	UnrealizedGainLoss  *decimal.Decimal `gorm:"type:decimal(20,8)" json:"unrealized_gain_loss,omitempty"`
	LastPriceUpdate     *time.Time       `json:"last_price_update,omitempty"`
	PrimaryCurrency     string           `gorm:"not null" json:"primary_currency"`
	FirstPurchaseDate   *time.Time       `gorm:"type:date" json:"first_purchase_date,omitempty"`
	LastTransactionDate *time.Time       `gorm:"type:date" json:"last_transaction_date,omitempty"`
	TotalCommissions    decimal.Decimal  `gorm:"type:decimal(20,8);not null;default:0" json:"total_commissions"`
	HasIntegrityWarning bool             `gorm:"not null;default:false" json:"has_integrity_warning"`
	CreatedAt           time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

// RefreshMarketFields recomputes market value and unrealized gain/loss from
// the stored quantity, cost basis and current price. Both stay nil until a
// price has ever been set.
func (p *Position) RefreshMarketFields() {
	if p.CurrentPrice == nil {
		p.CurrentMarketValue = nil
		p.UnrealizedGainLoss = nil
		return
	}
	marketValue := p.CurrentQuantity.Mul(*p.CurrentPrice)
	gainLoss := marketValue.Sub(p.TotalCostBasis)
	p.CurrentMarketValue = &marketValue
	p.UnrealizedGainLoss = &gainLoss
}
