package engine

import (
	"testing"
	"time"

	"golang-portfolio-tracker/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(txType entity.TransactionType, day string, quantity, price float64) entity.Transaction {
	return entity.Transaction{
		ID:                   uuid.Must(uuid.NewV7()),
		Ticker:               "AAPL",
		TransactionType:      txType,
		Quantity:             decimal.NewFromFloat(quantity),
		CostPerShare:         decimal.NewFromFloat(price),
		Currency:             "USD",
		TransactionDate:      date(day),
		FractionalMultiplier: decimal.NewFromInt(1),
		CreatedAt:            date(day),
	}
}

func TestRecalculate_AverageCost(t *testing.T) {
	snap, err := Recalculate("AAPL", []entity.Transaction{
		tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100),
		tx(entity.TransactionTypeBuy, "2024-02-02", 10, 200),
	})
	require.NoError(t, err)

	assert.True(t, snap.Quantity.Equal(decimal.NewFromInt(20)), "quantity = %s", snap.Quantity)
	assert.True(t, snap.AvgCostPerShare.Equal(decimal.NewFromInt(150)), "avg cost = %s", snap.AvgCostPerShare)
	assert.True(t, snap.CostBasis.Equal(decimal.NewFromInt(3000)), "cost basis = %s", snap.CostBasis)
	assert.Empty(t, snap.Warnings)
}

func TestRecalculate_SellReducesProportionally(t *testing.T) {
	snap, err := Recalculate("AAPL", []entity.Transaction{
		tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100),
		tx(entity.TransactionTypeBuy, "2024-02-02", 10, 200),
		tx(entity.TransactionTypeSell, "2024-03-02", 5, 180),
	})
	require.NoError(t, err)

	assert.True(t, snap.Quantity.Equal(decimal.NewFromInt(15)))
	assert.True(t, snap.CostBasis.Equal(decimal.NewFromInt(2250)), "cost basis = %s", snap.CostBasis)
	assert.True(t, snap.AvgCostPerShare.Equal(decimal.NewFromInt(150)), "avg cost unchanged by sale")
}

func TestRecalculate_Idempotent(t *testing.T) {
	history := []entity.Transaction{
		tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100),
		tx(entity.TransactionTypeSell, "2024-02-02", 3, 120),
		tx(entity.TransactionTypeBuy, "2024-03-02", 7, 90),
	}

	first, err := Recalculate("AAPL", history)
	require.NoError(t, err)
	second, err := Recalculate("AAPL", history)
	require.NoError(t, err)

	assert.True(t, first.Quantity.Equal(second.Quantity))
	assert.True(t, first.AvgCostPerShare.Equal(second.AvgCostPerShare))
	assert.True(t, first.CostBasis.Equal(second.CostBasis))
}

func TestRecalculate_OrderIndependent(t *testing.T) {
	a := tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100)
	b := tx(entity.TransactionTypeBuy, "2024-02-02", 10, 200)
	c := tx(entity.TransactionTypeSell, "2024-03-02", 5, 180)

	chronological, err := Recalculate("AAPL", []entity.Transaction{a, b, c})
	require.NoError(t, err)
	shuffled, err := Recalculate("AAPL", []entity.Transaction{c, a, b})
	require.NoError(t, err)

	assert.True(t, chronological.Quantity.Equal(shuffled.Quantity))
	assert.True(t, chronological.CostBasis.Equal(shuffled.CostBasis))
	assert.True(t, chronological.AvgCostPerShare.Equal(shuffled.AvgCostPerShare))
}

func TestRecalculate_FractionalMultiplier(t *testing.T) {
	buy := tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100)
	buy.IsFractional = true
	buy.FractionalMultiplier = decimal.NewFromFloat(0.1)

	snap, err := Recalculate("AAPL", []entity.Transaction{buy})
	require.NoError(t, err)

	assert.True(t, snap.Quantity.Equal(decimal.NewFromInt(1)), "quantity = %s", snap.Quantity)
	assert.True(t, snap.CostBasis.Equal(decimal.NewFromInt(100)), "cost basis = %s", snap.CostBasis)
}

func TestRecalculate_BuyCommissionInBasis(t *testing.T) {
	buy := tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100)
	buy.Commission = decimal.NewFromFloat(9.5)

	snap, err := Recalculate("AAPL", []entity.Transaction{buy})
	require.NoError(t, err)

	assert.True(t, snap.CostBasis.Equal(decimal.NewFromFloat(1009.5)))
	assert.True(t, snap.TotalCommissions.Equal(decimal.NewFromFloat(9.5)))
}

func TestRecalculate_ClosedPosition(t *testing.T) {
	snap, err := Recalculate("AAPL", []entity.Transaction{
		tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100),
		tx(entity.TransactionTypeSell, "2024-02-02", 10, 150),
	})
	require.NoError(t, err)

	assert.True(t, snap.Quantity.IsZero())
	assert.True(t, snap.CostBasis.IsZero(), "closed position keeps no basis dust")
	assert.True(t, snap.AvgCostPerShare.IsZero())
}

func TestRecalculate_OversellClampsWithWarning(t *testing.T) {
	snap, err := Recalculate("AAPL", []entity.Transaction{
		tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100),
		tx(entity.TransactionTypeSell, "2024-02-02", 15, 150),
	})
	require.NoError(t, err)

	assert.True(t, snap.Quantity.IsZero(), "oversell clamps at held quantity")
	require.Len(t, snap.Warnings, 1)
	assert.Contains(t, snap.Warnings[0], "exceeds held quantity")
}

func TestRecalculate_DividendDoesNotChangeHoldings(t *testing.T) {
	dividend := tx(entity.TransactionTypeDividend, "2024-02-02", 10, 0.5)
	dividend.DripConfirmed = true

	snap, err := Recalculate("AAPL", []entity.Transaction{
		tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100),
		dividend,
	})
	require.NoError(t, err)

	assert.True(t, snap.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, snap.CostBasis.Equal(decimal.NewFromInt(1000)))
}

func TestRecalculate_Split(t *testing.T) {
	tests := []struct {
		name         string
		ratio        float64
		wantQuantity string
		wantAvgCost  string
		wantWarning  bool
	}{
		{name: "2-for-1", ratio: 2, wantQuantity: "20", wantAvgCost: "50"},
		{name: "1-for-10 reverse", ratio: 0.1, wantQuantity: "1", wantAvgCost: "1000"},
		{name: "zero ratio skipped", ratio: 0, wantQuantity: "10", wantAvgCost: "100", wantWarning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Recalculate("AAPL", []entity.Transaction{
				tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100),
				tx(entity.TransactionTypeSplit, "2024-02-02", tt.ratio, 0),
			})
			require.NoError(t, err)

			assert.True(t, snap.Quantity.Equal(decimal.RequireFromString(tt.wantQuantity)),
				"quantity = %s", snap.Quantity)
			assert.True(t, snap.AvgCostPerShare.Equal(decimal.RequireFromString(tt.wantAvgCost)),
				"avg cost = %s", snap.AvgCostPerShare)
			assert.True(t, snap.CostBasis.Equal(decimal.NewFromInt(1000)), "split leaves basis unchanged")
			assert.Equal(t, tt.wantWarning, len(snap.Warnings) > 0)
		})
	}
}

func TestRecalculate_EqualTimestampsFoldInInsertionOrder(t *testing.T) {
	// Same transaction date and identical created_at, as rows from one bulk
	// write have. The time-ordered ids must decide: the buy was recorded
	// before the sell, so the sell never oversells.
	buy := tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100)
	sell := tx(entity.TransactionTypeSell, "2024-01-02", 5, 120)

	snap, err := Recalculate("AAPL", []entity.Transaction{sell, buy})
	require.NoError(t, err)

	assert.True(t, snap.Quantity.Equal(decimal.NewFromInt(5)), "quantity = %s", snap.Quantity)
	assert.True(t, snap.CostBasis.Equal(decimal.NewFromInt(500)), "cost basis = %s", snap.CostBasis)
	assert.Empty(t, snap.Warnings)
}

func TestRecalculate_NoTransactions(t *testing.T) {
	_, err := Recalculate("AAPL", nil)
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestRecalculate_DatesAndCurrency(t *testing.T) {
	sell := tx(entity.TransactionTypeSell, "2024-03-05", 2, 120)
	snap, err := Recalculate("AAPL", []entity.Transaction{
		sell,
		tx(entity.TransactionTypeBuy, "2024-01-02", 10, 100),
	})
	require.NoError(t, err)

	assert.Equal(t, "USD", snap.PrimaryCurrency)
	require.NotNil(t, snap.FirstPurchaseDate)
	assert.Equal(t, "2024-01-02", snap.FirstPurchaseDate.Format("2006-01-02"))
	require.NotNil(t, snap.LastTransactionDate)
	assert.Equal(t, "2024-03-05", snap.LastTransactionDate.Format("2006-01-02"))
}
