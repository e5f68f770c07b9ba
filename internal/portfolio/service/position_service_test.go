package service

import (
	"context"
	"testing"

	"golang-portfolio-tracker/internal/portfolio/dto"
	"golang-portfolio-tracker/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionService_RecalculateUnknownTicker(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.positions.Recalculate(context.Background(), "GHOST")
	assert.True(t, errs.IsNotFound(err))
}

func TestPositionService_RecalculateMatchesTrigger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-01-02", 10, 100))
	require.NoError(t, err)
	_, err = env.transactions.Create(ctx, createRequest("AAPL", "SELL", "2024-02-02", 4, 120))
	require.NoError(t, err)

	resp, err := env.positions.Recalculate(ctx, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, resp.Warnings)
	requireDecimal(t, 6, resp.Position.CurrentQuantity)
	requireDecimal(t, 100, resp.Position.AvgCostPerShare)
	requireDecimal(t, 600, resp.Position.TotalCostBasis)

	stored, err := env.positions.GetPosition(ctx, "AAPL")
	require.NoError(t, err)
	requireDecimal(t, 6, stored.CurrentQuantity)
}

func TestPositionService_RecalculateAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-01-02", 10, 100))
	require.NoError(t, err)
	_, err = env.transactions.Create(ctx, createRequest("MSFT", "BUY", "2024-01-03", 5, 300))
	require.NoError(t, err)

	summary, err := env.positions.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Recalculated)
	assert.Empty(t, summary.Failures)

	current, err := env.positions.ListCurrentPositions(ctx)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, "AAPL", current[0].Ticker)
	assert.Equal(t, "MSFT", current[1].Ticker)
}

func TestPositionService_RecalculateAllEmptyLedger(t *testing.T) {
	env := newTestEnv(t)

	summary, err := env.positions.RecalculateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Recalculated)
	assert.Empty(t, summary.Failures)
}

func TestPositionService_UpdateMarketData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-01-02", 10, 100))
	require.NoError(t, err)

	resp, err := env.positions.UpdateMarketData(ctx, "AAPL", &dto.UpdateMarketDataRequest{
		CurrentPrice: decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.CurrentMarketValue)
	requireDecimal(t, 1500, *resp.CurrentMarketValue)
	require.NotNil(t, resp.UnrealizedGainLoss)
	requireDecimal(t, 500, *resp.UnrealizedGainLoss)
	require.NotNil(t, resp.LastPriceUpdate)
}

func TestPositionService_MarketDataSurvivesRecalculation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-01-02", 10, 100))
	require.NoError(t, err)
	_, err = env.positions.UpdateMarketData(ctx, "AAPL", &dto.UpdateMarketDataRequest{
		CurrentPrice: decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	// A later ledger write refolds the position; the price must carry over
	// and the derived fields must follow the new quantity.
	_, err = env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-02-02", 10, 200))
	require.NoError(t, err)

	position, err := env.positions.GetPosition(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, position.CurrentPrice)
	requireDecimal(t, 150, *position.CurrentPrice)
	require.NotNil(t, position.CurrentMarketValue)
	requireDecimal(t, 3000, *position.CurrentMarketValue)
	require.NotNil(t, position.UnrealizedGainLoss)
	requireDecimal(t, 0, *position.UnrealizedGainLoss)
}

func TestPositionService_UpdateMarketDataErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.positions.UpdateMarketData(ctx, "GHOST", &dto.UpdateMarketDataRequest{
		CurrentPrice: decimal.NewFromInt(10),
	})
	assert.True(t, errs.IsNotFound(err))

	_, err = env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-01-02", 10, 100))
	require.NoError(t, err)
	_, err = env.positions.UpdateMarketData(ctx, "AAPL", &dto.UpdateMarketDataRequest{
		CurrentPrice: decimal.NewFromInt(-1),
	})
	assert.True(t, errs.IsValidation(err))
}
