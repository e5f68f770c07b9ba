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

func TestPortfolioService_EmptyStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary, err := env.portfolio.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalPositions)
	requireDecimal(t, 0, summary.TotalMarketValue)
	requireDecimal(t, 0, summary.TotalUnrealizedPnL)

	metrics, err := env.portfolio.PerformanceMetrics(ctx)
	require.NoError(t, err)
	assert.Zero(t, metrics.WinRate, "no positions must not divide by zero")
	assert.Zero(t, metrics.TotalReturnPercentage)

	breakdown, err := env.portfolio.CurrencyBreakdown(ctx)
	require.NoError(t, err)
	assert.Empty(t, breakdown.Currencies)
}

func TestPortfolioService_Metrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// AAPL: basis 1000, priced at 150 -> market value 1500, a winner.
	_, err := env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-01-02", 10, 100))
	require.NoError(t, err)
	_, err = env.positions.UpdateMarketData(ctx, "AAPL", &dto.UpdateMarketDataRequest{
		CurrentPrice: decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	// MSFT: basis 2000, priced at 320 -> market value 1600, a loser.
	_, err = env.transactions.Create(ctx, createRequest("MSFT", "BUY", "2024-01-03", 5, 400))
	require.NoError(t, err)
	_, err = env.positions.UpdateMarketData(ctx, "MSFT", &dto.UpdateMarketDataRequest{
		CurrentPrice: decimal.NewFromInt(320),
	})
	require.NoError(t, err)

	summary, err := env.portfolio.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalPositions)
	requireDecimal(t, 3100, summary.TotalMarketValue)
	requireDecimal(t, 3000, summary.TotalCostBasis)
	requireDecimal(t, 100, summary.TotalUnrealizedPnL)

	metrics, err := env.portfolio.PerformanceMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.WinningPositions)
	assert.Equal(t, 1, metrics.LosingPositions)
	assert.InDelta(t, 50.0, metrics.WinRate, 1e-9)
	assert.InDelta(t, 100.0/3000.0*100, metrics.TotalReturnPercentage, 1e-9)
	requireDecimal(t, 500, metrics.BestPerformer)
	requireDecimal(t, -400, metrics.WorstPerformer)
}

func TestPortfolioService_CurrencyBreakdown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	usd := createRequest("AAPL", "BUY", "2024-01-02", 10, 100)
	_, err := env.transactions.Create(ctx, usd)
	require.NoError(t, err)

	eur := createRequest("SAP", "BUY", "2024-01-02", 4, 200)
	eur.Currency = "EUR"
	_, err = env.transactions.Create(ctx, eur)
	require.NoError(t, err)

	for ticker, price := range map[string]int64{"AAPL": 150, "SAP": 250} {
		_, err := env.positions.UpdateMarketData(ctx, ticker, &dto.UpdateMarketDataRequest{
			CurrentPrice: decimal.NewFromInt(price),
		})
		require.NoError(t, err)
	}

	breakdown, err := env.portfolio.CurrencyBreakdown(ctx)
	require.NoError(t, err)
	require.Len(t, breakdown.Currencies, 2)
	assert.Equal(t, "USD", breakdown.Currencies[0].Currency, "largest market value first")
	requireDecimal(t, 1500, breakdown.Currencies[0].TotalMarketValue)
	assert.Equal(t, "EUR", breakdown.Currencies[1].Currency)
	requireDecimal(t, 1000, breakdown.Currencies[1].TotalMarketValue)
}

func TestPortfolioService_TickerAnalysis(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-01-02", 10, 100))
	require.NoError(t, err)
	_, err = env.transactions.Create(ctx, createRequest("AAPL", "SELL", "2024-02-02", 3, 120))
	require.NoError(t, err)

	analysis, err := env.portfolio.TickerAnalysis(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", analysis.Ticker)
	assert.Equal(t, 2, analysis.Metrics.TotalTransactions)
	requireDecimal(t, 10, analysis.Metrics.TotalBought)
	requireDecimal(t, 3, analysis.Metrics.TotalSold)
	requireDecimal(t, 7, analysis.Metrics.NetQuantity)
	require.NotNil(t, analysis.Position)
	requireDecimal(t, 7, analysis.Position.CurrentQuantity)
	assert.Len(t, analysis.Transactions, 2)

	_, err = env.portfolio.TickerAnalysis(ctx, "GHOST")
	assert.True(t, errs.IsNotFound(err))

	_, err = env.portfolio.TickerAnalysis(ctx, "  ")
	assert.True(t, errs.IsValidation(err))
}

func TestPortfolioService_AnalysisCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-01-02", 10, 100))
	require.NoError(t, err)

	analysis, err := env.portfolio.TickerAnalysis(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.Metrics.TotalTransactions)

	// The mutation path invalidates the ticker's analysis, so the next read
	// must see the fresh history instead of the cached one.
	_, err = env.transactions.Create(ctx, createRequest("AAPL", "BUY", "2024-02-02", 5, 110))
	require.NoError(t, err)

	analysis, err = env.portfolio.TickerAnalysis(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.Metrics.TotalTransactions)
	requireDecimal(t, 15, analysis.Metrics.TotalBought)
}
