package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang-portfolio-tracker/internal/entity"
	"golang-portfolio-tracker/internal/portfolio/dto"
	"golang-portfolio-tracker/internal/portfolio/repository"
	"golang-portfolio-tracker/pkg/errs"
	"golang-portfolio-tracker/pkg/logger"
	redisPkg "golang-portfolio-tracker/pkg/redis"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	redisKeyPortfolioSummary     = "portfolio:summary"
	redisKeyPortfolioPerformance = "portfolio:performance"
)

// PortfolioService provides the read-only rollups over current positions.
// Summary payloads are cached in Redis so multiple service instances share
// one cache; per-ticker analyses use a short in-process TTL cache. Both are
// dropped whenever a ledger mutation touches a ticker.
type PortfolioService interface {
	CacheInvalidator
	Summary(ctx context.Context) (*dto.PortfolioSummaryResponse, error)
	PerformanceMetrics(ctx context.Context) (*dto.PerformanceMetricsResponse, error)
	CurrencyBreakdown(ctx context.Context) (*dto.CurrencyBreakdownResponse, error)
	TickerAnalysis(ctx context.Context, ticker string) (*dto.TickerAnalysisResponse, error)
}

// NewPortfolioService creates a new aggregator service. The Redis client is
// optional; without it only the in-process cache is used.
func NewPortfolioService(registry *repository.Registry, logger *logger.Logger, redisClient *redisPkg.Client, summaryTTL, analysisTTL time.Duration) PortfolioService {
	return &portfolioService{
		registry:      registry,
		logger:        logger,
		redisClient:   redisClient,
		summaryTTL:    summaryTTL,
		analysisCache: cache.New(analysisTTL, 2*analysisTTL),
	}
}

type portfolioService struct {
	registry      *repository.Registry
	logger        *logger.Logger
	redisClient   *redisPkg.Client
	summaryTTL    time.Duration
	analysisCache *cache.Cache
}

// Summary returns the headline totals over open positions. An empty
// portfolio yields zeros, not an error.
func (s *portfolioService) Summary(ctx context.Context) (*dto.PortfolioSummaryResponse, error) {
	var cached dto.PortfolioSummaryResponse
	if s.cacheGet(ctx, redisKeyPortfolioSummary, &cached) {
		return &cached, nil
	}

	row, err := s.registry.Positions.Summary(ctx)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to aggregate portfolio summary")
	}

	resp := &dto.PortfolioSummaryResponse{
		TotalPositions:     row.TotalPositions,
		TotalMarketValue:   row.TotalMarketValue,
		TotalCostBasis:     row.TotalCostBasis,
		TotalUnrealizedPnL: row.TotalUnrealizedPnL,
	}
	s.cacheSet(ctx, redisKeyPortfolioSummary, resp)
	return resp, nil
}

// PerformanceMetrics returns win/loss statistics over open positions.
// Division-by-zero cases (no invested capital, no positions) yield 0%.
func (s *portfolioService) PerformanceMetrics(ctx context.Context) (*dto.PerformanceMetricsResponse, error) {
	var cached dto.PerformanceMetricsResponse
	if s.cacheGet(ctx, redisKeyPortfolioPerformance, &cached) {
		return &cached, nil
	}

	row, err := s.registry.Positions.PerformanceMetrics(ctx)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to aggregate performance metrics")
	}

	resp := &dto.PerformanceMetricsResponse{
		TotalPositions:   row.TotalPositions,
		WinningPositions: row.WinningPositions,
		LosingPositions:  row.LosingPositions,
		TotalMarketValue: row.TotalMarketValue,
		TotalInvested:    row.TotalInvested,
		AvgUnrealizedPnL: row.AvgUnrealizedPnL,
		BestPerformer:    row.BestPerformer,
		WorstPerformer:   row.WorstPerformer,
	}
	if row.TotalPositions > 0 {
		resp.WinRate = float64(row.WinningPositions) / float64(row.TotalPositions) * 100
	}
	if row.TotalInvested.IsPositive() {
		resp.TotalReturnPercentage = row.TotalMarketValue.Sub(row.TotalInvested).
			Div(row.TotalInvested).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	s.cacheSet(ctx, redisKeyPortfolioPerformance, resp)
	return resp, nil
}

// CurrencyBreakdown groups open positions by primary currency, largest
// market value first.
func (s *portfolioService) CurrencyBreakdown(ctx context.Context) (*dto.CurrencyBreakdownResponse, error) {
	rows, err := s.registry.Positions.CurrencyBreakdown(ctx)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to aggregate currency breakdown")
	}

	resp := &dto.CurrencyBreakdownResponse{Currencies: make([]dto.CurrencyBreakdownEntry, 0, len(rows))}
	for _, row := range rows {
		resp.Currencies = append(resp.Currencies, dto.CurrencyBreakdownEntry{
			Currency:           row.PrimaryCurrency,
			PositionsCount:     row.PositionsCount,
			TotalMarketValue:   row.TotalMarketValue,
			TotalCostBasis:     row.TotalCostBasis,
			TotalUnrealizedPnL: row.TotalUnrealizedPnL,
		})
	}
	return resp, nil
}

// TickerAnalysis joins the ticker's position, full history and derived
// counters. The result is cached briefly in process.
func (s *portfolioService) TickerAnalysis(ctx context.Context, ticker string) (*dto.TickerAnalysisResponse, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, errs.NewValidation("ticker must not be empty")
	}

	if cached, ok := s.analysisCache.Get(ticker); ok {
		return cached.(*dto.TickerAnalysisResponse), nil
	}

	transactions, err := s.registry.Transactions.FindByTicker(ctx, ticker)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to load transactions for %s", ticker)
	}

	position, err := s.registry.Positions.FindByTicker(ctx, ticker)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.WrapStorage(err, "failed to load position for %s", ticker)
	}
	if len(transactions) == 0 && position == nil {
		return nil, errs.NewNotFound("ticker %s not found", ticker)
	}

	metrics := dto.TickerMetrics{
		TotalBought:       decimal.Zero,
		TotalSold:         decimal.Zero,
		TotalTransactions: len(transactions),
	}
	for i := range transactions {
		switch transactions[i].TransactionType {
		case entity.TransactionTypeBuy:
			metrics.TotalBought = metrics.TotalBought.Add(transactions[i].Quantity)
		case entity.TransactionTypeSell:
			metrics.TotalSold = metrics.TotalSold.Add(transactions[i].Quantity)
		}
	}
	metrics.NetQuantity = metrics.TotalBought.Sub(metrics.TotalSold)

	resp := &dto.TickerAnalysisResponse{
		Ticker:       ticker,
		Transactions: mapTransactionResponses(transactions),
		Metrics:      metrics,
	}
	if position != nil {
		resp.Position = mapPositionResponse(position)
	}

	s.analysisCache.SetDefault(ticker, resp)
	return resp, nil
}

// InvalidateTicker drops the caches touched by a mutation of the ticker.
func (s *portfolioService) InvalidateTicker(ctx context.Context, ticker string) {
	s.analysisCache.Delete(strings.ToUpper(strings.TrimSpace(ticker)))
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Client.Del(ctx, redisKeyPortfolioSummary, redisKeyPortfolioPerformance).Err(); err != nil {
		s.logger.Error("Failed to invalidate portfolio cache", logger.ErrorField(err))
	}
}

func (s *portfolioService) cacheGet(ctx context.Context, key string, target interface{}) bool {
	if s.redisClient == nil {
		return false
	}
	payload, err := s.redisClient.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(payload, target); err != nil {
		s.logger.Warn("Failed to decode cached payload", logger.StringField("key", key), logger.ErrorField(err))
		return false
	}
	return true
}

func (s *portfolioService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.redisClient == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redisClient.Client.Set(ctx, key, payload, s.summaryTTL).Err(); err != nil {
		s.logger.Warn("Failed to cache payload", logger.StringField("key", key), logger.ErrorField(err))
	}
}
