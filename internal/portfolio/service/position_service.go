package service

import (
	"context"
	"errors"
	"time"

	"golang-portfolio-tracker/internal/entity"
	"golang-portfolio-tracker/internal/portfolio/dto"
	"golang-portfolio-tracker/internal/portfolio/engine"
	"golang-portfolio-tracker/internal/portfolio/repository"
	"golang-portfolio-tracker/pkg/errs"
	"golang-portfolio-tracker/pkg/logger"
	"golang-portfolio-tracker/pkg/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PositionService exposes the derived position snapshots and the
// recalculation entry points.
type PositionService interface {
	GetPosition(ctx context.Context, ticker string) (*dto.PositionResponse, error)
	ListCurrentPositions(ctx context.Context) ([]*dto.PositionResponse, error)
	Recalculate(ctx context.Context, ticker string) (*dto.RecalculatePositionResponse, error)
	RecalculateAll(ctx context.Context) (*dto.RecalculateAllResponse, error)
	UpdateMarketData(ctx context.Context, ticker string, req *dto.UpdateMarketDataRequest) (*dto.PositionResponse, error)
}

// NewPositionService creates a new position service.
func NewPositionService(registry *repository.Registry, logger *logger.Logger) PositionService {
	return &positionService{registry: registry, logger: logger}
}

type positionService struct {
	registry *repository.Registry
	logger   *logger.Logger
}

// GetPosition retrieves the stored snapshot for a ticker.
func (s *positionService) GetPosition(ctx context.Context, ticker string) (*dto.PositionResponse, error) {
	position, err := s.registry.Positions.FindByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("no position for ticker %s", ticker)
		}
		return nil, errs.WrapStorage(err, "failed to load position for %s", ticker)
	}
	return mapPositionResponse(position), nil
}

// ListCurrentPositions returns every open position, ordered by ticker.
// Closed positions are excluded, an empty portfolio is a valid result.
func (s *positionService) ListCurrentPositions(ctx context.Context) ([]*dto.PositionResponse, error) {
	positions, err := s.registry.Positions.FindAllCurrent(ctx)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to list current positions")
	}

	responses := make([]*dto.PositionResponse, 0, len(positions))
	for i := range positions {
		responses = append(responses, mapPositionResponse(&positions[i]))
	}
	return responses, nil
}

// Recalculate refolds the ticker's full history and stores the resulting
// snapshot atomically.
func (s *positionService) Recalculate(ctx context.Context, ticker string) (*dto.RecalculatePositionResponse, error) {
	var (
		position *entity.Position
		warnings []string
	)
	err := s.registry.Atomic(ctx, func(reg *repository.Registry) error {
		var err error
		position, warnings, err = refreshPosition(ctx, reg, ticker, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(warnings) > 0 {
		s.logger.Warn("Recalculation raised integrity warnings",
			logger.StringField("ticker", ticker), logger.Field("warnings", warnings))
	}
	s.logger.Info("Recalculated position", logger.StringField("ticker", position.Ticker))

	return &dto.RecalculatePositionResponse{
		Position: mapPositionResponse(position),
		Warnings: warnings,
	}, nil
}

// RecalculateAll refolds every ticker present in the ledger. Each ticker is
// an independent unit of work; failures are collected, never propagated, so
// one bad history cannot block the rest of the batch.
func (s *positionService) RecalculateAll(ctx context.Context) (*dto.RecalculateAllResponse, error) {
	tickers, err := s.registry.Transactions.DistinctTickers(ctx)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to list ledger tickers")
	}

	summary := &dto.RecalculateAllResponse{}
	for _, ticker := range tickers {
		err := s.registry.Atomic(ctx, func(reg *repository.Registry) error {
			_, _, err := refreshPosition(ctx, reg, ticker, false)
			return err
		})
		if err != nil {
			s.logger.Error("Failed to recalculate position",
				logger.StringField("ticker", ticker), logger.ErrorField(err))
			summary.Failures = append(summary.Failures, dto.RecalculationFailure{
				Ticker: ticker,
				Error:  err.Error(),
			})
			continue
		}
		summary.Recalculated++
	}

	s.logger.Info("Batch recalculation finished",
		logger.IntField("recalculated", summary.Recalculated),
		logger.IntField("failed", len(summary.Failures)))
	return summary, nil
}

// UpdateMarketData stores an externally observed price and refreshes the
// derived market fields. This is a separate commit path from ledger
// mutations; it never holds a ledger transaction open.
func (s *positionService) UpdateMarketData(ctx context.Context, ticker string, req *dto.UpdateMarketDataRequest) (*dto.PositionResponse, error) {
	if req.CurrentPrice.IsNegative() {
		return nil, errs.NewValidation("current_price must not be negative")
	}

	position, err := s.registry.Positions.FindByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("no position for ticker %s", ticker)
		}
		return nil, errs.WrapStorage(err, "failed to load position for %s", ticker)
	}

	observedAt := time.Now()
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}

	price := req.CurrentPrice
	position.CurrentPrice = &price
	position.LastPriceUpdate = &observedAt
	position.RefreshMarketFields()

	if err := s.registry.Positions.Save(ctx, position); err != nil {
		return nil, errs.WrapStorage(err, "failed to store market data for %s", ticker)
	}

	s.logger.Info("Updated market data",
		logger.StringField("ticker", position.Ticker),
		logger.StringField("price", price.String()))
	return mapPositionResponse(position), nil
}

// refreshPosition reloads the ticker's history, folds it, and upserts the
// snapshot through the given (possibly transaction-scoped) registry.
//
// An empty history is an error for explicit recalculation requests; the
// mutation trigger passes allowEmpty so deleting a ticker's last entry
// zeroes the cached position instead of failing.
func refreshPosition(ctx context.Context, reg *repository.Registry, ticker string, allowEmpty bool) (*entity.Position, []string, error) {
	if err := reg.LockTicker(ctx, ticker); err != nil {
		return nil, nil, errs.WrapStorage(err, "failed to lock ticker %s", ticker)
	}

	transactions, err := reg.Transactions.FindByTicker(ctx, ticker)
	if err != nil {
		return nil, nil, errs.WrapStorage(err, "failed to load transactions for %s", ticker)
	}

	existing, err := reg.Positions.FindByTicker(ctx, ticker)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errs.WrapStorage(err, "failed to load position for %s", ticker)
	}

	if len(transactions) == 0 {
		if !allowEmpty {
			return nil, nil, errs.NewNotFound("ticker %s has no transactions", ticker)
		}
		if existing == nil {
			return nil, nil, nil
		}
		existing.CurrentQuantity = decimal.Zero
		existing.AvgCostPerShare = decimal.Zero
		existing.TotalCostBasis = decimal.Zero
		existing.TotalCommissions = decimal.Zero
		existing.FirstPurchaseDate = nil
		existing.LastTransactionDate = nil
		existing.HasIntegrityWarning = false
		existing.RefreshMarketFields()
		if err := reg.Positions.Upsert(ctx, existing); err != nil {
			return nil, nil, errs.WrapStorage(err, "failed to store position for %s", ticker)
		}
		return existing, nil, nil
	}

	snap, err := engine.Recalculate(ticker, transactions)
	if err != nil {
		return nil, nil, errs.WrapStorage(err, "failed to fold transactions for %s", ticker)
	}

	position := &entity.Position{
		Ticker:              snap.Ticker,
		CurrentQuantity:     snap.Quantity,
		AvgCostPerShare:     snap.AvgCostPerShare,
		TotalCostBasis:      snap.CostBasis,
		PrimaryCurrency:     snap.PrimaryCurrency,
		FirstPurchaseDate:   snap.FirstPurchaseDate,
		LastTransactionDate: snap.LastTransactionDate,
		TotalCommissions:    snap.TotalCommissions,
		HasIntegrityWarning: len(snap.Warnings) > 0,
	}
	if existing != nil {
		// Market data survives recalculation; only the fold output changes.
		position.CurrentPrice = existing.CurrentPrice
		position.LastPriceUpdate = existing.LastPriceUpdate
		position.CreatedAt = existing.CreatedAt
	}
	position.RefreshMarketFields()

	if err := reg.Positions.Upsert(ctx, position); err != nil {
		return nil, nil, errs.WrapStorage(err, "failed to store position for %s", ticker)
	}
	return position, snap.Warnings, nil
}

// mapPositionResponse maps an entity.Position to its API representation.
func mapPositionResponse(position *entity.Position) *dto.PositionResponse {
	resp := &dto.PositionResponse{
		Ticker:              position.Ticker,
		CurrentQuantity:     position.CurrentQuantity,
		AvgCostPerShare:     position.AvgCostPerShare,
		TotalCostBasis:      position.TotalCostBasis,
		CurrentPrice:        position.CurrentPrice,
		CurrentMarketValue:  position.CurrentMarketValue,
		UnrealizedGainLoss:  position.UnrealizedGainLoss,
		LastPriceUpdate:     position.LastPriceUpdate,
		PrimaryCurrency:     position.PrimaryCurrency,
		TotalCommissions:    position.TotalCommissions,
		HasIntegrityWarning: position.HasIntegrityWarning,
		UpdatedAt:           position.UpdatedAt,
	}
	if position.FirstPurchaseDate != nil {
		first := utils.FormatDate(*position.FirstPurchaseDate)
		resp.FirstPurchaseDate = &first
	}
	if position.LastTransactionDate != nil {
		last := utils.FormatDate(*position.LastTransactionDate)
		resp.LastTransactionDate = &last
	}
	return resp
}
