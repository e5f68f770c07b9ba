package repository

import (
	"context"
	"strings"
	"time"

	"golang-portfolio-tracker/internal/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PortfolioSummaryRow is the aggregate rollup over current positions.
type PortfolioSummaryRow struct {
	TotalPositions     int             `gorm:"column:total_positions"`
	TotalMarketValue   decimal.Decimal `gorm:"column:total_market_value"`
	TotalCostBasis     decimal.Decimal `gorm:"column:total_cost_basis"`
	TotalUnrealizedPnL decimal.Decimal `gorm:"column:total_unrealized_pnl"`
}

// PerformanceMetricsRow extends the summary with win/loss aggregates.
type PerformanceMetricsRow struct {
	TotalPositions   int             `gorm:"column:total_positions"`
	WinningPositions int             `gorm:"column:winning_positions"`
	LosingPositions  int             `gorm:"column:losing_positions"`
	TotalMarketValue decimal.Decimal `gorm:"column:total_market_value"`
	TotalInvested    decimal.Decimal `gorm:"column:total_invested"`
	AvgUnrealizedPnL decimal.Decimal `gorm:"column:avg_unrealized_pnl"`
	BestPerformer    decimal.Decimal `gorm:"column:best_performer"`
	WorstPerformer   decimal.Decimal `gorm:"column:worst_performer"`
}

// CurrencyBreakdownRow is the per-currency rollup over current positions.
type CurrencyBreakdownRow struct {
	PrimaryCurrency    string          `gorm:"column:primary_currency"`
	PositionsCount     int             `gorm:"column:positions_count"`
	TotalMarketValue   decimal.Decimal `gorm:"column:total_market_value"`
	TotalCostBasis     decimal.Decimal `gorm:"column:total_cost_basis"`
	TotalUnrealizedPnL decimal.Decimal `gorm:"column:total_unrealized_pnl"`
}

// PositionRepository defines the position store operations. Aggregates only
// consider positions with a positive quantity; closed positions stay stored
// but are filtered from every current view.
type PositionRepository interface {
	FindByTicker(ctx context.Context, ticker string) (*entity.Position, error)
	FindAllCurrent(ctx context.Context) ([]entity.Position, error)
	Upsert(ctx context.Context, position *entity.Position) error
	Save(ctx context.Context, position *entity.Position) error
	Summary(ctx context.Context) (*PortfolioSummaryRow, error)
	PerformanceMetrics(ctx context.Context) (*PerformanceMetricsRow, error)
	CurrencyBreakdown(ctx context.Context) ([]CurrencyBreakdownRow, error)
}

// NewPositionRepository creates a new GORM-based position repository.
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

type positionRepository struct {
	db *gorm.DB
}

func (r *positionRepository) FindByTicker(ctx context.Context, ticker string) (*entity.Position, error) {
	var position entity.Position
	if err := r.db.WithContext(ctx).First(&position, "ticker = ?", strings.ToUpper(ticker)).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *positionRepository) FindAllCurrent(ctx context.Context) ([]entity.Position, error) {
	var positions []entity.Position
	err := r.db.WithContext(ctx).
		Where("current_quantity > 0").
		Order("ticker ASC").
		Find(&positions).Error
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// Upsert inserts or replaces the snapshot for a ticker, leaving created_at
// untouched on conflict.
func (r *positionRepository) Upsert(ctx context.Context, position *entity.Position) error {
	position.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_quantity", "avg_cost_per_share", "total_cost_basis",
			"current_price", "current_market_value", "unrealized_gain_loss",
			"last_price_update", "primary_currency", "first_purchase_date",
			"last_transaction_date", "total_commissions",
			"has_integrity_warning", "updated_at",
		}),
	}).Create(position).Error
}

// Save persists every field of an existing position row.
func (r *positionRepository) Save(ctx context.Context, position *entity.Position) error {
	return r.db.WithContext(ctx).Save(position).Error
}

func (r *positionRepository) Summary(ctx context.Context) (*PortfolioSummaryRow, error) {
	var row PortfolioSummaryRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_positions,
			COALESCE(SUM(current_quantity * current_price), 0) AS total_market_value,
			COALESCE(SUM(total_cost_basis), 0) AS total_cost_basis,
			COALESCE(SUM(unrealized_gain_loss), 0) AS total_unrealized_pnl
		FROM positions
		WHERE current_quantity > 0`).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *positionRepository) PerformanceMetrics(ctx context.Context) (*PerformanceMetricsRow, error) {
	var row PerformanceMetricsRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_positions,
			COUNT(CASE WHEN unrealized_gain_loss > 0 THEN 1 END) AS winning_positions,
			COUNT(CASE WHEN unrealized_gain_loss < 0 THEN 1 END) AS losing_positions,
			COALESCE(SUM(current_quantity * current_price), 0) AS total_market_value,
			COALESCE(SUM(total_cost_basis), 0) AS total_invested,
			COALESCE(AVG(unrealized_gain_loss), 0) AS avg_unrealized_pnl,
			COALESCE(MAX(unrealized_gain_loss), 0) AS best_performer,
			COALESCE(MIN(unrealized_gain_loss), 0) AS worst_performer
		FROM positions
		WHERE current_quantity > 0`).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *positionRepository) CurrencyBreakdown(ctx context.Context) ([]CurrencyBreakdownRow, error) {
	var rows []CurrencyBreakdownRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			primary_currency,
			COUNT(*) AS positions_count,
			COALESCE(SUM(current_quantity * current_price), 0) AS total_market_value,
			COALESCE(SUM(total_cost_basis), 0) AS total_cost_basis,
			COALESCE(SUM(unrealized_gain_loss), 0) AS total_unrealized_pnl
		FROM positions
		WHERE current_quantity > 0
		GROUP BY primary_currency
		ORDER BY total_market_value DESC`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
