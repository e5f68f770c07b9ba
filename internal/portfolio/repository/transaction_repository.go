package repository

import (
	"context"
	"strings"
	"time"

	"golang-portfolio-tracker/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionSearchFilter carries the optional ledger search criteria.
// Quantity bounds compare against the absolute recorded quantity.
type TransactionSearchFilter struct {
	Ticker          string
	StartDate       *time.Time
	EndDate         *time.Time
	TransactionType entity.TransactionType
	MinQuantity     *decimal.Decimal
	MaxQuantity     *decimal.Decimal
	Limit           int
	Offset          int
}

// TransactionRepository defines the ledger store operations.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	Save(ctx context.Context, tx *entity.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// FindByTicker returns the ticker's full history in fold order:
	// transaction date ascending, insertion order breaking ties.
	FindByTicker(ctx context.Context, ticker string) ([]entity.Transaction, error)
	Search(ctx context.Context, filter TransactionSearchFilter) ([]entity.Transaction, error)
	FindAll(ctx context.Context, limit, offset int) ([]entity.Transaction, error)
	DistinctTickers(ctx context.Context) ([]string, error)
}

// NewTransactionRepository creates a new GORM-based ledger repository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

type transactionRepository struct {
	db *gorm.DB
}

// Create inserts a new ledger entry, assigning its id when unset. Ids are
// time-ordered (UUIDv7) so that ordering by id follows insertion order even
// when created_at timestamps collide.
func (r *transactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.Must(uuid.NewV7())
	}
	return r.db.WithContext(ctx).Create(tx).Error
}

// FindByID retrieves a ledger entry by its id.
func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	var tx entity.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// Save persists every field of an existing ledger entry.
func (r *transactionRepository) Save(ctx context.Context, tx *entity.Transaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

// Delete removes a ledger entry, reporting whether a row was affected.
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&entity.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *transactionRepository) FindByTicker(ctx context.Context, ticker string) ([]entity.Transaction, error) {
	var transactions []entity.Transaction
	err := r.db.WithContext(ctx).
		Where("ticker = ?", strings.ToUpper(ticker)).
		Order("transaction_date ASC, created_at ASC, id ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// Search filters the ledger, newest entries first.
func (r *transactionRepository) Search(ctx context.Context, filter TransactionSearchFilter) ([]entity.Transaction, error) {
	qFilter := []string{}
	qFilterParam := []interface{}{}

	if filter.Ticker != "" {
		qFilter = append(qFilter, "ticker = ?")
		qFilterParam = append(qFilterParam, strings.ToUpper(filter.Ticker))
	}
	if filter.StartDate != nil {
		qFilter = append(qFilter, "transaction_date >= ?")
		qFilterParam = append(qFilterParam, *filter.StartDate)
	}
	if filter.EndDate != nil {
		qFilter = append(qFilter, "transaction_date <= ?")
		qFilterParam = append(qFilterParam, *filter.EndDate)
	}
	if filter.TransactionType != "" {
		qFilter = append(qFilter, "transaction_type = ?")
		qFilterParam = append(qFilterParam, string(filter.TransactionType))
	}
	if filter.MinQuantity != nil {
		qFilter = append(qFilter, "ABS(quantity) >= ?")
		qFilterParam = append(qFilterParam, filter.MinQuantity.InexactFloat64())
	}
	if filter.MaxQuantity != nil {
		qFilter = append(qFilter, "ABS(quantity) <= ?")
		qFilterParam = append(qFilterParam, filter.MaxQuantity.InexactFloat64())
	}

	query := r.db.WithContext(ctx).Order("transaction_date DESC, created_at DESC")
	if len(qFilter) > 0 {
		query = query.Where(strings.Join(qFilter, " AND "), qFilterParam...)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var transactions []entity.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// FindAll pages through the whole ledger, newest entries first.
func (r *transactionRepository) FindAll(ctx context.Context, limit, offset int) ([]entity.Transaction, error) {
	query := r.db.WithContext(ctx).Order("transaction_date DESC, created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var transactions []entity.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// DistinctTickers lists every ticker present in the ledger.
func (r *transactionRepository) DistinctTickers(ctx context.Context) ([]string, error) {
	var tickers []string
	err := r.db.WithContext(ctx).
		Model(&entity.Transaction{}).
		Distinct("ticker").
		Order("ticker ASC").
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, err
	}
	return tickers, nil
}
