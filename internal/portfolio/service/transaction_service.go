package service

import (
	"context"
	"errors"
	"strings"

	"golang-portfolio-tracker/internal/entity"
	"golang-portfolio-tracker/internal/portfolio/dto"
	"golang-portfolio-tracker/internal/portfolio/repository"
	"golang-portfolio-tracker/pkg/errs"
	"golang-portfolio-tracker/pkg/logger"
	"golang-portfolio-tracker/pkg/telegram"
	"golang-portfolio-tracker/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CacheInvalidator drops derived-read caches after a ledger mutation.
type CacheInvalidator interface {
	InvalidateTicker(ctx context.Context, ticker string)
}

// TransactionService manages the transaction ledger. Every mutation commits
// together with the recalculated position of the affected ticker: either
// both are durably visible or neither is.
type TransactionService interface {
	Create(ctx context.Context, req *dto.CreateTransactionRequest) (*dto.CreateTransactionResponse, error)
	BulkCreate(ctx context.Context, req *dto.BulkCreateTransactionsRequest) (*dto.BulkCreateTransactionsResponse, error)
	Get(ctx context.Context, id string) (*dto.TransactionResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTransactionRequest) (*dto.CreateTransactionResponse, error)
	Delete(ctx context.Context, id string) error
	ListByTicker(ctx context.Context, ticker string) ([]*dto.TransactionResponse, error)
	Search(ctx context.Context, req *dto.SearchTransactionsRequest) ([]*dto.TransactionResponse, error)
	DistinctTickers(ctx context.Context) ([]string, error)
}

// NewTransactionService creates a new ledger service. The notifier and the
// invalidator are optional.
func NewTransactionService(registry *repository.Registry, logger *logger.Logger, notifier telegram.Notifier, invalidator CacheInvalidator) TransactionService {
	return &transactionService{
		registry:    registry,
		logger:      logger,
		notifier:    notifier,
		invalidator: invalidator,
	}
}

type transactionService struct {
	registry    *repository.Registry
	logger      *logger.Logger
	notifier    telegram.Notifier
	invalidator CacheInvalidator
}

// Create validates and records a ledger entry, then recalculates the
// affected ticker's position in the same unit of work.
func (s *transactionService) Create(ctx context.Context, req *dto.CreateTransactionRequest) (*dto.CreateTransactionResponse, error) {
	tx, err := buildTransaction(req)
	if err != nil {
		return nil, err
	}

	var warnings []string
	err = s.registry.Atomic(ctx, func(reg *repository.Registry) error {
		if err := reg.Transactions.Create(ctx, tx); err != nil {
			return errs.WrapStorage(err, "failed to create transaction")
		}
		_, w, err := refreshPosition(ctx, reg, tx.Ticker, true)
		warnings = w
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created transaction",
		logger.StringField("transaction_id", tx.ID.String()),
		logger.StringField("ticker", tx.Ticker),
		logger.StringField("type", string(tx.TransactionType)),
		logger.StringField("effective_shares", tx.EffectiveShares().String()))
	s.afterMutation(ctx, tx.Ticker, warnings)

	return &dto.CreateTransactionResponse{
		Transaction: mapTransactionResponse(tx),
		Warnings:    warnings,
	}, nil
}

// BulkCreate records several entries in one call. Rows failing validation
// are reported individually and do not block the rest; the surviving rows
// and their position refreshes commit as one unit.
func (s *transactionService) BulkCreate(ctx context.Context, req *dto.BulkCreateTransactionsRequest) (*dto.BulkCreateTransactionsResponse, error) {
	if len(req.Transactions) == 0 {
		return nil, errs.NewValidation("transactions must not be empty")
	}

	resp := &dto.BulkCreateTransactionsResponse{}
	valid := make([]*entity.Transaction, 0, len(req.Transactions))
	for i := range req.Transactions {
		tx, err := buildTransaction(&req.Transactions[i])
		if err != nil {
			resp.Failures = append(resp.Failures, dto.BulkCreateFailure{Index: i, Error: err.Error()})
			continue
		}
		valid = append(valid, tx)
	}
	if len(valid) == 0 {
		return resp, nil
	}

	warningsByTicker := make(map[string][]string)
	err := s.registry.Atomic(ctx, func(reg *repository.Registry) error {
		tickers := make(map[string]struct{})
		for _, tx := range valid {
			if err := reg.Transactions.Create(ctx, tx); err != nil {
				return errs.WrapStorage(err, "failed to create transaction for %s", tx.Ticker)
			}
			tickers[tx.Ticker] = struct{}{}
		}
		for ticker := range tickers {
			_, warnings, err := refreshPosition(ctx, reg, ticker, true)
			if err != nil {
				return err
			}
			if len(warnings) > 0 {
				warningsByTicker[ticker] = warnings
			}
			resp.Warnings = append(resp.Warnings, warnings...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	affected := make(map[string]struct{})
	for _, tx := range valid {
		resp.CreatedIDs = append(resp.CreatedIDs, tx.ID.String())
		affected[tx.Ticker] = struct{}{}
	}
	for ticker := range affected {
		s.afterMutation(ctx, ticker, warningsByTicker[ticker])
	}

	s.logger.Info("Bulk created transactions",
		logger.IntField("created", len(resp.CreatedIDs)),
		logger.IntField("failed", len(resp.Failures)))
	return resp, nil
}

// Get retrieves a ledger entry by id.
func (s *transactionService) Get(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, errs.NewValidation("invalid transaction id %q", id)
	}

	tx, err := s.registry.Transactions.FindByID(ctx, txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("transaction %s not found", id)
		}
		return nil, errs.WrapStorage(err, "failed to load transaction %s", id)
	}
	return mapTransactionResponse(tx), nil
}

// Update applies a partial-field correction. When the correction moves the
// entry to another ticker, both the old and the new ticker are recalculated
// in the same unit of work.
func (s *transactionService) Update(ctx context.Context, id string, req *dto.UpdateTransactionRequest) (*dto.CreateTransactionResponse, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, errs.NewValidation("invalid transaction id %q", id)
	}

	var (
		updated    *entity.Transaction
		warnings   []string
		prevTicker string
	)
	err = s.registry.Atomic(ctx, func(reg *repository.Registry) error {
		tx, err := reg.Transactions.FindByID(ctx, txID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewNotFound("transaction %s not found", id)
			}
			return errs.WrapStorage(err, "failed to load transaction %s", id)
		}
		prevTicker = tx.Ticker

		if err := applyTransactionUpdate(tx, req); err != nil {
			return err
		}
		if err := reg.Transactions.Save(ctx, tx); err != nil {
			return errs.WrapStorage(err, "failed to update transaction %s", id)
		}

		if prevTicker != tx.Ticker {
			if _, _, err := refreshPosition(ctx, reg, prevTicker, true); err != nil {
				return err
			}
		}
		_, w, err := refreshPosition(ctx, reg, tx.Ticker, true)
		warnings = w
		updated = tx
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updated transaction",
		logger.StringField("transaction_id", id),
		logger.StringField("ticker", updated.Ticker))
	if prevTicker != updated.Ticker {
		s.afterMutation(ctx, prevTicker, nil)
	}
	s.afterMutation(ctx, updated.Ticker, warnings)

	return &dto.CreateTransactionResponse{
		Transaction: mapTransactionResponse(updated),
		Warnings:    warnings,
	}, nil
}

// Delete removes a ledger entry and recalculates its ticker in the same
// unit of work.
func (s *transactionService) Delete(ctx context.Context, id string) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return errs.NewValidation("invalid transaction id %q", id)
	}

	var ticker string
	err = s.registry.Atomic(ctx, func(reg *repository.Registry) error {
		tx, err := reg.Transactions.FindByID(ctx, txID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewNotFound("transaction %s not found", id)
			}
			return errs.WrapStorage(err, "failed to load transaction %s", id)
		}
		ticker = tx.Ticker

		applied, err := reg.Transactions.Delete(ctx, txID)
		if err != nil {
			return errs.WrapStorage(err, "failed to delete transaction %s", id)
		}
		if !applied {
			return errs.NewNotFound("transaction %s not found", id)
		}
		_, _, err = refreshPosition(ctx, reg, ticker, true)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Deleted transaction",
		logger.StringField("transaction_id", id),
		logger.StringField("ticker", ticker))
	s.afterMutation(ctx, ticker, nil)
	return nil
}

// ListByTicker returns the ticker's full history in chronological order.
func (s *transactionService) ListByTicker(ctx context.Context, ticker string) ([]*dto.TransactionResponse, error) {
	if strings.TrimSpace(ticker) == "" {
		return nil, errs.NewValidation("ticker must not be empty")
	}

	transactions, err := s.registry.Transactions.FindByTicker(ctx, ticker)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to list transactions for %s", ticker)
	}
	return mapTransactionResponses(transactions), nil
}

// Search filters the ledger with the optional criteria.
func (s *transactionService) Search(ctx context.Context, req *dto.SearchTransactionsRequest) ([]*dto.TransactionResponse, error) {
	filter, err := buildSearchFilter(req)
	if err != nil {
		return nil, err
	}

	transactions, err := s.registry.Transactions.Search(ctx, *filter)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to search transactions")
	}
	return mapTransactionResponses(transactions), nil
}

// DistinctTickers lists every ticker present in the ledger.
func (s *transactionService) DistinctTickers(ctx context.Context) ([]string, error) {
	tickers, err := s.registry.Transactions.DistinctTickers(ctx)
	if err != nil {
		return nil, errs.WrapStorage(err, "failed to list tickers")
	}
	return tickers, nil
}

// afterMutation runs the post-commit side effects: cache invalidation and
// integrity alerting. Both are best-effort.
func (s *transactionService) afterMutation(ctx context.Context, ticker string, warnings []string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateTicker(ctx, ticker)
	}
	if len(warnings) > 0 {
		s.logger.Warn("Ledger mutation raised integrity warnings",
			logger.StringField("ticker", ticker), logger.Field("warnings", warnings))
		if s.notifier != nil {
			if err := s.notifier.SendIntegrityAlert(ticker, warnings); err != nil {
				s.logger.Error("Failed to send integrity alert", logger.ErrorField(err))
			}
		}
	}
}

func buildTransaction(req *dto.CreateTransactionRequest) (*entity.Transaction, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return nil, errs.NewValidation("ticker must not be empty")
	}

	txType := entity.TransactionType(strings.ToUpper(strings.TrimSpace(req.TransactionType)))
	if !txType.Valid() {
		return nil, errs.NewValidation("unknown transaction type %q", req.TransactionType)
	}

	if req.Quantity.IsNegative() {
		return nil, errs.NewValidation("quantity must not be negative")
	}
	if req.CostPerShare.IsNegative() {
		return nil, errs.NewValidation("cost_per_share must not be negative")
	}
	if req.Commission.IsNegative() {
		return nil, errs.NewValidation("commission must not be negative")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, errs.NewValidation("currency must not be empty")
	}

	txDate, err := utils.ParseDate(req.TransactionDate)
	if err != nil {
		return nil, errs.NewValidation("invalid transaction_date %q, expected YYYY-MM-DD", req.TransactionDate)
	}

	multiplier := decimal.NewFromInt(1)
	if req.FractionalMultiplier != nil {
		multiplier = *req.FractionalMultiplier
		if !multiplier.IsPositive() {
			return nil, errs.NewValidation("fractional_multiplier must be positive")
		}
	}

	tx := &entity.Transaction{
		ID:                   uuid.Must(uuid.NewV7()),
		Ticker:               ticker,
		TransactionType:      txType,
		Quantity:             req.Quantity,
		CostPerShare:         req.CostPerShare,
		Currency:             currency,
		TransactionDate:      txDate,
		Commission:           req.Commission,
		DripConfirmed:        req.DripConfirmed,
		IsFractional:         req.IsFractional,
		FractionalMultiplier: multiplier,
		Notes:                req.Notes,
	}
	if req.CommissionCurrency != nil {
		cc := strings.ToUpper(strings.TrimSpace(*req.CommissionCurrency))
		tx.CommissionCurrency = &cc
	}
	if len(req.Metadata) > 0 {
		tx.Metadata = datatypes.JSON(req.Metadata)
	}
	return tx, nil
}

func applyTransactionUpdate(tx *entity.Transaction, req *dto.UpdateTransactionRequest) error {
	if req.Ticker != nil {
		ticker := strings.ToUpper(strings.TrimSpace(*req.Ticker))
		if ticker == "" {
			return errs.NewValidation("ticker must not be empty")
		}
		tx.Ticker = ticker
	}
	if req.TransactionType != nil {
		txType := entity.TransactionType(strings.ToUpper(strings.TrimSpace(*req.TransactionType)))
		if !txType.Valid() {
			return errs.NewValidation("unknown transaction type %q", *req.TransactionType)
		}
		tx.TransactionType = txType
	}
	if req.Quantity != nil {
		if req.Quantity.IsNegative() {
			return errs.NewValidation("quantity must not be negative")
		}
		tx.Quantity = *req.Quantity
	}
	if req.CostPerShare != nil {
		if req.CostPerShare.IsNegative() {
			return errs.NewValidation("cost_per_share must not be negative")
		}
		tx.CostPerShare = *req.CostPerShare
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if currency == "" {
			return errs.NewValidation("currency must not be empty")
		}
		tx.Currency = currency
	}
	if req.TransactionDate != nil {
		txDate, err := utils.ParseDate(*req.TransactionDate)
		if err != nil {
			return errs.NewValidation("invalid transaction_date %q, expected YYYY-MM-DD", *req.TransactionDate)
		}
		tx.TransactionDate = txDate
	}
	if req.Commission != nil {
		if req.Commission.IsNegative() {
			return errs.NewValidation("commission must not be negative")
		}
		tx.Commission = *req.Commission
	}
	if req.CommissionCurrency != nil {
		cc := strings.ToUpper(strings.TrimSpace(*req.CommissionCurrency))
		tx.CommissionCurrency = &cc
	}
	if req.DripConfirmed != nil {
		tx.DripConfirmed = *req.DripConfirmed
	}
	if req.IsFractional != nil {
		tx.IsFractional = *req.IsFractional
	}
	if req.FractionalMultiplier != nil {
		if !req.FractionalMultiplier.IsPositive() {
			return errs.NewValidation("fractional_multiplier must be positive")
		}
		tx.FractionalMultiplier = *req.FractionalMultiplier
	}
	if req.Notes != nil {
		tx.Notes = *req.Notes
	}
	if len(req.Metadata) > 0 {
		tx.Metadata = datatypes.JSON(req.Metadata)
	}
	return nil
}

func buildSearchFilter(req *dto.SearchTransactionsRequest) (*repository.TransactionSearchFilter, error) {
	filter := &repository.TransactionSearchFilter{
		Ticker: strings.TrimSpace(req.Ticker),
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	if req.StartDate != "" {
		start, err := utils.ParseDate(req.StartDate)
		if err != nil {
			return nil, errs.NewValidation("invalid start_date %q, expected YYYY-MM-DD", req.StartDate)
		}
		filter.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := utils.ParseDate(req.EndDate)
		if err != nil {
			return nil, errs.NewValidation("invalid end_date %q, expected YYYY-MM-DD", req.EndDate)
		}
		filter.EndDate = &end
	}
	if req.TransactionType != "" {
		txType := entity.TransactionType(strings.ToUpper(strings.TrimSpace(req.TransactionType)))
		if !txType.Valid() {
			return nil, errs.NewValidation("unknown transaction type %q", req.TransactionType)
		}
		filter.TransactionType = txType
	}
	if req.MinQuantity != "" {
		min, err := decimal.NewFromString(req.MinQuantity)
		if err != nil {
			return nil, errs.NewValidation("invalid min_quantity %q", req.MinQuantity)
		}
		filter.MinQuantity = &min
	}
	if req.MaxQuantity != "" {
		max, err := decimal.NewFromString(req.MaxQuantity)
		if err != nil {
			return nil, errs.NewValidation("invalid max_quantity %q", req.MaxQuantity)
		}
		filter.MaxQuantity = &max
	}
	return filter, nil
}

// mapTransactionResponse maps an entity.Transaction to its API
// representation.
func mapTransactionResponse(tx *entity.Transaction) *dto.TransactionResponse {
	resp := &dto.TransactionResponse{
		ID:                   tx.ID.String(),
		Ticker:               tx.Ticker,
		TransactionType:      string(tx.TransactionType),
		Quantity:             tx.Quantity,
		CostPerShare:         tx.CostPerShare,
		Currency:             tx.Currency,
		TransactionDate:      utils.FormatDate(tx.TransactionDate),
		Commission:           tx.Commission,
		CommissionCurrency:   tx.CommissionCurrency,
		DripConfirmed:        tx.DripConfirmed,
		IsFractional:         tx.IsFractional,
		FractionalMultiplier: tx.FractionalMultiplier,
		EffectiveShares:      tx.EffectiveShares(),
		Notes:                tx.Notes,
		CreatedAt:            tx.CreatedAt,
		UpdatedAt:            tx.UpdatedAt,
	}
	if len(tx.Metadata) > 0 {
		resp.Metadata = append([]byte(nil), tx.Metadata...)
	}
	return resp
}

func mapTransactionResponses(transactions []entity.Transaction) []*dto.TransactionResponse {
	responses := make([]*dto.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, mapTransactionResponse(&transactions[i]))
	}
	return responses
}
