package service

import (
	"fmt"
	"testing"
	"time"

	"golang-portfolio-tracker/internal/entity"
	"golang-portfolio-tracker/internal/portfolio/dto"
	"golang-portfolio-tracker/internal/portfolio/repository"
	"golang-portfolio-tracker/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stubNotifier records integrity alerts instead of calling Telegram.
type stubNotifier struct {
	alerts map[string][]string
}

func (s *stubNotifier) SendMessage(string) error { return nil }

func (s *stubNotifier) SendIntegrityAlert(ticker string, warnings []string) error {
	s.alerts[ticker] = append(s.alerts[ticker], warnings...)
	return nil
}

type testEnv struct {
	registry     *repository.Registry
	transactions TransactionService
	positions    PositionService
	portfolio    PortfolioService
	notifier     *stubNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Transaction{}, &entity.Position{}))

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	registry := repository.NewRegistry(db)
	notifier := &stubNotifier{alerts: make(map[string][]string)}
	portfolioSvc := NewPortfolioService(registry, log, nil, time.Minute, time.Minute)
	return &testEnv{
		registry:     registry,
		transactions: NewTransactionService(registry, log, notifier, portfolioSvc),
		positions:    NewPositionService(registry, log),
		portfolio:    portfolioSvc,
		notifier:     notifier,
	}
}

func createRequest(ticker, txType, day string, quantity, price float64) *dto.CreateTransactionRequest {
	return &dto.CreateTransactionRequest{
		Ticker:          ticker,
		TransactionType: txType,
		Quantity:        decimal.NewFromFloat(quantity),
		CostPerShare:    decimal.NewFromFloat(price),
		Currency:        "USD",
		TransactionDate: day,
	}
}

func requireDecimal(t *testing.T, want float64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromFloat(want)), "want %v, got %s", want, got)
}
