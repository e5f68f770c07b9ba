package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-portfolio-tracker/internal/portfolio/config"
	delivery "golang-portfolio-tracker/internal/portfolio/delivery/http"
	"golang-portfolio-tracker/internal/portfolio/repository"
	"golang-portfolio-tracker/internal/portfolio/service"
	"golang-portfolio-tracker/pkg/logger"
	"golang-portfolio-tracker/pkg/postgres"
	"golang-portfolio-tracker/pkg/redis"
	"golang-portfolio-tracker/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the portfolio tracker API",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Portfolio Tracker", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis (optional: without it only in-process caches run)
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()
	}

	// Initialize Telegram notifier (optional)
	var notifier telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize stores and services
	registry := repository.NewRegistry(db.DB)

	summaryTTL := parseDurationOr(cfg.Portfolio.SummaryCacheTTL, 30*time.Second)
	analysisTTL := parseDurationOr(cfg.Portfolio.AnalysisCacheTTL, time.Minute)
	portfolioSvc := service.NewPortfolioService(registry, appLogger, redisClient, summaryTTL, analysisTTL)
	positionSvc := service.NewPositionService(registry, appLogger)
	transactionSvc := service.NewTransactionService(registry, appLogger, notifier, portfolioSvc)

	// Schedule the periodic full reconciliation
	scheduler := cron.New()
	if cfg.Portfolio.ReconcileCron != "" {
		_, err := scheduler.AddFunc(cfg.Portfolio.ReconcileCron, func() {
			summary, err := positionSvc.RecalculateAll(context.Background())
			if err != nil {
				appLogger.Error("Scheduled reconciliation failed", logger.ErrorField(err))
				return
			}
			appLogger.Info("Scheduled reconciliation finished",
				logger.IntField("recalculated", summary.Recalculated),
				logger.IntField("failed", len(summary.Failures)))
		})
		if err != nil {
			appLogger.Fatal("Invalid reconcile cron expression", logger.ErrorField(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	if cfg.API.RateLimitPerSec > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(cfg.API.RateLimitPerSec),
				Burst: cfg.API.RateLimitBurst,
			},
		)))
	}

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	transactionHandler := delivery.NewTransactionHandler(transactionSvc, appLogger)
	transactionHandler.RegisterRoutes(apiV1.Group("/transactions"))

	positionHandler := delivery.NewPositionHandler(positionSvc, appLogger)
	positionHandler.RegisterRoutes(apiV1.Group("/positions"))

	portfolioHandler := delivery.NewPortfolioHandler(portfolioSvc, appLogger)
	portfolioHandler.RegisterRoutes(apiV1.Group("/portfolio"))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownTimeout := parseDurationOr(cfg.API.ShutdownTimeout, 10*time.Second)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// @title Portfolio Tracker API
// @version 1.0
// @description Transaction ledger with derived position tracking.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "portfolio-tracker"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing portfolio-tracker CLI: %s\n", err)
		os.Exit(1)
	}
}
