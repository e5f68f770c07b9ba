package config

import (
	"golang-portfolio-tracker/pkg/config"
)

// Portfolio holds portfolio-service-specific configuration.
type Portfolio struct {
	// ReconcileCron schedules the periodic full recalculation. Empty
	// disables it.
	ReconcileCron    string `mapstructure:"reconcile_cron"`
	SummaryCacheTTL  string `mapstructure:"summary_cache_ttl"`
	AnalysisCacheTTL string `mapstructure:"analysis_cache_ttl"`
}

// Config holds the full configuration for the portfolio service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Telegram  config.Telegram `mapstructure:"telegram"`
	Portfolio Portfolio       `mapstructure:"portfolio"`
}

// Load loads the portfolio service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
