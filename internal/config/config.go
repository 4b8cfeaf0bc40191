package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CoinDash/internal/chart"
	"CoinDash/internal/collector"
	"CoinDash/internal/logger"
)

// Config holds all application configuration.
type Config struct {
	CoinAPI struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"coin_api"`
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		Mode           string   `yaml:"mode"`
	} `yaml:"server"`
	Dashboard struct {
		DefaultAsset string `yaml:"default_asset"`
		DefaultRange string `yaml:"default_range"`
		ListingLimit int    `yaml:"listing_limit"`
	} `yaml:"dashboard"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Load reads .env and the YAML file at path, then applies environment
// variable overrides and defaults. Missing files are not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("COIN_API_URL"); v != "" {
		cfg.CoinAPI.BaseURL = v
	}
	if v := os.Getenv("COIN_API_KEY"); v != "" {
		cfg.CoinAPI.APIKey = v
	}
	if v := os.Getenv("COIN_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse COIN_API_TIMEOUT: %w", err)
		}
		cfg.CoinAPI.Timeout = d
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.Pretty = b
		}
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("DEFAULT_ASSET"); v != "" {
		cfg.Dashboard.DefaultAsset = v
	}

	// Defaults
	if cfg.CoinAPI.BaseURL == "" {
		cfg.CoinAPI.BaseURL = "https://api.coingecko.com/api/v3/coins"
	}
	if cfg.CoinAPI.Timeout == 0 {
		cfg.CoinAPI.Timeout = 15 * time.Second
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Dashboard.DefaultAsset == "" {
		cfg.Dashboard.DefaultAsset = "bitcoin"
	}
	if cfg.Dashboard.DefaultRange == "" {
		cfg.Dashboard.DefaultRange = chart.DefaultRange.Label
	}
	if cfg.Dashboard.ListingLimit == 0 {
		cfg.Dashboard.ListingLimit = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.CoinAPI.BaseURL == "" {
		return fmt.Errorf("coin_api.base_url is required")
	}
	if c.CoinAPI.Timeout <= 0 {
		return fmt.Errorf("coin_api.timeout must be positive")
	}
	if _, err := chart.ParseRange(c.Dashboard.DefaultRange); err != nil {
		return fmt.Errorf("dashboard.default_range: %w", err)
	}
	if c.Dashboard.ListingLimit < 1 || c.Dashboard.ListingLimit > collector.MaxListingLimit {
		return fmt.Errorf("dashboard.listing_limit must be within 1..%d", collector.MaxListingLimit)
	}
	return nil
}
