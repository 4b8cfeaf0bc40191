package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"CoinDash/internal/chart"
	"CoinDash/internal/collector"
	"CoinDash/internal/config"
	"CoinDash/internal/logger"
	"CoinDash/internal/market"
	"CoinDash/internal/observability"
	"CoinDash/internal/pipeline"
	"CoinDash/internal/scheduler"
	"CoinDash/internal/server"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Msg("CoinDash starting...")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	// Init fetcher
	var fetcher collector.Fetcher
	if os.Getenv("MOCK_DATA") == "true" {
		fetcher = &collector.MockFetcher{Price: 50000}
	} else {
		fetcher = collector.NewCoinGeckoFetcher(cfg.CoinAPI.BaseURL, cfg.CoinAPI.APIKey, cfg.Proxy, cfg.CoinAPI.Timeout)
	}
	log.Info().Str("source", fetcher.Name()).Str("base_url", cfg.CoinAPI.BaseURL).Msg("data source ready")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl := pipeline.NewController(fetcher, metrics, log)
	svc := market.NewService(fetcher, metrics, log, cfg.Dashboard.ListingLimit)

	// Initial selection
	r, err := chart.ParseRange(cfg.Dashboard.DefaultRange)
	if err != nil {
		log.Fatal().Err(err).Msg("default range")
	}
	ctrl.Select(ctx, cfg.Dashboard.DefaultAsset, r)
	if coin, err := svc.Coin(ctx, cfg.Dashboard.DefaultAsset); err != nil {
		log.Warn().Err(err).Str("asset", cfg.Dashboard.DefaultAsset).Msg("reference price unavailable")
	} else {
		ctrl.SetReferencePrice(cfg.Dashboard.DefaultAsset, coin.ReferencePrice())
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, ctrl, svc, log)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(ctx, server.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Mode:           cfg.Server.Mode,
	}, ctrl, svc, metrics, log)

	log.Info().Msg("CoinDash is running. Press Ctrl+C to stop.")
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}

	stop()
	ctrl.Wait()
	log.Info().Msg("CoinDash stopped")
}
