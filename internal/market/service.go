package market

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"CoinDash/internal/collector"
	"CoinDash/internal/logger"
	"CoinDash/internal/model"
	"CoinDash/internal/observability"
)

// Service loads the listing and coin details from a Fetcher.
type Service struct {
	fetcher collector.Fetcher
	metrics *observability.Metrics
	log     zerolog.Logger
	limit   int
}

// NewService creates a Service whose listings default to limit rows.
func NewService(fetcher collector.Fetcher, metrics *observability.Metrics, log zerolog.Logger, limit int) *Service {
	return &Service{
		fetcher: fetcher,
		metrics: metrics,
		log:     logger.Component(log, "market"),
		limit:   limit,
	}
}

// DefaultLimit returns the configured listing size.
func (s *Service) DefaultLimit() int { return s.limit }

// Listing fetches up to limit coins and applies filter and sort.
// A limit of zero uses the configured default.
func (s *Service) Listing(ctx context.Context, limit int, filter string, key SortKey) ([]model.MarketCoin, error) {
	if limit == 0 {
		limit = s.limit
	}
	coins, err := s.fetcher.FetchMarkets(ctx, limit)
	s.metrics.RecordUpstream("markets", err)
	if err != nil {
		s.log.Error().Err(err).Int("limit", limit).Msg("fetch markets failed")
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	return Listing(coins, filter, key)
}

// Coin fetches the detail record for id.
func (s *Service) Coin(ctx context.Context, id string) (*model.CoinDetail, error) {
	coin, err := s.fetcher.FetchCoin(ctx, id)
	s.metrics.RecordUpstream("coin", err)
	if err != nil {
		s.log.Error().Err(err).Str("asset", id).Msg("fetch coin failed")
		return nil, fmt.Errorf("fetch coin %s: %w", id, err)
	}
	return coin, nil
}
