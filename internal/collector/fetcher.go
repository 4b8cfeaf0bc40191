package collector

import (
	"context"

	"CoinDash/internal/model"
)

// Fetcher defines the interface for fetching market data from a price source.
type Fetcher interface {
	// FetchMarketChart returns the USD price samples for assetID over the
	// last days, in upstream (chronological) order. An empty slice is a
	// valid result.
	FetchMarketChart(ctx context.Context, assetID string, days int) ([]model.PricePoint, error)
	FetchCoin(ctx context.Context, id string) (*model.CoinDetail, error)
	FetchMarkets(ctx context.Context, limit int) ([]model.MarketCoin, error)
	Name() string
}
