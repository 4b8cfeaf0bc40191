package model

import "github.com/shopspring/decimal"

// MarketCoin is one row of the market listing.
type MarketCoin struct {
	ID                       string          `json:"id"`
	Symbol                   string          `json:"symbol"`
	Name                     string          `json:"name"`
	Image                    string          `json:"image"`
	CurrentPrice             decimal.Decimal `json:"current_price"`
	MarketCap                float64         `json:"market_cap"`
	MarketCapRank            int             `json:"market_cap_rank"`
	TotalVolume              float64         `json:"total_volume"`
	PriceChangePercentage24h float64         `json:"price_change_percentage_24h"`
}
