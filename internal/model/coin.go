package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoinDetail holds the fields of a single coin shown on the detail page.
// Prices are exact decimals. PriceChangePercent24h and the supply counts are
// display-only floats and never feed price arithmetic.
type CoinDetail struct {
	ID                    string              `json:"id"`
	Symbol                string              `json:"symbol"`
	Name                  string              `json:"name"`
	Rank                  int                 `json:"market_cap_rank"`
	Image                 string              `json:"image"`
	Description           string              `json:"description"`
	CurrentPrice          decimal.NullDecimal `json:"current_price"`
	MarketCap             decimal.NullDecimal `json:"market_cap"`
	High24h               decimal.NullDecimal `json:"high_24h"`
	Low24h                decimal.NullDecimal `json:"low_24h"`
	PriceChange24h        decimal.Decimal     `json:"price_change_24h"`
	PriceChangePercent24h float64             `json:"price_change_percentage_24h"`
	CirculatingSupply     float64             `json:"circulating_supply"`
	TotalSupply           *float64            `json:"total_supply"`
	ATH                   decimal.NullDecimal `json:"ath"`
	ATHDate               time.Time           `json:"ath_date"`
	ATL                   decimal.NullDecimal `json:"atl"`
	ATLDate               time.Time           `json:"atl_date"`
	Homepage              string              `json:"homepage,omitempty"`
	Explorer              string              `json:"blockchain_site,omitempty"`
	Categories            []string            `json:"categories"`
	FetchedAt             time.Time           `json:"fetched_at"`
}

// ReferencePrice returns the current USD price used as the baseline for
// hover deltas. It is invalid when the upstream did not report one.
func (c *CoinDetail) ReferencePrice() decimal.NullDecimal {
	if c == nil {
		return decimal.NullDecimal{}
	}
	return c.CurrentPrice
}

// IsUp reports whether the 24h change is non-negative.
func (c *CoinDetail) IsUp() bool { return c.PriceChangePercent24h >= 0 }
