package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a single (timestamp, price) sample from the market chart endpoint.
type PricePoint struct {
	Timestamp int64           `json:"timestamp"` // epoch millis
	Price     decimal.Decimal `json:"price"`
}

// Time returns the sample timestamp as a time.Time.
func (p PricePoint) Time() time.Time { return time.UnixMilli(p.Timestamp) }

// Series holds the price samples for one (asset, lookback window) pair.
// Points are in upstream order, which is non-decreasing by timestamp.
type Series struct {
	AssetID      string       `json:"asset_id"`
	LookbackDays int          `json:"lookback_days"`
	Points       []PricePoint `json:"points"`
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Points) }

// Empty reports whether the series has no samples.
func (s Series) Empty() bool { return len(s.Points) == 0 }

// RangeOption is one selectable lookback window.
type RangeOption struct {
	Label        string `json:"label"`
	LookbackDays int    `json:"days"`
}

// HoverReadout is the value shown while the cursor rests on a chart sample.
// PriceChange and PriceChangePercent are relative to the reference price and
// are invalid when no reference is known.
type HoverReadout struct {
	Time               int64               `json:"time"`
	Price              decimal.Decimal     `json:"price"`
	PriceChange        decimal.NullDecimal `json:"priceChange"`
	PriceChangePercent decimal.NullDecimal `json:"priceChangePercent"`
}
