// Package format renders prices, deltas and timestamps for display.
package format

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"CoinDash/internal/model"
)

// TimeLayout mirrors an en-US locale date-time string.
const TimeLayout = "1/2/2006, 3:04:05 PM"

var one = decimal.NewFromInt(1)

// Price formats d as a dollar amount with thousands separators. Sub-dollar
// prices keep up to six decimals, larger ones up to two.
func Price(d decimal.Decimal) string {
	digits := 2
	if d.Abs().LessThan(one) {
		digits = 6
	}
	f, _ := d.Round(int32(digits)).Float64()
	if f < 0 {
		return "-$" + humanize.CommafWithDigits(-f, digits)
	}
	return "$" + humanize.CommafWithDigits(f, digits)
}

// NullPrice formats an optional price, returning "N/A" when absent.
func NullPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return Price(d.Decimal)
}

// Signed formats d with an explicit sign and fixed places.
func Signed(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}

// Percent formats d as a signed percentage with two places.
func Percent(d decimal.Decimal) string {
	return Signed(d, 2) + "%"
}

// Time formats an epoch-millis timestamp in loc.
func Time(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(TimeLayout)
}

// Supply formats a token count with thousands separators.
func Supply(v float64) string {
	return humanize.CommafWithDigits(v, 0)
}

// Readout is a HoverReadout with its display strings attached. Up is nil
// when there is no price change to show.
type Readout struct {
	model.HoverReadout
	FormattedTime          string `json:"formattedTime"`
	FormattedPrice         string `json:"formattedPrice"`
	FormattedChange        string `json:"formattedChange,omitempty"`
	FormattedChangePercent string `json:"formattedChangePercent,omitempty"`
	Up                     *bool  `json:"up,omitempty"`
}

// FormatReadout attaches display strings to r.
func FormatReadout(r model.HoverReadout, loc *time.Location) Readout {
	out := Readout{
		HoverReadout:   r,
		FormattedTime:  Time(r.Time, loc),
		FormattedPrice: Price(r.Price),
	}
	if r.PriceChange.Valid {
		out.FormattedChange = Signed(r.PriceChange.Decimal, 2)
		up := !r.PriceChange.Decimal.IsNegative()
		out.Up = &up
	}
	if r.PriceChangePercent.Valid {
		out.FormattedChangePercent = Percent(r.PriceChangePercent.Decimal)
	}
	return out
}
