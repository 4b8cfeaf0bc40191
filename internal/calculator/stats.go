package calculator

import (
	"github.com/shopspring/decimal"

	"CoinDash/internal/model"
)

// Stats summarises one series for the chart header.
type Stats struct {
	High          decimal.Decimal     `json:"high"`
	Low           decimal.Decimal     `json:"low"`
	Change        decimal.Decimal     `json:"change"`
	ChangePercent decimal.NullDecimal `json:"change_percent"`
	// Position of the reference price within [Low, High]; nil without a reference.
	Position *float64 `json:"position,omitempty"`
}

// Summarize computes Stats for points. reference may be invalid.
func Summarize(points []model.PricePoint, reference decimal.NullDecimal) (Stats, error) {
	high, low, err := WindowRange(points)
	if err != nil {
		return Stats{}, err
	}
	change, pct, err := WindowChange(points)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{High: high, Low: low, Change: change, ChangePercent: pct}
	if reference.Valid {
		if pos, err := RangePosition(reference.Decimal, high, low); err == nil {
			s.Position = &pos
		}
	}
	return s, nil
}
