// Package hover derives the chart readout shown while the cursor rests on
// a sample. Everything here is a pure function of its inputs.
package hover

import (
	"sort"

	"github.com/shopspring/decimal"

	"CoinDash/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Project snaps cursor (epoch millis) to the nearest sample along the time
// axis and derives the readout against reference. It returns false when the
// series is empty or the cursor lies outside the plotted span.
func Project(cursor int64, series model.Series, reference decimal.NullDecimal) (model.HoverReadout, bool) {
	p, ok := Nearest(series.Points, cursor)
	if !ok {
		return model.HoverReadout{}, false
	}
	return Readout(p, reference), true
}

// Nearest returns the sample closest in time to cursor. Points must be
// sorted by timestamp. A cursor equidistant from two samples resolves to
// the earlier one.
func Nearest(points []model.PricePoint, cursor int64) (model.PricePoint, bool) {
	n := len(points)
	if n == 0 || cursor < points[0].Timestamp || cursor > points[n-1].Timestamp {
		return model.PricePoint{}, false
	}
	i := sort.Search(n, func(i int) bool { return points[i].Timestamp >= cursor })
	if i == 0 || points[i].Timestamp == cursor {
		return points[i], true
	}
	prev, next := points[i-1], points[i]
	if cursor-prev.Timestamp <= next.Timestamp-cursor {
		return prev, true
	}
	return next, true
}

// Readout derives the deltas of p against reference. PriceChange is invalid
// without a reference; PriceChangePercent is also invalid for a zero one.
func Readout(p model.PricePoint, reference decimal.NullDecimal) model.HoverReadout {
	r := model.HoverReadout{Time: p.Timestamp, Price: p.Price}
	if !reference.Valid {
		return r
	}
	delta := p.Price.Sub(reference.Decimal)
	r.PriceChange = decimal.NewNullDecimal(delta)
	if !reference.Decimal.IsZero() {
		r.PriceChangePercent = decimal.NewNullDecimal(delta.Mul(hundred).Div(reference.Decimal))
	}
	return r
}
