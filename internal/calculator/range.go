package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"CoinDash/internal/model"
)

// ErrNoData is returned when a calculation needs at least one sample.
var ErrNoData = errors.New("no price samples provided")

var hundred = decimal.NewFromInt(100)

// WindowRange scans every sample and returns the highest and lowest price.
func WindowRange(points []model.PricePoint) (high, low decimal.Decimal, err error) {
	if len(points) == 0 {
		return decimal.Zero, decimal.Zero, ErrNoData
	}
	high, low = points[0].Price, points[0].Price
	for _, p := range points[1:] {
		if p.Price.GreaterThan(high) {
			high = p.Price
		}
		if p.Price.LessThan(low) {
			low = p.Price
		}
	}
	return high, low, nil
}

// WindowChange returns the change from the first to the last sample. The
// percentage is invalid when the first price is zero.
func WindowChange(points []model.PricePoint) (change decimal.Decimal, percent decimal.NullDecimal, err error) {
	if len(points) == 0 {
		return decimal.Zero, decimal.NullDecimal{}, ErrNoData
	}
	first, last := points[0].Price, points[len(points)-1].Price
	change = last.Sub(first)
	if !first.IsZero() {
		percent = decimal.NewNullDecimal(change.Mul(hundred).Div(first))
	}
	return change, percent, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low decimal.Decimal) (float64, error) {
	if high.Equal(low) {
		return 0.5, nil
	}
	if high.LessThan(low) {
		return 0, errors.New("high must be >= low")
	}
	pos, _ := current.Sub(low).Div(high.Sub(low)).Float64()
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
