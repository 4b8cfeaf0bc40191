// Package chart holds the selectable lookback windows and the axis
// granularity each of them implies.
package chart

import (
	"errors"
	"fmt"
	"strings"

	"CoinDash/internal/model"
)

// ErrUnknownRange is returned for labels or day counts outside Ranges.
var ErrUnknownRange = errors.New("unknown range")

// Ranges lists the selectable windows in display order.
var Ranges = []model.RangeOption{
	{Label: "24H", LookbackDays: 1},
	{Label: "7D", LookbackDays: 7},
	{Label: "30D", LookbackDays: 30},
	{Label: "90D", LookbackDays: 90},
	{Label: "1Y", LookbackDays: 365},
}

// DefaultRange is selected before the user picks one.
var DefaultRange = Ranges[1]

// ParseRange resolves a label such as "30D" (case-insensitive).
func ParseRange(label string) (model.RangeOption, error) {
	l := strings.TrimSpace(label)
	for _, r := range Ranges {
		if strings.EqualFold(r.Label, l) {
			return r, nil
		}
	}
	return model.RangeOption{}, fmt.Errorf("%w: %q", ErrUnknownRange, label)
}

// RangeForDays resolves a lookback day count to its option.
func RangeForDays(days int) (model.RangeOption, error) {
	for _, r := range Ranges {
		if r.LookbackDays == days {
			return r, nil
		}
	}
	return model.RangeOption{}, fmt.Errorf("%w: %d days", ErrUnknownRange, days)
}

// ValidDays reports whether days is one of the enumerated lookback windows.
func ValidDays(days int) bool {
	_, err := RangeForDays(days)
	return err == nil
}
