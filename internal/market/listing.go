// Package market filters and orders the coin listing shown on the home page.
package market

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"CoinDash/internal/model"
)

// SortKey names one listing order.
type SortKey string

const (
	MarketCapDesc SortKey = "market_cap_desc"
	MarketCapAsc  SortKey = "market_cap_asc"
	PriceDesc     SortKey = "price_desc"
	PriceAsc      SortKey = "price_asc"
	ChangeDesc    SortKey = "change_desc"
	ChangeAsc     SortKey = "change_asc"
)

// DefaultSort is used when no order is requested.
const DefaultSort = MarketCapDesc

// ErrUnknownSort is returned by ParseSort for unrecognised keys.
var ErrUnknownSort = errors.New("unknown sort key")

var less = map[SortKey]func(a, b model.MarketCoin) bool{
	MarketCapDesc: func(a, b model.MarketCoin) bool { return a.MarketCap > b.MarketCap },
	MarketCapAsc:  func(a, b model.MarketCoin) bool { return a.MarketCap < b.MarketCap },
	PriceDesc:     func(a, b model.MarketCoin) bool { return a.CurrentPrice.GreaterThan(b.CurrentPrice) },
	PriceAsc:      func(a, b model.MarketCoin) bool { return a.CurrentPrice.LessThan(b.CurrentPrice) },
	ChangeDesc:    func(a, b model.MarketCoin) bool { return a.PriceChangePercentage24h > b.PriceChangePercentage24h },
	ChangeAsc:     func(a, b model.MarketCoin) bool { return a.PriceChangePercentage24h < b.PriceChangePercentage24h },
}

// ParseSort resolves a sort key; an empty string yields DefaultSort.
func ParseSort(s string) (SortKey, error) {
	if s == "" {
		return DefaultSort, nil
	}
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := less[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
	return k, nil
}

// Filter keeps coins whose name or symbol contains text, ignoring case.
// The input slice is not modified.
func Filter(coins []model.MarketCoin, text string) []model.MarketCoin {
	needle := strings.ToLower(strings.TrimSpace(text))
	out := make([]model.MarketCoin, 0, len(coins))
	for _, c := range coins {
		if needle == "" ||
			strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Symbol), needle) {
			out = append(out, c)
		}
	}
	return out
}

// Sort orders coins in place by key. Ties keep their upstream order.
func Sort(coins []model.MarketCoin, key SortKey) error {
	fn, ok := less[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSort, key)
	}
	sort.SliceStable(coins, func(i, j int) bool { return fn(coins[i], coins[j]) })
	return nil
}

// Listing applies Filter then Sort on a copy of coins.
func Listing(coins []model.MarketCoin, filter string, key SortKey) ([]model.MarketCoin, error) {
	out := Filter(coins, filter)
	if err := Sort(out, key); err != nil {
		return nil, err
	}
	return out, nil
}
