package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"CoinDash/internal/model"
)

// ChartCall records one FetchMarketChart invocation on a MockFetcher.
type ChartCall struct {
	AssetID string
	Days    int
}

// MockFetcher returns controllable fixed data for development and testing.
// Charts and ChartErrs are keyed by ChartKey. Hold makes the matching
// FetchMarketChart call block until released, which lets tests control
// completion order.
type MockFetcher struct {
	Price      float64
	Charts     map[string][]model.PricePoint
	ChartErrs  map[string]error
	Coin       *model.CoinDetail
	CoinErr    error
	Markets    []model.MarketCoin
	MarketsErr error

	mu    sync.Mutex
	gates     map[string]chan struct{}
	calls     []ChartCall
	coinCalls []string
}

// ChartKey builds the Charts/ChartErrs map key for an asset and window.
func ChartKey(assetID string, days int) string {
	return fmt.Sprintf("%s|%d", assetID, days)
}

func (m *MockFetcher) Name() string { return "mock" }

// Hold blocks the next FetchMarketChart calls for (assetID, days) until the
// returned release func is called.
func (m *MockFetcher) Hold(assetID string, days int) (release func()) {
	return m.hold(ChartKey(assetID, days))
}

func (m *MockFetcher) hold(key string) (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gates == nil {
		m.gates = make(map[string]chan struct{})
	}
	gate := make(chan struct{})
	m.gates[key] = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// HoldCoin blocks the next FetchCoin calls for id until the returned release
// func is called.
func (m *MockFetcher) HoldCoin(id string) (release func()) {
	return m.hold("coin|" + id)
}

// CoinCalls returns the ids passed to FetchCoin so far.
func (m *MockFetcher) CoinCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.coinCalls...)
}

// Calls returns the FetchMarketChart invocations seen so far.
func (m *MockFetcher) Calls() []ChartCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChartCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockFetcher) FetchMarketChart(ctx context.Context, assetID string, days int) ([]model.PricePoint, error) {
	key := ChartKey(assetID, days)

	m.mu.Lock()
	m.calls = append(m.calls, ChartCall{AssetID: assetID, Days: days})
	gate := m.gates[key]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &RetrievalError{Op: "market_chart", AssetID: assetID, Err: ctx.Err()}
		}
	}

	if err := validateAsset(assetID); err != nil {
		return nil, err
	}
	if err, ok := m.ChartErrs[key]; ok {
		return nil, err
	}
	if pts, ok := m.Charts[key]; ok {
		return pts, nil
	}
	return generateMockSeries(m.Price, days), nil
}

func (m *MockFetcher) FetchCoin(ctx context.Context, id string) (*model.CoinDetail, error) {
	if err := validateAsset(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.coinCalls = append(m.coinCalls, id)
	gate := m.gates["coin|"+id]
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &RetrievalError{Op: "coin", AssetID: id, Err: ctx.Err()}
		}
	}
	if m.CoinErr != nil {
		return nil, m.CoinErr
	}
	if m.Coin != nil {
		c := *m.Coin
		return &c, nil
	}
	return &model.CoinDetail{
		ID:           id,
		Name:         id,
		CurrentPrice: decimal.NewNullDecimal(decimal.NewFromFloat(m.Price)),
		FetchedAt:    time.Now(),
	}, nil
}

func (m *MockFetcher) FetchMarkets(_ context.Context, limit int) ([]model.MarketCoin, error) {
	if limit < 1 || limit > MaxListingLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if m.MarketsErr != nil {
		return nil, m.MarketsErr
	}
	if len(m.Markets) > limit {
		return m.Markets[:limit], nil
	}
	return m.Markets, nil
}

// generateMockSeries produces hourly samples for windows up to 90 days and
// daily samples beyond, ending now.
func generateMockSeries(basePrice float64, days int) []model.PricePoint {
	step := time.Hour
	count := days * 24
	if days > 90 {
		step = 24 * time.Hour
		count = days
	}
	end := time.Now().Truncate(step)
	points := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		points[i] = model.PricePoint{
			Timestamp: end.Add(-time.Duration(count-1-i) * step).UnixMilli(),
			Price:     decimal.NewFromFloat(p),
		}
	}
	return points
}
