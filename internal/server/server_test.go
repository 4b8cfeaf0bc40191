package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinDash/internal/collector"
	"CoinDash/internal/market"
	"CoinDash/internal/model"
	"CoinDash/internal/observability"
	"CoinDash/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	srv     *Server
	fetcher *collector.MockFetcher
	ctrl    *pipeline.Controller
}

func newFixture(t *testing.T, f *collector.MockFetcher) *fixture {
	t.Helper()
	log := zerolog.Nop()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	ctrl := pipeline.NewController(f, metrics, log)
	svc := market.NewService(f, metrics, log, 10)
	srv := New(context.Background(), Options{Location: time.UTC}, ctrl, svc, metrics, log)
	t.Cleanup(ctrl.Wait)
	return &fixture{srv: srv, fetcher: f, ctrl: ctrl}
}

func (fx *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	fx.srv.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func btcFetcher() *collector.MockFetcher {
	return &collector.MockFetcher{
		Price: 100,
		Coin: &model.CoinDetail{
			ID:           "bitcoin",
			Name:         "Bitcoin",
			CurrentPrice: decimal.NewNullDecimal(decimal.NewFromInt(50500)),
		},
		Charts: map[string][]model.PricePoint{
			collector.ChartKey("bitcoin", 7): {
				{Timestamp: 100, Price: decimal.NewFromInt(50000)},
				{Timestamp: 200, Price: decimal.NewFromInt(51000)},
			},
		},
		Markets: []model.MarketCoin{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: decimal.NewFromInt(50500), MarketCap: 1e12},
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: decimal.NewFromInt(3000), MarketCap: 4e11},
			{ID: "bitcoin-cash", Symbol: "bch", Name: "Bitcoin Cash", CurrentPrice: decimal.NewFromInt(400), MarketCap: 8e9},
		},
	}
}

// selectBitcoin loads the bitcoin detail and waits for its chart.
func (fx *fixture) selectBitcoin(t *testing.T) {
	t.Helper()
	w := fx.do(t, http.MethodGet, "/api/coins/bitcoin", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fx.ctrl.Wait()
	require.Equal(t, pipeline.StatusReady, fx.ctrl.Snapshot().Status)
}

func TestHealthAndAbout(t *testing.T) {
	fx := newFixture(t, btcFetcher())

	w := fx.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])

	w = fx.do(t, http.MethodGet, "/about", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody(t, w)["text"], "cryptocurrency dashboard")
}

func TestListRanges(t *testing.T) {
	fx := newFixture(t, btcFetcher())

	w := fx.do(t, http.MethodGet, "/api/ranges", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	ranges := body["ranges"].([]interface{})
	require.Len(t, ranges, 5)
	assert.Equal(t, "24H", ranges[0].(map[string]interface{})["label"])
	assert.Equal(t, "7D", body["default"].(map[string]interface{})["label"])
}

func TestListCoins(t *testing.T) {
	fx := newFixture(t, btcFetcher())

	w := fx.do(t, http.MethodGet, "/api/coins?filter=bit&sort=price_asc", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	coins := decodeBody(t, w)["coins"].([]interface{})
	require.Len(t, coins, 2)
	assert.Equal(t, "bitcoin-cash", coins[0].(map[string]interface{})["id"])
	assert.Equal(t, "bitcoin", coins[1].(map[string]interface{})["id"])

	w = fx.do(t, http.MethodGet, "/api/coins?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["coins"], 2)
}

func TestListCoins_BadInput(t *testing.T) {
	fx := newFixture(t, btcFetcher())

	for _, path := range []string{
		"/api/coins?sort=alphabetical",
		"/api/coins?limit=0",
		"/api/coins?limit=251",
		"/api/coins?limit=ten",
	} {
		w := fx.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestListCoins_UpstreamFailure(t *testing.T) {
	f := btcFetcher()
	f.MarketsErr = &collector.RetrievalError{Op: "markets", Status: http.StatusTooManyRequests}
	fx := newFixture(t, f)

	w := fx.do(t, http.MethodGet, "/api/coins", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetCoin_SelectsAssetAndReference(t *testing.T) {
	fx := newFixture(t, btcFetcher())

	w := fx.do(t, http.MethodGet, "/api/coins/bitcoin", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	coin := decodeBody(t, w)["coin"].(map[string]interface{})
	assert.Equal(t, "Bitcoin", coin["name"])
	assert.Equal(t, "$50,500", coin["formatted_price"])

	fx.ctrl.Wait()
	snap := fx.ctrl.Snapshot()
	assert.Equal(t, "bitcoin", snap.AssetID)
	assert.Equal(t, pipeline.StatusReady, snap.Status)
	assert.Equal(t, 2, snap.Series.Len())
	assert.True(t, fx.ctrl.ReferencePrice().Decimal.Equal(decimal.NewFromInt(50500)))
}

func TestGetCoin_SwitchReplacesReference(t *testing.T) {
	f := btcFetcher()
	f.Charts[collector.ChartKey("ethereum", 7)] = []model.PricePoint{{Timestamp: 1000, Price: decimal.NewFromInt(3249)}}
	fx := newFixture(t, f)
	fx.selectBitcoin(t)

	f.Coin = &model.CoinDetail{
		ID:           "ethereum",
		Name:         "Ethereum",
		CurrentPrice: decimal.NewNullDecimal(decimal.NewFromInt(3000)),
	}
	w := fx.do(t, http.MethodGet, "/api/coins/ethereum", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fx.ctrl.Wait()

	assert.Equal(t, "ethereum", fx.ctrl.Snapshot().AssetID)
	assert.True(t, fx.ctrl.ReferencePrice().Decimal.Equal(decimal.NewFromInt(3000)))

	w = fx.do(t, http.MethodGet, "/api/chart/hover?t=1000", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "249", body["priceChange"])
	assert.Equal(t, "+8.30%", body["formattedChangePercent"])
	assert.Equal(t, true, body["up"])
}

func TestGetCoin_Errors(t *testing.T) {
	f := btcFetcher()
	f.CoinErr = &collector.RetrievalError{Op: "coin", AssetID: "bitcoin", Err: errors.New("connection reset")}
	fx := newFixture(t, f)

	w := fx.do(t, http.MethodGet, "/api/coins/bitcoin", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, pipeline.StatusIdle, fx.ctrl.Snapshot().Status)

	f.CoinErr = nil
	w = fx.do(t, http.MethodGet, "/api/coins/%20", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChart(t *testing.T) {
	fx := newFixture(t, btcFetcher())

	w := fx.do(t, http.MethodGet, "/api/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "idle", body["status"])
	assert.Empty(t, body["points"])
	assert.Nil(t, body["stats"])

	fx.selectBitcoin(t)

	w = fx.do(t, http.MethodGet, "/api/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "bitcoin", body["asset_id"])
	assert.Equal(t, "hourly", body["granularity"])
	assert.Len(t, body["points"], 2)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, "51000", stats["high"])
	assert.Equal(t, "50000", stats["low"])
	assert.Equal(t, "1000", stats["change"])
	assert.Equal(t, "2", stats["change_percent"])
}

func TestGetChart_Failed(t *testing.T) {
	f := btcFetcher()
	f.ChartErrs = map[string]error{
		collector.ChartKey("bitcoin", 7): &collector.RetrievalError{Op: "market_chart", AssetID: "bitcoin", Status: 500},
	}
	fx := newFixture(t, f)

	w := fx.do(t, http.MethodGet, "/api/coins/bitcoin", "")
	require.Equal(t, http.StatusOK, w.Code)
	fx.ctrl.Wait()

	w = fx.do(t, http.MethodGet, "/api/chart", "")
	body := decodeBody(t, w)
	assert.Equal(t, "failed", body["status"])
	assert.NotEmpty(t, body["error"])
	assert.Empty(t, body["points"])

	w = fx.do(t, http.MethodGet, "/api/chart.png", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSetRange(t *testing.T) {
	fx := newFixture(t, btcFetcher())
	fx.selectBitcoin(t)

	w := fx.do(t, http.MethodPost, "/api/chart/range", `{"range":"30d"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "30D", body["range"].(map[string]interface{})["label"])
	fx.ctrl.Wait()

	snap := fx.ctrl.Snapshot()
	assert.Equal(t, 30, snap.Range.LookbackDays)
	assert.Equal(t, pipeline.StatusReady, snap.Status)
	calls := fx.fetcher.Calls()
	assert.Equal(t, collector.ChartCall{AssetID: "bitcoin", Days: 30}, calls[len(calls)-1])

	w = fx.do(t, http.MethodPost, "/api/chart/range", `{"range":"2W"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = fx.do(t, http.MethodPost, "/api/chart/range", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHoverAndLeave(t *testing.T) {
	fx := newFixture(t, btcFetcher())

	w := fx.do(t, http.MethodGet, "/api/chart/hover?t=150", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	fx.selectBitcoin(t)

	w = fx.do(t, http.MethodGet, "/api/chart/hover?t=190", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "51000", body["price"])
	assert.Equal(t, "500", body["priceChange"])
	assert.Equal(t, "$51,000", body["formattedPrice"])
	assert.Equal(t, "+500.00", body["formattedChange"])
	assert.Equal(t, "+0.99%", body["formattedChangePercent"])

	w = fx.do(t, http.MethodGet, "/api/chart", "")
	assert.NotNil(t, decodeBody(t, w)["readout"])

	w = fx.do(t, http.MethodGet, "/api/chart/hover?t=5000", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = fx.do(t, http.MethodGet, "/api/chart/hover?t=190", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = fx.do(t, http.MethodDelete, "/api/chart/hover", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := fx.ctrl.Readout()
	assert.False(t, ok)

	w = fx.do(t, http.MethodGet, "/api/chart/hover?t=soon", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChartPNG(t *testing.T) {
	fx := newFixture(t, btcFetcher())

	w := fx.do(t, http.MethodGet, "/api/chart.png", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	fx.selectBitcoin(t)

	w = fx.do(t, http.MethodGet, "/api/chart.png?width=320&height=200", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestMetricsEndpoint(t *testing.T) {
	fx := newFixture(t, btcFetcher())
	fx.selectBitcoin(t)

	w := fx.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coindash_chart_fetches_total")
	assert.Contains(t, w.Body.String(), "coindash_upstream_requests_total")
}

func TestCORS(t *testing.T) {
	log := zerolog.Nop()
	f := btcFetcher()
	ctrl := pipeline.NewController(f, nil, log)
	srv := New(context.Background(), Options{AllowedOrigins: []string{"http://localhost:5173"}}, ctrl, market.NewService(f, nil, log, 10), nil, log)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
