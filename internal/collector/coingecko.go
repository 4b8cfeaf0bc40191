package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CoinDash/internal/chart"
	"CoinDash/internal/model"
)

// CoinGeckoFetcher implements Fetcher against the CoinGecko /coins REST API.
type CoinGeckoFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewCoinGeckoFetcher creates a new fetcher with optional proxy support.
func NewCoinGeckoFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *CoinGeckoFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CoinGeckoFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// marketChartResponse is the JSON shape of /{id}/market_chart.
type marketChartResponse struct {
	Prices *[][]json.Number `json:"prices"`
}

func (f *CoinGeckoFetcher) FetchMarketChart(ctx context.Context, assetID string, days int) ([]model.PricePoint, error) {
	if err := validateAsset(assetID); err != nil {
		return nil, err
	}
	if !chart.ValidDays(days) {
		return nil, fmt.Errorf("%w: %d days", chart.ErrUnknownRange, days)
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))
	endpoint := fmt.Sprintf("%s/%s/market_chart?%s", f.BaseURL, url.PathEscape(assetID), q.Encode())

	var body marketChartResponse
	if err := f.get(ctx, "market_chart", assetID, endpoint, &body); err != nil {
		return nil, err
	}
	if body.Prices == nil {
		return nil, &RetrievalError{Op: "market_chart", AssetID: assetID, Err: fmt.Errorf("decode: missing prices")}
	}

	raw := *body.Prices
	points := make([]model.PricePoint, 0, len(raw))
	for i, pair := range raw {
		p, err := parsePricePair(pair)
		if err != nil {
			return nil, &RetrievalError{Op: "market_chart", AssetID: assetID, Err: fmt.Errorf("decode prices[%d]: %w", i, err)}
		}
		points = append(points, p)
	}
	return points, nil
}

func parsePricePair(pair []json.Number) (model.PricePoint, error) {
	if len(pair) != 2 {
		return model.PricePoint{}, fmt.Errorf("want [timestamp, price], got %d values", len(pair))
	}
	ts, err := pair[0].Int64()
	if err != nil {
		// Some responses carry the timestamp as a float.
		d, derr := decimal.NewFromString(pair[0].String())
		if derr != nil {
			return model.PricePoint{}, fmt.Errorf("timestamp %q: %w", pair[0], err)
		}
		ts = d.IntPart()
	}
	price, err := decimal.NewFromString(pair[1].String())
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("price %q: %w", pair[1], err)
	}
	return model.PricePoint{Timestamp: ts, Price: price}, nil
}

type usdValue struct {
	USD *decimal.Decimal `json:"usd"`
}

func (v usdValue) null() decimal.NullDecimal {
	if v.USD == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v.USD)
}

type usdDate struct {
	USD *time.Time `json:"usd"`
}

func (v usdDate) time() time.Time {
	if v.USD == nil {
		return time.Time{}
	}
	return *v.USD
}

// coinResponse is the subset of /{id} the detail page shows.
type coinResponse struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
	Description   struct {
		EN string `json:"en"`
	} `json:"description"`
	Image struct {
		Large string `json:"large"`
		Small string `json:"small"`
	} `json:"image"`
	Links struct {
		Homepage       []string `json:"homepage"`
		BlockchainSite []string `json:"blockchain_site"`
	} `json:"links"`
	Categories []string `json:"categories"`
	MarketData *struct {
		CurrentPrice             usdValue         `json:"current_price"`
		MarketCap                usdValue         `json:"market_cap"`
		High24h                  usdValue         `json:"high_24h"`
		Low24h                   usdValue         `json:"low_24h"`
		PriceChange24h           *decimal.Decimal `json:"price_change_24h"`
		PriceChangePercentage24h float64          `json:"price_change_percentage_24h"`
		CirculatingSupply        float64          `json:"circulating_supply"`
		TotalSupply              *float64         `json:"total_supply"`
		ATH                      usdValue         `json:"ath"`
		ATHDate                  usdDate          `json:"ath_date"`
		ATL                      usdValue         `json:"atl"`
		ATLDate                  usdDate          `json:"atl_date"`
	} `json:"market_data"`
}

func (f *CoinGeckoFetcher) FetchCoin(ctx context.Context, id string) (*model.CoinDetail, error) {
	if err := validateAsset(id); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("market_data", "true")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	q.Set("sparkline", "false")
	endpoint := fmt.Sprintf("%s/%s?%s", f.BaseURL, url.PathEscape(id), q.Encode())

	var body coinResponse
	if err := f.get(ctx, "coin", id, endpoint, &body); err != nil {
		return nil, err
	}

	coin := &model.CoinDetail{
		ID:          body.ID,
		Symbol:      body.Symbol,
		Name:        body.Name,
		Rank:        body.MarketCapRank,
		Image:       firstNonEmpty(body.Image.Large, body.Image.Small),
		Description: firstSentence(body.Description.EN),
		Homepage:    firstNonEmpty(body.Links.Homepage...),
		Explorer:    firstNonEmpty(body.Links.BlockchainSite...),
		Categories:  body.Categories,
		FetchedAt:   time.Now(),
	}
	if md := body.MarketData; md != nil {
		coin.CurrentPrice = md.CurrentPrice.null()
		coin.MarketCap = md.MarketCap.null()
		coin.High24h = md.High24h.null()
		coin.Low24h = md.Low24h.null()
		if md.PriceChange24h != nil {
			coin.PriceChange24h = *md.PriceChange24h
		}
		coin.PriceChangePercent24h = md.PriceChangePercentage24h
		coin.CirculatingSupply = md.CirculatingSupply
		coin.TotalSupply = md.TotalSupply
		coin.ATH = md.ATH.null()
		coin.ATHDate = md.ATHDate.time()
		coin.ATL = md.ATL.null()
		coin.ATLDate = md.ATLDate.time()
	}
	return coin, nil
}

// MaxListingLimit is the largest page size the markets endpoint accepts.
const MaxListingLimit = 250

func (f *CoinGeckoFetcher) FetchMarkets(ctx context.Context, limit int) ([]model.MarketCoin, error) {
	if limit < 1 || limit > MaxListingLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	endpoint := fmt.Sprintf("%s/markets?%s", f.BaseURL, q.Encode())

	var coins []model.MarketCoin
	if err := f.get(ctx, "markets", "", endpoint, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// get issues one GET request and decodes the JSON body into out.
func (f *CoinGeckoFetcher) get(ctx context.Context, op, assetID, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &RetrievalError{Op: op, AssetID: assetID, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return &RetrievalError{Op: op, AssetID: assetID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &RetrievalError{
			Op:      op,
			AssetID: assetID,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RetrievalError{Op: op, AssetID: assetID, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	first, _, found := strings.Cut(text, ". ")
	if !found {
		return text
	}
	return first + "."
}
