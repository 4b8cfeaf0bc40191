package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"CoinDash/internal/calculator"
	"CoinDash/internal/chart"
	"CoinDash/internal/collector"
	"CoinDash/internal/format"
	"CoinDash/internal/market"
	"CoinDash/internal/model"
	"CoinDash/internal/pipeline"
	"CoinDash/internal/render"
)

const aboutText = "CoinDash is a cryptocurrency dashboard that tracks prices, market trends " +
	"and coin details. Price history can be viewed over several lookback windows, " +
	"and hovering the chart reports the price at that moment and its change against " +
	"the current price."

// chartView is the JSON form of a pipeline snapshot.
type chartView struct {
	Status      pipeline.Status     `json:"status"`
	AssetID     string              `json:"asset_id,omitempty"`
	Range       model.RangeOption   `json:"range"`
	Granularity chart.Granularity   `json:"granularity"`
	Seq         uint64              `json:"seq"`
	Points      []model.PricePoint  `json:"points"`
	Stats       *calculator.Stats   `json:"stats,omitempty"`
	Reference   decimal.NullDecimal `json:"reference"`
	Readout     *format.Readout     `json:"readout,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type coinView struct {
	*model.CoinDetail
	FormattedPrice string `json:"formatted_price"`
	FormattedHigh  string `json:"formatted_high_24h"`
	FormattedLow   string `json:"formatted_low_24h"`
	Up             bool   `json:"up"`
}

type rangeRequest struct {
	Range string `json:"range" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "coindash",
		"timestamp": time.Now(),
	})
}

func (s *Server) about(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"title": "About CoinDash", "text": aboutText})
}

func (s *Server) listRanges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ranges": chart.Ranges, "default": chart.DefaultRange})
}

func (s *Server) listCoins(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > collector.MaxListingLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer within 1..250"})
			return
		}
		limit = n
	}
	key, err := market.ParseSort(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coins, err := s.Market.Listing(c.Request.Context(), limit, c.Query("filter"), key)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins, "sort": key})
}

// getCoin returns the coin detail and makes it the charted asset, with its
// current price as the hover reference.
func (s *Server) getCoin(c *gin.Context) {
	id := c.Param("id")
	coin, err := s.Market.Coin(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	seq := s.Controller.SetAsset(s.ctx, id)
	s.Controller.SetReferencePrice(id, coin.ReferencePrice())

	c.JSON(http.StatusOK, gin.H{
		"coin": coinView{
			CoinDetail:     coin,
			FormattedPrice: format.NullPrice(coin.CurrentPrice),
			FormattedHigh:  format.NullPrice(coin.High24h),
			FormattedLow:   format.NullPrice(coin.Low24h),
			Up:             coin.IsUp(),
		},
		"seq": seq,
	})
}

func (s *Server) getChart(c *gin.Context) {
	c.JSON(http.StatusOK, s.chartView())
}

func (s *Server) setRange(c *gin.Context) {
	var req rangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := chart.ParseRange(req.Range)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	seq := s.Controller.SetRange(s.ctx, r)
	c.JSON(http.StatusAccepted, gin.H{"range": r, "seq": seq})
}

func (s *Server) hover(c *gin.Context) {
	t, err := strconv.ParseInt(c.Query("t"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "t must be epoch milliseconds"})
		return
	}
	r, ok := s.Controller.Hover(t)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, format.FormatReadout(r, s.opts.Location))
}

func (s *Server) leave(c *gin.Context) {
	s.Controller.Leave()
	c.Status(http.StatusNoContent)
}

func (s *Server) chartPNG(c *gin.Context) {
	snap := s.Controller.Snapshot()
	if snap.Status != pipeline.StatusReady {
		c.JSON(http.StatusConflict, gin.H{"error": "chart is " + string(snap.Status)})
		return
	}

	opts := render.Options{}
	if v, err := strconv.Atoi(c.Query("width")); err == nil && v > 0 && v <= 4096 {
		opts.Width = v
	}
	if v, err := strconv.Atoi(c.Query("height")); err == nil && v > 0 && v <= 4096 {
		opts.Height = v
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, snap.Series, snap.Granularity, opts); err != nil {
		if errors.Is(err, render.ErrNoData) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error().Err(err).Str("asset", snap.AssetID).Msg("render chart failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) chartView() chartView {
	snap := s.Controller.Snapshot()
	ref := s.Controller.ReferencePrice()
	v := chartView{
		Status:      snap.Status,
		AssetID:     snap.AssetID,
		Range:       snap.Range,
		Granularity: snap.Granularity,
		Seq:         snap.Seq,
		Points:      snap.Series.Points,
		Reference:   ref,
	}
	if v.Points == nil {
		v.Points = []model.PricePoint{}
	}
	if snap.Err != nil {
		v.Error = snap.Err.Error()
	}
	if snap.Status == pipeline.StatusReady && !snap.Series.Empty() {
		if st, err := calculator.Summarize(snap.Series.Points, ref); err == nil {
			v.Stats = &st
		}
	}
	if r, ok := s.Controller.Readout(); ok {
		fr := format.FormatReadout(r, s.opts.Location)
		v.Readout = &fr
	}
	return v
}

// writeError maps validation errors to 400 and upstream failures to 502.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, collector.ErrInvalidAsset), errors.Is(err, collector.ErrInvalidLimit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, collector.ErrRetrieval):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
