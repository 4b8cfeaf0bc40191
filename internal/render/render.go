// Package render draws a price series as a PNG line chart.
package render

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"CoinDash/internal/chart"
	"CoinDash/internal/model"
)

// ErrNoData is returned for an empty series.
var ErrNoData = errors.New("render: no samples to draw")

const (
	defaultWidth  = 960
	defaultHeight = 400
)

var lineColor = drawing.ColorFromHex("007bff")

// Options controls the output size; zero values use the defaults.
type Options struct {
	Width  int
	Height int
}

// PNG writes series as a filled line chart. X-axis labels follow g.
func PNG(w io.Writer, series model.Series, g chart.Granularity, opts Options) error {
	if series.Empty() {
		return ErrNoData
	}
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}

	xs := make([]time.Time, 0, series.Len()+1)
	ys := make([]float64, 0, series.Len()+1)
	for _, p := range series.Points {
		xs = append(xs, p.Time())
		f, _ := p.Price.Float64()
		ys = append(ys, f)
	}
	// go-chart needs two distinct x values to build a range.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(time.Second))
		ys = append(ys, ys[0])
	}

	graph := gochart.Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 10}},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat(g.TickLayout()),
		},
		YAxis: gochart.YAxis{
			ValueFormatter: priceFormatter,
			Range:          paddedRange(ys),
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "Price (USD)",
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
					FillColor:   lineColor.WithAlpha(26),
				},
			},
		},
	}
	return graph.Render(gochart.PNG, w)
}

// paddedRange widens the y extent by 5% on each side, and by at least one
// cent for a flat series, since go-chart cannot scale a zero-height range.
func paddedRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.01, 0.01)
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func priceFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return "$" + humanize.CommafWithDigits(f, 2)
	}
	return ""
}
