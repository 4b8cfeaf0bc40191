// Package observability provides Prometheus metrics for the chart pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coindash"

// Fetch results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultEmpty = "empty"
	ResultError = "error"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FetchesTotal         *prometheus.CounterVec
	FetchDuration        *prometheus.HistogramVec
	StaleResponsesTotal  prometheus.Counter
	SeriesPoints         prometheus.Gauge
	UpstreamRequestTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers all metrics with reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration on the default registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "fetches_total",
			Help:      "Total number of accepted market chart fetches by result",
		}, []string{"result"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "fetch_duration_seconds",
			Help:      "Market chart fetch latency by lookback window",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"days"}),
		StaleResponsesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "stale_responses_total",
			Help:      "Total number of fetch completions discarded because a newer selection was made",
		}),
		SeriesPoints: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "series_points",
			Help:      "Number of samples in the currently displayed series",
		}),
		UpstreamRequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of coin detail and listing requests by operation and result",
		}, []string{"op", "result"}),
		gatherer: reg,
	}
}

// ObserveFetch records the latency of one market chart request.
func (m *Metrics) ObserveFetch(days string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(days).Observe(d.Seconds())
}

// RecordAccepted counts a completion that became the current series.
func (m *Metrics) RecordAccepted(result string, points int) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
	m.SeriesPoints.Set(float64(points))
}

// RecordStale counts a discarded out-of-date completion.
func (m *Metrics) RecordStale() {
	if m == nil {
		return
	}
	m.StaleResponsesTotal.Inc()
}

// RecordUpstream counts a coin detail or listing request.
func (m *Metrics) RecordUpstream(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.UpstreamRequestTotal.WithLabelValues(op, result).Inc()
}

// Handler returns the HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
