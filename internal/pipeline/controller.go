// Package pipeline owns the chart state: the selected asset and range, the
// current series and its load status, and the hover readout derived from it.
package pipeline

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"CoinDash/internal/chart"
	"CoinDash/internal/collector"
	"CoinDash/internal/hover"
	"CoinDash/internal/logger"
	"CoinDash/internal/model"
	"CoinDash/internal/observability"
)

// Controller is the state container for one chart view.
//
// Every selection change bumps a sequence token and starts one fetch tagged
// with it. A completion whose token no longer matches is discarded, so the
// displayed series always belongs to the most recent selection regardless
// of completion order.
//
// Subscribers are called synchronously, in the order the state changed, and
// must not call back into the Controller; the Event carries the snapshot.
type Controller struct {
	fetcher collector.Fetcher
	metrics *observability.Metrics
	log     zerolog.Logger

	mu        sync.Mutex
	seq       uint64
	state     Snapshot
	reference decimal.NullDecimal
	readout   *model.HoverReadout
	subs      map[int]func(Event)
	nextSub   int

	// pubMu is taken before mu is released so that events reach
	// subscribers in the order the state changed.
	pubMu sync.Mutex
	wg    sync.WaitGroup
}

// NewController creates an idle controller with the default range selected.
func NewController(fetcher collector.Fetcher, metrics *observability.Metrics, log zerolog.Logger) *Controller {
	return &Controller{
		fetcher: fetcher,
		metrics: metrics,
		log:     logger.Component(log, "pipeline"),
		state: Snapshot{
			Status:      StatusIdle,
			Range:       chart.DefaultRange,
			Granularity: chart.GranularityFor(chart.DefaultRange.LookbackDays),
		},
		subs: make(map[int]func(Event)),
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Readout returns the readout currently shown, if any.
func (c *Controller) Readout() (model.HoverReadout, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readout == nil {
		return model.HoverReadout{}, false
	}
	return *c.readout, true
}

// ReferencePrice returns the externally supplied current price.
func (c *Controller) ReferencePrice() decimal.NullDecimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reference
}

// Subscribe registers fn for all future events and returns a func that
// removes it.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Select switches to assetID and r, enters loading, and starts a fetch.
// It returns the sequence token of the new fetch.
func (c *Controller) Select(ctx context.Context, assetID string, r model.RangeOption) uint64 {
	c.mu.Lock()
	c.seq++
	token := c.seq
	if assetID != c.state.AssetID {
		c.reference = decimal.NullDecimal{}
	}
	c.state = Snapshot{
		Status:      StatusLoading,
		AssetID:     assetID,
		Range:       r,
		Granularity: chart.GranularityFor(r.LookbackDays),
		Series:      model.Series{AssetID: assetID, LookbackDays: r.LookbackDays},
		Seq:         token,
	}
	events := []Event{{Kind: EventState, Snapshot: c.state}}
	if c.readout != nil {
		c.readout = nil
		events = append(events, Event{Kind: EventHover, Snapshot: c.state})
	}
	c.publishLocked(events...)

	c.log.Debug().Str("asset", assetID).Str("range", r.Label).Uint64("seq", token).Msg("fetch started")

	c.wg.Add(1)
	go c.run(ctx, token, assetID, r)
	return token
}

// SetAsset selects assetID keeping the current range.
func (c *Controller) SetAsset(ctx context.Context, assetID string) uint64 {
	r := c.Snapshot().Range
	return c.Select(ctx, assetID, r)
}

// SetRange selects r keeping the current asset. With no asset selected yet
// it only records the range and returns 0.
func (c *Controller) SetRange(ctx context.Context, r model.RangeOption) uint64 {
	c.mu.Lock()
	assetID := c.state.AssetID
	if assetID == "" {
		c.state.Range = r
		c.state.Granularity = chart.GranularityFor(r.LookbackDays)
		c.publishLocked(Event{Kind: EventState, Snapshot: c.state})
		return 0
	}
	c.mu.Unlock()
	return c.Select(ctx, assetID, r)
}

// Refresh re-fetches the current selection. It returns 0 when nothing is
// selected.
func (c *Controller) Refresh(ctx context.Context) uint64 {
	snap := c.Snapshot()
	if snap.AssetID == "" {
		return 0
	}
	return c.Select(ctx, snap.AssetID, snap.Range)
}

// SetReferencePrice updates the price hover deltas are measured against.
// The price belongs to assetID and is ignored unless assetID is the current
// selection; selecting another asset clears it. It reports whether the price
// was accepted. A readout on screen is recomputed against the new value.
func (c *Controller) SetReferencePrice(assetID string, ref decimal.NullDecimal) bool {
	c.mu.Lock()
	if assetID == "" || assetID != c.state.AssetID {
		current := c.state.AssetID
		c.mu.Unlock()
		c.log.Debug().Str("asset", assetID).Str("current", current).Msg("discarding reference price for another asset")
		return false
	}
	c.reference = ref
	if c.readout == nil {
		c.mu.Unlock()
		return true
	}
	r, ok := hover.Project(c.readout.Time, c.state.Series, ref)
	if ok {
		c.readout = &r
	} else {
		c.readout = nil
	}
	c.publishLocked(c.hoverEventLocked())
	return true
}

// Hover projects cursor (epoch millis) onto the current series and publishes
// the resulting readout. The readout is cleared when the series is not ready
// or the cursor lies outside the plotted span.
func (c *Controller) Hover(cursor int64) (model.HoverReadout, bool) {
	c.mu.Lock()
	var (
		r  model.HoverReadout
		ok bool
	)
	if c.state.Status == StatusReady {
		r, ok = hover.Project(cursor, c.state.Series, c.reference)
	}
	hadReadout := c.readout != nil
	if ok {
		c.readout = &r
	} else {
		c.readout = nil
	}
	if !ok && !hadReadout {
		c.mu.Unlock()
		return r, false
	}
	c.publishLocked(c.hoverEventLocked())
	return r, ok
}

// Leave clears the readout when the cursor exits the chart area.
func (c *Controller) Leave() {
	c.mu.Lock()
	if c.readout == nil {
		c.mu.Unlock()
		return
	}
	c.readout = nil
	c.publishLocked(c.hoverEventLocked())
}

// Wait blocks until all in-flight fetches have completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) run(ctx context.Context, token uint64, assetID string, r model.RangeOption) {
	defer c.wg.Done()

	start := time.Now()
	points, err := c.fetcher.FetchMarketChart(ctx, assetID, r.LookbackDays)
	c.metrics.ObserveFetch(strconv.Itoa(r.LookbackDays), time.Since(start))

	c.mu.Lock()
	if token != c.seq {
		current := c.seq
		c.mu.Unlock()
		c.metrics.RecordStale()
		c.log.Debug().Str("asset", assetID).Str("range", r.Label).
			Uint64("seq", token).Uint64("current", current).Msg("discarding stale response")
		return
	}

	events := []Event{}
	if c.readout != nil {
		c.readout = nil
		events = append(events, Event{Kind: EventHover})
	}
	if err != nil {
		c.state.Status = StatusFailed
		c.state.Err = err
		c.state.Series = model.Series{AssetID: assetID, LookbackDays: r.LookbackDays}
		c.metrics.RecordAccepted(observability.ResultError, 0)
		c.log.Error().Err(err).Str("asset", assetID).Str("range", r.Label).Msg("chart fetch failed")
	} else {
		c.state.Status = StatusReady
		c.state.Err = nil
		c.state.Series = model.Series{AssetID: assetID, LookbackDays: r.LookbackDays, Points: points}
		result := observability.ResultOK
		if len(points) == 0 {
			result = observability.ResultEmpty
		}
		c.metrics.RecordAccepted(result, len(points))
		c.log.Info().Str("asset", assetID).Str("range", r.Label).Int("points", len(points)).
			Dur("took", time.Since(start)).Msg("series ready")
	}
	for i := range events {
		events[i].Snapshot = c.state
	}
	events = append(events, Event{Kind: EventState, Snapshot: c.state})
	c.publishLocked(events...)
}

func (c *Controller) hoverEventLocked() Event {
	ev := Event{Kind: EventHover, Snapshot: c.state}
	if c.readout != nil {
		r := *c.readout
		ev.Readout = &r
	}
	return ev
}

// publishLocked must be called with mu held; it releases mu and delivers
// events to a snapshot of the subscribers while holding pubMu.
func (c *Controller) publishLocked(events ...Event) {
	subs := make([]func(Event), 0, len(c.subs))
	for id := 0; id < c.nextSub; id++ {
		if fn, ok := c.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	c.pubMu.Lock()
	c.mu.Unlock()
	defer c.pubMu.Unlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}
