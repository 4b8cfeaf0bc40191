package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"CoinDash/internal/logger"
	"CoinDash/internal/market"
	"CoinDash/internal/pipeline"
)

// Scheduler manages the periodic refresh of the dashboard.
type Scheduler struct {
	Cron       *cron.Cron
	Controller *pipeline.Controller
	Market     *market.Service
	Ctx        context.Context
	log        zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, ctrl *pipeline.Controller, svc *market.Service, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Controller: ctrl,
		Market:     svc,
		Ctx:        ctx,
		log:        logger.Component(log, "scheduler"),
	}
}

// RegisterAll registers the refresh task. An empty expression disables it.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if refreshCron == "" {
		s.log.Info().Msg("refresh disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.log.Info().Str("cron", refreshCron).Msg("refresh task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the refresh task immediately.
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

// refreshTask updates the reference price from the coin detail and then
// re-fetches the current chart selection.
func (s *Scheduler) refreshTask() {
	snap := s.Controller.Snapshot()
	if snap.AssetID == "" {
		s.log.Debug().Msg("nothing selected, skipping refresh")
		return
	}

	coin, err := s.Market.Coin(s.Ctx, snap.AssetID)
	if err != nil {
		s.log.Warn().Err(err).Str("asset", snap.AssetID).Msg("reference price refresh failed")
	} else {
		// Dropped by the controller if the selection moved on while fetching.
		s.Controller.SetReferencePrice(snap.AssetID, coin.ReferencePrice())
	}

	seq := s.Controller.Refresh(s.Ctx)
	s.log.Info().Str("asset", snap.AssetID).Str("range", snap.Range.Label).Uint64("seq", seq).Msg("chart refresh started")
}
