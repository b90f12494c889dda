// Package alerts periodically checks pending price alerts against the
// latest cached prices and fires notifications for the ones that match.
package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/internal/notification"
)

// PriceSource answers "what did this symbol last trade at". Backed by
// the Redis cache in production; anything with a latest price works.
type PriceSource interface {
	LatestPrice(ctx context.Context, symbol string) (float64, bool)
}

// Sweeper scans untriggered alerts on a cron schedule.
type Sweeper struct {
	store     model.AlertStore
	prices    PriceSource
	notifiers []notification.Notifier
	metrics   *metrics.Metrics
	log       *slog.Logger

	cron *cron.Cron
}

// NewSweeper creates a Sweeper. Metrics may be nil.
func NewSweeper(store model.AlertStore, prices PriceSource, notifiers []notification.Notifier, m *metrics.Metrics, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:     store,
		prices:    prices,
		notifiers: notifiers,
		metrics:   m,
		log:       log,
	}
}

// Start schedules sweeps per spec (e.g. "@every 30s") and starts the
// cron runner.
func (s *Sweeper) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.log.Info("alert sweeper started", slog.String("schedule", spec))
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep runs one pass over the pending alerts. Exported so callers can
// force a check outside the schedule.
func (s *Sweeper) Sweep(ctx context.Context) {
	pending, err := s.store.PendingAlerts()
	if err != nil {
		s.log.Error("alert sweep: pending lookup failed", slog.String("error", err.Error()))
		return
	}

	for _, a := range pending {
		price, ok := s.prices.LatestPrice(ctx, a.Symbol)
		if !ok {
			continue // symbol not streaming, nothing to compare against
		}
		if !a.Matches(price) {
			continue
		}

		if err := s.store.MarkTriggered(a.ID, price); err != nil {
			s.log.Error("alert sweep: mark triggered failed",
				slog.String("alert_id", a.ID),
				slog.String("error", err.Error()))
			continue
		}
		if s.metrics != nil {
			s.metrics.AlertsTriggered.Inc()
		}
		s.log.Info("alert triggered",
			slog.String("alert_id", a.ID),
			slog.String("symbol", a.Symbol),
			slog.String("condition", a.Condition),
			slog.Float64("target", a.TargetPrice),
			slog.Float64("price", price))

		ev := notification.Event{
			AlertID:     a.ID,
			Symbol:      a.Symbol,
			Condition:   a.Condition,
			TargetPrice: a.TargetPrice,
			Price:       price,
			TriggeredAt: time.Now().UTC(),
		}
		for _, n := range s.notifiers {
			if err := n.Send(ctx, ev); err != nil {
				s.log.Warn("alert notification failed",
					slog.String("alert_id", a.ID),
					slog.String("error", err.Error()))
			}
		}
	}
}
