// Package scheduler drives the recurring expiry jobs: notification passes at
// several lead times and the daily sweep that stamps overdue assets as
// expired.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"triostack/internal/service"
)

// Scheduler owns the cron runner. Jobs run in UTC so the deployment's
// timezone cannot shift notification times.
type Scheduler struct {
	cron     *cron.Cron
	assets   service.AssetService
	notifier service.Notifier
}

func New(assets service.AssetService, notifier service.Notifier) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		assets:   assets,
		notifier: notifier,
	}
}

// Start registers the jobs and launches the cron loop. Call once.
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func(ctx context.Context) error
	}{
		{"0 9 * * *", "notify-expiring-30d", func(ctx context.Context) error {
			return s.notifier.NotifyExpiring(ctx, 30)
		}},
		{"0 10 * * *", "sweep-expired", s.sweepExpired},
		{"0 8 * * 1", "notify-expiring-90d", func(ctx context.Context) error {
			return s.notifier.NotifyExpiring(ctx, 90)
		}},
		{"0 * * * *", "notify-expiring-1d", func(ctx context.Context) error {
			return s.notifier.NotifyExpiring(ctx, 1)
		}},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, s.wrap(job.name, job.run)); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Info().Int("jobs", len(jobs)).Msg("scheduler started")
	return nil
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// sweepExpired notifies about newly overdue assets, then stamps them as
// expired. Notification runs first: the sweep removes them from the overdue
// query.
func (s *Scheduler) sweepExpired(ctx context.Context) error {
	if err := s.notifier.NotifyExpired(ctx); err != nil {
		log.Error().Err(err).Msg("expired notification pass failed")
	}
	updated, err := s.assets.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if updated > 0 {
		log.Info().Int64("updated", updated).Msg("assets marked as expired")
	}
	return nil
}

// wrap gives every job a timeout, structured logging and panic isolation so
// one failing job cannot take the scheduler down.
func (s *Scheduler) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("job", name).Interface("panic", r).Msg("scheduled job panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			log.Error().Str("job", name).Err(err).Msg("scheduled job failed")
			return
		}
		log.Info().Str("job", name).Dur("took", time.Since(start)).Msg("scheduled job completed")
	}
}
