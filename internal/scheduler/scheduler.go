package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TickFunc is invoked at every scheduled time.
type TickFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour. A non-empty Cron expression (standard
// five fields, evaluated in Location) takes precedence over Interval.
type Options struct {
	Cron         string
	Interval     time.Duration
	Align        bool
	Offset       time.Duration
	StartupDelay time.Duration
	Location     *time.Location
}

// Scheduler fires a TickFunc on a cron schedule or a fixed cadence, the latter
// optionally aligned to local midnight plus Offset.
type Scheduler struct {
	opts     Options
	schedule cron.Schedule
	logger   zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	s := &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
	if opts.Cron != "" {
		schedule, err := cron.ParseStandard(opts.Cron)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", opts.Cron, err)
		}
		s.schedule = schedule
		return s, nil
	}

	if opts.Interval <= 0 {
		return nil, errors.New("scheduler interval must be positive")
	}
	return s, nil
}

// Run blocks, invoking tick at each scheduled time until ctx is cancelled.
// Tick errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	next := s.NextTick(time.Now())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.NextTick(time.Now())
			delay = time.Until(next)
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_tick", next).Msg("waiting for next tick")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		s.logger.Info().Time("tick", next).Msg("executing scheduled tick")
		if err := tick(ctx, next); err != nil {
			s.logger.Error().Err(err).Time("tick", next).Msg("tick execution failed")
		}

		next = s.NextTick(next)
	}
}

// NextTick returns the first scheduled time strictly after now.
func (s *Scheduler) NextTick(now time.Time) time.Time {
	if s.schedule != nil {
		return s.schedule.Next(now.In(s.opts.Location))
	}
	if !s.opts.Align {
		return now.Add(s.opts.Interval)
	}

	local := now.In(s.opts.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.opts.Location).Add(s.opts.Offset)
	for next.After(now) {
		next = next.Add(-s.opts.Interval)
	}
	for !next.After(now) {
		next = next.Add(s.opts.Interval)
	}
	return next
}
