// Package scheduler triggers the daily expiration scan. No repo in this
// codebase's orbit needs more than one fixed daily job, so this is a plain
// timer loop rather than a cron dependency.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is a dated task; the scheduler passes the day it fired for.
type Job func(ctx context.Context, today time.Time)

// Daily runs a job once per day at the configured hour and minute.
type Daily struct {
	hour   int
	minute int
	job    Job
	logger *zap.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewDaily creates a scheduler that fires at hour:minute local time.
func NewDaily(hour, minute int, job Job, logger *zap.Logger) *Daily {
	return &Daily{
		hour:   hour,
		minute: minute,
		job:    job,
		logger: logger,
		now:    time.Now,
	}
}

// NextRun returns the next occurrence of the configured time after from.
func (d *Daily) NextRun(from time.Time) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), d.hour, d.minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks, firing the job at each scheduled time, until ctx is cancelled.
func (d *Daily) Run(ctx context.Context) {
	for {
		now := d.now()
		next := d.NextRun(now)
		d.logger.Info("next scheduled run",
			zap.Time("at", next),
		)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case fired := <-timer.C:
			d.job(ctx, fired)
		}
	}
}
