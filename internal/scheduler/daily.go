// Package scheduler runs a job once a day at a wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"time"

	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// ClockTime is an hour and minute of the day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	var c ClockTime
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil || len(s) != 5 {
		return ClockTime{}, fmt.Errorf("scheduler: time must be HH:MM, got %q", s)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return ClockTime{}, fmt.Errorf("scheduler: time out of range: %q", s)
	}
	return c, nil
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// NextRun returns the first instant strictly after now at c in loc.
func NextRun(now time.Time, c ClockTime, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, c.Hour, c.Minute, 0, 0, loc)
	}
	return next
}

// Daily runs job every day at c in loc until ctx is done. Job errors are
// logged; the next day's run is still scheduled.
type Daily struct {
	at     ClockTime
	loc    *time.Location
	job    func(ctx context.Context) error
	logger logpkg.Logger
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

// NewDaily returns a Daily schedule.
func NewDaily(at ClockTime, loc *time.Location, job func(ctx context.Context) error, logger logpkg.Logger) *Daily {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("scheduler"))
	}
	return &Daily{at: at, loc: loc, job: job, logger: logger, now: time.Now, after: time.After}
}

// Run blocks until ctx is done.
func (d *Daily) Run(ctx context.Context) error {
	for {
		next := NextRun(d.now(), d.at, d.loc)
		d.logger.Info("next daily run scheduled", logpkg.Str("at", next.Format(time.RFC3339)))
		select {
		case <-ctx.Done():
			return nil
		case <-d.after(time.Until(next)):
		}
		if err := d.job(ctx); err != nil {
			d.logger.Error("daily job failed", logpkg.Err(err))
		}
	}
}
