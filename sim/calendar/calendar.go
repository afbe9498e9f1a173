// Package calendar maps virtual ticks onto calendar time so that activities
// can follow cron schedules ("every Monday at 06:00") inside a simulation.
// Nothing here reads the wall clock.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/PSum/simulation-python-test/sim"
)

// ErrNoOccurrence is returned when a schedule never fires again.
var ErrNoOccurrence = errors.New("calendar: schedule has no further occurrence")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Calendar anchors tick 0 at Epoch; each tick lasts Tick.
type Calendar struct {
	Epoch time.Time
	Tick  time.Duration
}

// New validates and returns a Calendar.
func New(epoch time.Time, tick time.Duration) (Calendar, error) {
	if tick <= 0 {
		return Calendar{}, fmt.Errorf("calendar: tick must be positive, got %s", tick)
	}
	return Calendar{Epoch: epoch, Tick: tick}, nil
}

// At returns the calendar time of a virtual time.
func (c Calendar) At(ticks int64) time.Time {
	return c.Epoch.Add(time.Duration(ticks) * c.Tick)
}

// Parse parses a standard five-field cron spec (or a descriptor such as
// "@weekly"), evaluated in the epoch's location.
func (c Calendar) Parse(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron schedule %q: %w", spec, err)
	}
	if ss, ok := sched.(*cron.SpecSchedule); ok {
		ss.Location = c.Epoch.Location()
	}
	return sched, nil
}

// TicksUntil returns the delay from now to the next occurrence strictly after
// now, rounded up to whole ticks and never less than one.
func (c Calendar) TicksUntil(sched cron.Schedule, now int64) (int64, error) {
	from := c.At(now)
	next := sched.Next(from)
	if next.IsZero() {
		return 0, ErrNoOccurrence
	}
	d := next.Sub(from)
	ticks := int64(d / c.Tick)
	if d%c.Tick != 0 {
		ticks++
	}
	return max(ticks, 1), nil
}

// WaitNext suspends p until the next occurrence of sched.
func (c Calendar) WaitNext(p *sim.Process, sched cron.Schedule) error {
	d, err := c.TicksUntil(sched, p.Now())
	if err != nil {
		return err
	}
	return p.Sleep(d)
}
