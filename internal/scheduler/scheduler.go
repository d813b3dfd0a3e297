// Package scheduler runs a task once per day at a fixed wall-clock time.
package scheduler

import (
	"context"
	"log"
	"time"
)

// Task is the work the scheduler runs each day. Errors are logged and the
// schedule continues.
type Task func(ctx context.Context) error

// Daily fires a task every day at hour:minute in the given location.
type Daily struct {
	name   string
	hour   int
	minute int
	loc    *time.Location
	task   Task
	logger *log.Logger
}

// NewDaily builds a daily schedule. loc may be nil for the local timezone.
func NewDaily(name string, hour, minute int, loc *time.Location, task Task, logger *log.Logger) *Daily {
	if loc == nil {
		loc = time.Local
	}
	return &Daily{
		name:   name,
		hour:   hour,
		minute: minute,
		loc:    loc,
		task:   task,
		logger: logger,
	}
}

// NextRun returns the first hour:minute occurrence strictly after now.
func (d *Daily) NextRun(now time.Time) time.Time {
	local := now.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks, firing the task at each scheduled time, until ctx is canceled.
func (d *Daily) Run(ctx context.Context) error {
	next := d.NextRun(time.Now())
	d.logger.Printf("Scheduled task %s to run daily at %02d:%02d %s (next run: %s)",
		d.name, d.hour, d.minute, d.loc, next.Format(time.RFC1123))

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			d.logger.Printf("Running task %s", d.name)
			if err := d.task(ctx); err != nil {
				d.logger.Printf("Task %s failed: %v", d.name, err)
			}

			next = d.NextRun(time.Now())
			d.logger.Printf("Next run of task %s: %s", d.name, next.Format(time.RFC1123))
			timer.Reset(time.Until(next))
		}
	}
}
