package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler computes when the next cycle should start. A cron expression
// wins over the fixed interval; either way the clock starts when Wait is
// called, so cycles never overlap.
type Scheduler struct {
	schedule cron.Schedule
	now      func() time.Time
}

func New(spec string, interval time.Duration) (*Scheduler, error) {
	if spec != "" {
		schedule, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
		}
		return FromSchedule(schedule), nil
	}
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	return FromSchedule(cron.Every(interval)), nil
}

func FromSchedule(schedule cron.Schedule) *Scheduler {
	return &Scheduler{schedule: schedule, now: time.Now}
}

func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(s.now())
}

// Wait blocks until the next activation or until ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	now := s.now()
	delay := s.schedule.Next(now).Sub(now)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
