package server

import (
	"context"
	"time"

	"presale-tracker/utils"
)

// The open-data platform publishes the weekly batch on Wednesdays; refresh
// shortly after noon local time.
const (
	refreshWeekday = time.Wednesday
	refreshHour    = 12
	refreshMinute  = 0
)

// ShouldRefresh reports whether now falls in the weekly refresh minute.
func ShouldRefresh(now time.Time) bool {
	return now.Weekday() == refreshWeekday && now.Hour() == refreshHour && now.Minute() == refreshMinute
}

// Scheduler triggers a refresh once per weekly window.
type Scheduler struct {
	logger   *utils.Logger
	interval time.Duration
	refresh  func(ctx context.Context) error
	now      func() time.Time
	last     time.Time
}

// NewScheduler creates a Scheduler checking every minute.
func NewScheduler(logger *utils.Logger, refresh func(ctx context.Context) error) *Scheduler {
	return &Scheduler{
		logger:   logger,
		interval: time.Minute,
		refresh:  refresh,
		now:      time.Now,
	}
}

// Run checks the clock every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("[scheduler] Weekly refresh armed for %s %02d:%02d", refreshWeekday, refreshHour, refreshMinute)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("[scheduler] Stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick refreshes if the current minute is the refresh window and this window
// has not fired yet. It reports whether a refresh ran.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.now()
	if !ShouldRefresh(now) {
		return false
	}
	if !s.last.IsZero() && now.Sub(s.last) < time.Hour {
		return false
	}
	s.last = now

	s.logger.Info("[scheduler] Weekly refresh triggered")
	if err := s.refresh(ctx); err != nil {
		s.logger.Error("[scheduler] Weekly refresh failed: %v", err)
	}
	return true
}
