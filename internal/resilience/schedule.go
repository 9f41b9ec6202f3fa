package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Schedule is a declared list of delays, one per retry. An operation run
// under a Schedule is attempted len(Schedule)+1 times in total; the i-th
// retry sleeps Schedule[i] first. The waits are deliberate synchronous
// pauses against rate limiting, not cooperative suspensions; nothing else
// proceeds while a schedule sleeps.
type Schedule []time.Duration

// DefaultSchedule returns the standard listing-retry schedule.
func DefaultSchedule() Schedule {
	return Schedule{0, 8 * time.Second, 20 * time.Second, 45 * time.Second}
}

// Attempts returns the total number of attempts the schedule allows.
func (s Schedule) Attempts() int {
	return len(s) + 1
}

// Do invokes fn up to Attempts() times, sleeping the scheduled delay before
// each retry. fn reports whether its result is acceptable; Do returns true
// as soon as an attempt is accepted, false when the schedule is exhausted
// or the context is cancelled. Attempt numbers start at 1.
func (s Schedule) Do(ctx context.Context, fn func(ctx context.Context, attempt int) bool) bool {
	for attempt := 1; attempt <= s.Attempts(); attempt++ {
		if attempt > 1 {
			delay := s[attempt-2]
			if !Wait(ctx, delay) {
				return false
			}
			zap.L().Debug("retrying after scheduled delay",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
		}
		if fn(ctx, attempt) {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

// Wait sleeps for d or until the context is cancelled. Returns false on
// cancellation.
func Wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
