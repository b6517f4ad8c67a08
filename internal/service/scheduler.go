package service

import (
	"context"
	"time"
)

// RunLifecycle runs RunDaily once immediately and then every interval until
// ctx is cancelled. RunDaily is idempotent, so overlapping with a manual
// trigger or another instance only repeats no-op writes.
func (s *BookingService) RunLifecycle(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	run := func() {
		if _, err := s.RunDaily(ctx); err != nil && ctx.Err() == nil {
			s.Log.WithError(err).Error("lifecycle pass failed")
		}
	}
	run()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
