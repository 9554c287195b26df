package run

import (
	"context"
	"time"
)

// RunClock ticks every running run once per interval until ctx is done.
func (s *Service) RunClock(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.runClock(ctx, ticker.C, interval)
}

func (s *Service) runClock(ctx context.Context, ticks <-chan time.Time, interval time.Duration) {
	var pending time.Duration
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			pending += interval
			if whole := pending.Truncate(time.Second); whole > 0 {
				pending -= whole
				s.TickAll(uint64(whole / time.Second))
			}
		}
	}
}
