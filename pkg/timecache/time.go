package timecache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nite-coder/ccipgate/internal/pkg/safety"
)

// TimeCache keeps a wall clock reading that a background goroutine refreshes every interval.
type TimeCache struct {
	now      atomic.Pointer[time.Time]
	interval time.Duration
	stopCh   chan struct{}
}

// New starts a TimeCache. Zero means one second; anything under a millisecond is raised to one.
func New(interval time.Duration) *TimeCache {
	switch {
	case interval == 0:
		interval = time.Second
	case interval < time.Millisecond:
		interval = time.Millisecond
	}

	tc := &TimeCache{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	tc.store(time.Now())

	go safety.Go(context.Background(), tc.refresh)
	return tc
}

func (tc *TimeCache) Now() time.Time {
	return *tc.now.Load()
}

func (tc *TimeCache) Interval() time.Duration {
	return tc.interval
}

func (tc *TimeCache) Close() {
	close(tc.stopCh)
}

func (tc *TimeCache) store(t time.Time) {
	tc.now.Store(&t)
}

func (tc *TimeCache) refresh() {
	ticker := time.NewTicker(tc.interval)
	defer ticker.Stop()

	for {
		select {
		case t := <-ticker.C:
			tc.store(t)
		case <-tc.stopCh:
			return
		}
	}
}
