// Package coarsetime provides a clock refreshed every 50ms by a background
// goroutine. Sessions stamp every round trip with it, so reading it must be
// cheaper than time.Now.
package coarsetime

import (
	"sync/atomic"
	"time"
)

const tick = 50 * time.Millisecond

var now atomic.Pointer[time.Time]

func init() {
	store(time.Now())

	ticker := time.NewTicker(tick)
	go func() {
		for t := range ticker.C {
			store(t)
		}
	}()
}

func store(t time.Time) {
	now.Store(&t)
}

// Now returns the current time with a resolution of one tick.
func Now() time.Time {
	return *now.Load()
}

// Since returns the time elapsed since t, at tick resolution.
// The result is never negative.
func Since(t time.Time) time.Duration {
	d := Now().Sub(t)
	if d < 0 {
		return 0
	}
	return d
}
