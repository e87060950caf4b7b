package store

import (
	"sync"
	"time"
)

// NewMonotonicClock wraps now so that successive readings strictly increase at
// microsecond resolution, the finest precision Postgres keeps for timestamps.
func NewMonotonicClock(now func() time.Time) func() time.Time {
	if now == nil {
		now = time.Now
	}
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now().UTC().Truncate(time.Microsecond)
		if !t.After(last) {
			t = last.Add(time.Microsecond)
		}
		last = t
		return t
	}
}
