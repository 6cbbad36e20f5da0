// Package clock abstracts wall-clock reads and repeating schedules so the
// lockout countdown and token expiry can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source and scheduler used by the limiter and the token
// lifecycle.
type Clock interface {
	Now() time.Time
	// Every calls fn once per interval until the returned cancel func is
	// called. cancel is idempotent and safe to call from inside fn.
	Every(interval time.Duration, fn func()) (cancel func())
}

// Real is the production Clock backed by the time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
