// Package ratelimit provides a sliding-window request limiter with
// jittered, human-like pacing for outbound calls to rate-limited
// collaborators.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const window = 60 * time.Second

// Limiter enforces a per-minute request budget using a sliding window of
// call timestamps, and adds a random delay between calls so request timing
// does not look mechanical.
//
// A Limiter is owned by whoever constructs it; it is safe for concurrent
// use, but callers sharing one limiter also share its budget.
type Limiter struct {
	mu         sync.Mutex
	rpm        int
	timestamps []time.Time

	minDelay time.Duration
	maxDelay time.Duration

	// now and sleep are injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter allowing rpm calls per sliding 60s window, with a
// jittered delay in [minDelay, maxDelay] added before each permitted call.
func New(rpm int, minDelay, maxDelay time.Duration) *Limiter {
	if rpm < 1 {
		rpm = 1
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{
		rpm:      rpm,
		minDelay: minDelay,
		maxDelay: maxDelay,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until a call is permitted, then records it. If the window is
// full it waits for the oldest timestamp to age out (plus a small jitter),
// honoring ctx cancellation at every blocking point.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	for {
		now := l.now()
		l.prune(now)
		if len(l.timestamps) < l.rpm {
			break
		}
		oldest := l.timestamps[0]
		wait := window - now.Sub(oldest) + jitter(time.Second, 3*time.Second)
		l.mu.Unlock()
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		l.mu.Lock()
	}
	// claim the slot before dropping the lock so concurrent callers
	// cannot overshoot the budget during the pacing delay
	l.timestamps = append(l.timestamps, l.now())
	l.mu.Unlock()

	if d := l.delay(); d > 0 {
		return l.sleep(ctx, d)
	}
	return nil
}

// Pending returns the number of timestamps currently inside the window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.timestamps)
}

// prune drops timestamps older than the window. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

func (l *Limiter) delay() time.Duration {
	if l.maxDelay == 0 {
		return 0
	}
	return jitter(l.minDelay, l.maxDelay)
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
