package auth

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a username's OPRF evaluation budget for
// the current window is exhausted.
var ErrRateLimited = errors.New("auth: rate limit exceeded")

const (
	// cleanupInterval is how often idle usernames are swept.
	cleanupInterval = 1 * time.Minute
)

// RateLimiter enforces a per-username sliding-window budget on OPRF
// evaluations. Each username maps to the ordered timestamps of its
// successful requests inside the window; the list is trimmed on every
// access and a request is recorded only when it is admitted.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
	stopCh  chan struct{}
}

// NewRateLimiter creates a rate limiter admitting at most max requests
// per username per window, with background cleanup of idle usernames.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	rl := &RateLimiter{
		window:  window,
		max:     max,
		entries: make(map[string][]time.Time),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// CheckAndRecord admits or rejects a request for username at the given
// instant. On admission the timestamp is recorded; a rejected request
// leaves no trace. The check-and-record pair is atomic per username.
func (rl *RateLimiter) CheckAndRecord(username string, now time.Time) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	kept := rl.trim(username, now)
	if len(kept) >= rl.max {
		return ErrRateLimited
	}

	rl.entries[username] = append(kept, now)
	return nil
}

// Remaining returns the unused budget for username at the given instant.
func (rl *RateLimiter) Remaining(username string, now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	used := len(rl.trim(username, now))
	if used >= rl.max {
		return 0
	}
	return rl.max - used
}

// trim drops timestamps that fell out of the window and evicts the
// username entirely when none remain. Caller holds the mutex.
func (rl *RateLimiter) trim(username string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	stamps := rl.entries[username]

	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	kept := stamps[i:]

	if len(kept) == 0 {
		delete(rl.entries, username)
		return nil
	}
	rl.entries[username] = kept
	return kept
}

// TrackedUsernames returns the number of usernames currently tracked.
func (rl *RateLimiter) TrackedUsernames() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

// Stop stops the background cleanup goroutine. Should be called when
// shutting down the service.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// cleanupLoop periodically evicts usernames whose whole window has
// elapsed, bounding memory without affecting admission decisions.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// sweep removes every entry with no timestamp inside the window.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	for username, stamps := range rl.entries {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(rl.entries, username)
		}
	}
}
