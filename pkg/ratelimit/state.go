// Package ratelimit throttles externally triggered refetches so that bursts
// of triggers (button mashing, connectivity flapping) run at most once per
// window.
package ratelimit

import (
	"time"
)

// DefaultWindow is the throttle window used for the network-resume trigger.
const DefaultWindow = 1 * time.Second

// ThrottleState is the observable state of a Gate.
type ThrottleState struct {
	// LastInvokedAt is when the wrapped trigger last ran. Zero if never.
	LastInvokedAt time.Time `json:"last_invoked_at"`

	// Pending is set while a dropped call waits for the trailing edge.
	Pending bool `json:"pending"`
}

// Remaining returns how long until the window opens again.
// Returns 0 if the window has already elapsed.
func (s ThrottleState) Remaining(now time.Time, window time.Duration) time.Duration {
	if s.LastInvokedAt.IsZero() {
		return 0
	}
	remaining := s.LastInvokedAt.Add(window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WindowOpen reports whether a call at now would run on the leading edge.
func (s ThrottleState) WindowOpen(now time.Time, window time.Duration) bool {
	return s.Remaining(now, window) == 0
}
