package core

import (
	"fmt"
	"sync"
)

// DispatchLimiter enforces a maximum number of synthetic event re-dispatches
// per turn. A flow that keeps emitting events without reaching a terminal
// text response is a loop and must be surfaced as an engine error.
type DispatchLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewDispatchLimiter creates a limiter with a max number of re-dispatches.
// If max == 0, re-dispatching is unlimited.
func NewDispatchLimiter(max int) *DispatchLimiter {
	return &DispatchLimiter{max: max}
}

// Increment increases the dispatch counter and returns ErrDispatchLimit when
// the ceiling is exceeded.
func (dl *DispatchLimiter) Increment() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.count++
	if dl.max > 0 && dl.count > dl.max {
		return fmt.Errorf("%w: %d", ErrDispatchLimit, dl.max)
	}

	return nil
}

// Count returns the current number of dispatches made.
func (dl *DispatchLimiter) Count() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	return dl.count
}

// Remaining returns how many dispatches are left before hitting the limit,
// or -1 when unlimited.
func (dl *DispatchLimiter) Remaining() int {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.max == 0 {
		return -1
	}

	return dl.max - dl.count
}
