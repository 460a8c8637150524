package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/guestdesk/internal/dependencies/clock"
)

// MockClock is a settable clock, safe to share between the goroutines of a
// concurrent check-in test
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a clock stopped at t, converted to UTC like the real clock
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t.UTC()}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock by d. A negative d models a desk terminal whose clock lags.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
