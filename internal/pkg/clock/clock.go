package clock

import (
	"sync"
	"time"
)

// Clock is the only source of "now" for transaction managers and the
// legacy store. Production wiring passes RealClock; tests pass a FakeClock.
type Clock interface {
	Now() time.Time
}

// RealClock returns the real current time.
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// FakeClock is a controllable clock for tests. It is safe for concurrent use,
// since writer workers read it from their own goroutines.
type FakeClock struct {
	mu            sync.Mutex
	now           time.Time
	autoIncrement time.Duration
}

// NewFake creates a FakeClock set to the given time (expected in UTC).
func NewFake(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the fake current time, then advances it by the auto-increment
// step if one is configured.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.now
	f.now = f.now.Add(f.autoIncrement)
	return t
}

// Set sets the fake clock to a specific time.
func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the fake clock forward by duration d.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// SetAutoIncrement makes every Now call move the clock forward by d.
// Zero disables it.
func (f *FakeClock) SetAutoIncrement(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoIncrement = d
}
