package engine

import (
	"context"
	"sync"
	"time"
)

// Clock supplies time and tick pacing to the scheduler
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case
	Sleep(ctx context.Context, d time.Duration) error
}

// MonotonicClock is the wall clock with monotonic readings
type MonotonicClock struct{}

// NewMonotonicClock creates the real-time clock
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{}
}

// Now returns the current time with monotonic clock reading
func (MonotonicClock) Now() time.Time {
	return time.Now()
}

// Sleep waits on a timer so cancellation interrupts the wait
func (MonotonicClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockClock is a controllable clock for tests; Sleep advances time instead of blocking
type MockClock struct {
	mu          sync.RWMutex
	currentTime time.Time
	sleeps      []time.Duration
}

// NewMockClock creates a mock clock starting at startTime
func NewMockClock(startTime time.Time) *MockClock {
	return &MockClock{currentTime: startTime}
}

// Now returns the current mocked time
func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// Advance moves the mocked time forward by d
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// Sleep records d and advances the mocked time by it
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	m.currentTime = m.currentTime.Add(d)
	return nil
}

// Sleeps returns every duration passed to Sleep, in call order
func (m *MockClock) Sleeps() []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Duration(nil), m.sleeps...)
}
