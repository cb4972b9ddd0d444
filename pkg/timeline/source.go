package timeline

import (
	"sync"
	"time"
)

// Source supplies the external clock, in milliseconds, that each tick
// reconciles the playhead against. Readings must be monotonic;
// the origin is arbitrary.
type Source interface {
	Now() float64
}

// WallSource returns a Source backed by the monotonic system clock.
func WallSource() Source {
	return wallSource{start: time.Now()}
}

type wallSource struct {
	start time.Time
}

func (s wallSource) Now() float64 {
	return float64(time.Since(s.start)) / float64(time.Millisecond)
}

// FakeSource is a hand-cranked Source for tests.
type FakeSource struct {
	mu  sync.Mutex
	now float64
}

func NewFakeSource() *FakeSource {
	return &FakeSource{}
}

func (s *FakeSource) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Set moves the fake clock to an absolute reading.
func (s *FakeSource) Set(ms float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = ms
}

// Advance moves the fake clock forward by ms.
func (s *FakeSource) Advance(ms float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += ms
}
