package timeline

import (
	"sort"
	"sync"
	"time"
)

// DefaultFrameInterval is the tick spacing used when no explicit frame
// source is configured, roughly 60 frames per second.
const DefaultFrameInterval = 16667 * time.Microsecond

// FrameSource schedules single-shot frame callbacks. The timeline keeps
// at most one outstanding request at a time; having one pending is what
// makes the timeline "active".
type FrameSource interface {
	RequestFrame(fn func()) FrameHandle
}

// FrameHandle cancels a pending frame request. Cancel after the callback
// has fired is a no-op.
type FrameHandle interface {
	Cancel()
}

// TickerFrames is a FrameSource backed by timers, firing each callback
// one interval after it was requested.
type TickerFrames struct {
	interval time.Duration
}

// NewTickerFrames returns a timer-backed frame source. Non-positive
// intervals fall back to DefaultFrameInterval.
func NewTickerFrames(interval time.Duration) *TickerFrames {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TickerFrames{interval: interval}
}

func (f *TickerFrames) RequestFrame(fn func()) FrameHandle {
	return timerHandle{timer: time.AfterFunc(f.interval, fn)}
}

type timerHandle struct {
	timer *time.Timer
}

func (h timerHandle) Cancel() {
	h.timer.Stop()
}

// ManualFrames is a FrameSource driven by explicit Fire calls. It exists
// for tests and for hosts that pump frames from their own loop.
type ManualFrames struct {
	mu      sync.Mutex
	nextID  int
	pending map[int]func()
}

func NewManualFrames() *ManualFrames {
	return &ManualFrames{pending: make(map[int]func())}
}

func (f *ManualFrames) RequestFrame(fn func()) FrameHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.pending[id] = fn
	return &manualHandle{frames: f, id: id}
}

// Pending reports how many frame callbacks are waiting to fire.
func (f *ManualFrames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Fire runs every pending callback once, in request order, and returns
// how many ran. Callbacks requested while firing (a stepping timeline
// immediately re-arms itself) wait for the next Fire.
func (f *ManualFrames) Fire() int {
	f.mu.Lock()
	ids := make([]int, 0, len(f.pending))
	for id := range f.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = f.pending[id]
		delete(f.pending, id)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

type manualHandle struct {
	frames *ManualFrames
	id     int
}

func (h *manualHandle) Cancel() {
	h.frames.mu.Lock()
	defer h.frames.mu.Unlock()
	delete(h.frames.pending, h.id)
}
