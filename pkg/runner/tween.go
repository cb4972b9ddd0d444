// Package runner provides concrete implementations of the timeline
// runner contract. The basic building block is the Tween, a fixed
// duration task that maps its local time to an eased position in [0, 1]
// and reports it to an observer on every step.
package runner

import (
	"sync"

	"github.com/me/reel/pkg/timeline"
)

// Tween is a time-bounded runner. Local time accumulates freely, so an
// overshooting step leaves Time past Duration; the owning timeline uses
// exactly that overshoot to reconcile finish times. Position, however,
// is always clamped to [0, 1] before easing.
//
// A Tween is safe for concurrent use. The position observer runs while
// the owning timeline is mid-tick and must not call back into it.
type Tween struct {
	mu       sync.Mutex
	id       string
	duration float64
	time     float64
	done     bool
	inactive bool
	ease     Ease
	persist  *timeline.Persist
	tl       *timeline.Timeline
	observer func(pos float64)
}

// NewTween returns an active, linear tween of the given duration in
// milliseconds.
func NewTween(id string, duration float64) *Tween {
	return &Tween{id: id, duration: duration, ease: Linear}
}

func (tw *Tween) ID() string { return tw.id }

func (tw *Tween) Duration() float64 { return tw.duration }

func (tw *Tween) Time() float64 {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.time
}

// Step advances local time by dt and reports completion. The observer,
// if any, receives the new eased position.
func (tw *Tween) Step(dt float64) timeline.StepResult {
	tw.mu.Lock()
	tw.time += dt
	tw.done = tw.time >= tw.duration
	done := tw.done
	pos := tw.positionLocked()
	observer := tw.observer
	tw.mu.Unlock()

	if observer != nil {
		observer(pos)
	}
	return timeline.StepResult{Done: done}
}

// Done reports whether the tween has reached its duration.
func (tw *Tween) Done() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.done
}

// Position returns the current eased progress in [0, 1].
func (tw *Tween) Position() float64 {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.positionLocked()
}

func (tw *Tween) positionLocked() float64 {
	if tw.duration <= 0 {
		return 1
	}
	p := tw.time / tw.duration
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return tw.ease(p)
}

func (tw *Tween) Active() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return !tw.inactive
}

// SetActive parks or resumes the tween. A parked tween keeps its slot
// on the timeline but is skipped by every tick.
func (tw *Tween) SetActive(yes bool) {
	tw.mu.Lock()
	tw.inactive = !yes
	tw.mu.Unlock()
}

func (tw *Tween) Reset() {
	tw.mu.Lock()
	tw.time = 0
	tw.done = false
	tw.mu.Unlock()
}

// SetEase replaces the easing function. A nil ease means linear.
func (tw *Tween) SetEase(e Ease) {
	if e == nil {
		e = Linear
	}
	tw.mu.Lock()
	tw.ease = e
	tw.mu.Unlock()
}

// SetPersist gives the tween its own eviction grace, overriding the
// timeline default at the next schedule.
func (tw *Tween) SetPersist(p timeline.Persist) {
	tw.mu.Lock()
	tw.persist = &p
	tw.mu.Unlock()
}

func (tw *Tween) Persist() (timeline.Persist, bool) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.persist == nil {
		return timeline.Persist{}, false
	}
	return *tw.persist, true
}

// OnPosition registers the position observer, replacing any previous
// one.
func (tw *Tween) OnPosition(fn func(pos float64)) {
	tw.mu.Lock()
	tw.observer = fn
	tw.mu.Unlock()
}

func (tw *Tween) Timeline() *timeline.Timeline {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.tl
}

func (tw *Tween) SetTimeline(t *timeline.Timeline) {
	tw.mu.Lock()
	tw.tl = t
	tw.mu.Unlock()
}
