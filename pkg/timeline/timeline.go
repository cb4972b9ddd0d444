// Package timeline implements a virtual-clock scheduler that drives a set
// of independently-stateful, time-bounded runners along a shared playhead.
//
// The clock is playable, pausable, seekable, speed-scaled and reversible.
// Each tick reconciles an external time source against manual seeks and
// speed changes, dispatches the correct elapsed-time delta to every due
// runner, and evicts finished runners once their grace period has passed.
// Frame pacing is injected through a FrameSource, so hosts can drive the
// timeline from a timer, their own loop, or a test harness.
package timeline

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
)

// entry is one row of the scheduling table. persist is resolved at
// schedule time and immutable for the entry's lifetime.
type entry struct {
	runner  Runner
	start   float64
	persist Persist
}

// Schedule is one row of the diagnostic snapshot returned by Schedules.
type Schedule struct {
	Start    float64
	Duration float64
	End      float64
	Runner   Runner
}

// Timeline drives scheduled runners along a shared virtual clock,
// measured in milliseconds. The zero value is not usable; construct
// with New. All methods are safe for concurrent use. Notifications run
// outside the timeline's lock, so handlers may call back into it.
type Timeline struct {
	mu sync.Mutex

	source Source
	frames FrameSource
	logger *slog.Logger

	entries        []*entry
	playhead       float64
	speed          float64
	paused         bool
	defaultPersist Persist

	lastSourceTime float64
	lastStepTime   float64

	nextFrame FrameHandle
	frameGen  uint64

	timeSubs     []func(playhead float64)
	finishedSubs []func()
}

// Option configures a Timeline at construction.
type Option func(*Timeline)

// WithSource sets the external clock the stepper reconciles against.
func WithSource(s Source) Option {
	return func(t *Timeline) { t.source = s }
}

// WithFrames sets the frame source used to pace ticks.
func WithFrames(f FrameSource) Option {
	return func(t *Timeline) { t.frames = f }
}

// WithLogger sets the logger for schedule and eviction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Timeline) { t.logger = logger }
}

// WithPersist sets the default eviction grace applied to runners that do
// not carry their own.
func WithPersist(p Persist) Option {
	return func(t *Timeline) { t.defaultPersist = p }
}

// New returns an unpaused timeline at playhead 0 with speed 1. Without
// options it reads the monotonic system clock and paces ticks at
// DefaultFrameInterval. Nothing ticks until a runner is scheduled.
func New(opts ...Option) *Timeline {
	t := &Timeline{
		source: WallSource(),
		frames: NewTickerFrames(DefaultFrameInterval),
		logger: slog.Default(),
		speed:  1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Schedule places r on the timeline. The placement mode resolves an
// anchor and delay adds a further wait on top of it, except for
// PlaceAbsolute and PlaceRelative where delay is the placement itself.
// A runner already scheduled here has its slot replaced; a runner owned
// by another timeline is unscheduled from it first. Scheduling resyncs
// an idle clock and arms the tick loop if the timeline is unpaused.
func (t *Timeline) Schedule(r Runner, delay float64, when Placement) error {
	if !ValidPlacement(when) {
		return fmt.Errorf("schedule runner %s: %w: %q", r.ID(), ErrInvalidPlacement, when)
	}

	// Detach from the previous owner before touching our own table.
	if prev := r.Timeline(); prev != nil && prev != t {
		prev.Unschedule(r)
	}

	t.mu.Lock()

	// End time is read before the runner's old slot, if any, is removed:
	// chained placement counts the slot being replaced.
	endTime := t.endTimeLocked()

	var absStart float64
	remaining := delay
	switch when {
	case "", PlaceLast, PlaceAfter:
		absStart = endTime
	case PlaceAbsolute, PlaceStart:
		absStart = delay
		remaining = 0
	case PlaceNow:
		absStart = t.playhead
	case PlaceRelative:
		if i := t.indexLocked(r.ID()); i >= 0 {
			absStart = t.entries[i].start + delay
			remaining = 0
		}
	}
	start := absStart + remaining

	t.removeLocked(r.ID())

	p, ok := r.Persist()
	if !ok {
		p = t.defaultPersist
	}
	t.entries = append(t.entries, &entry{runner: r, start: start, persist: p})
	r.SetTimeline(t)

	t.logger.Debug("runner scheduled",
		"id", r.ID(),
		"start", start,
		"mode", string(when),
	)

	t.updateTimeLocked()
	notes := t.continueLocked(false)
	t.mu.Unlock()
	t.deliver(notes)
	return nil
}

// Unschedule removes r's entry and detaches its back-reference. It is a
// no-op if r is not scheduled here.
func (t *Timeline) Unschedule(r Runner) {
	t.mu.Lock()
	if t.removeLocked(r.ID()) {
		r.SetTimeline(nil)
		t.logger.Debug("runner unscheduled", "id", r.ID())
	}
	t.mu.Unlock()
}

// Schedules returns a diagnostic snapshot of the scheduling table,
// sorted by runner identity.
func (t *Timeline) Schedules() []Schedule {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Schedule, len(t.entries))
	for i, e := range t.entries {
		d := e.runner.Duration()
		out[i] = Schedule{
			Start:    e.start,
			Duration: d,
			End:      e.start + d,
			Runner:   e.runner,
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Runner.ID() < out[j].Runner.ID()
	})
	return out
}

// EndTime returns start + duration of the last entry in scheduling
// order, not the maximum end across entries. An entry that finishes
// later than the last-scheduled one does not extend the end time; the
// default chained placement depends on exactly this. Returns 0 when
// nothing is scheduled.
func (t *Timeline) EndTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endTimeLocked()
}

// Play clears the paused flag, resyncs the clock and arms the tick loop.
func (t *Timeline) Play() {
	t.mu.Lock()
	t.paused = false
	t.updateTimeLocked()
	notes := t.continueLocked(false)
	t.mu.Unlock()
	t.deliver(notes)
}

// Pause stops the tick loop, keeping the playhead where it is.
func (t *Timeline) Pause() {
	t.mu.Lock()
	t.paused = true
	notes := t.continueLocked(false)
	t.mu.Unlock()
	t.deliver(notes)
}

// Stop seeks to 0 and pauses.
func (t *Timeline) Stop() {
	t.mu.Lock()
	notes := t.setTimeLocked(0)
	t.paused = true
	notes = append(notes, t.continueLocked(false)...)
	t.mu.Unlock()
	t.deliver(notes)
}

// Finish seeks one unit past the end time, guaranteeing every runner
// reports completion, then pauses.
func (t *Timeline) Finish() {
	t.mu.Lock()
	notes := t.setTimeLocked(t.endTimeLocked() + 1)
	t.paused = true
	notes = append(notes, t.continueLocked(false)...)
	t.mu.Unlock()
	t.deliver(notes)
}

// Time returns the current playhead in milliseconds.
func (t *Timeline) Time() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playhead
}

// SetTime seeks the playhead to ms, clamped at 0, and ticks immediately
// and synchronously instead of waiting for the next frame.
func (t *Timeline) SetTime(ms float64) {
	t.mu.Lock()
	notes := t.setTimeLocked(ms)
	t.mu.Unlock()
	t.deliver(notes)
}

// Seek moves the playhead by dt milliseconds, clamped at 0.
func (t *Timeline) Seek(dt float64) {
	t.mu.Lock()
	notes := t.setTimeLocked(t.playhead + dt)
	t.mu.Unlock()
	t.deliver(notes)
}

// Speed returns the current speed multiplier.
func (t *Timeline) Speed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speed
}

// SetSpeed sets the signed speed multiplier. Negative values play in
// reverse. The new speed applies from the next tick.
func (t *Timeline) SetSpeed(v float64) {
	t.mu.Lock()
	t.speed = v
	t.mu.Unlock()
}

// Reverse flips the playback direction, keeping the current rate.
func (t *Timeline) Reverse() {
	t.mu.Lock()
	t.speed = -t.speed
	t.mu.Unlock()
}

// SetReversed makes playback run backward when yes is true and forward
// otherwise, keeping the current rate.
func (t *Timeline) SetReversed(yes bool) {
	t.mu.Lock()
	mag := math.Abs(t.speed)
	if yes {
		t.speed = -mag
	} else {
		t.speed = mag
	}
	t.mu.Unlock()
}

// Paused reports whether the timeline is paused.
func (t *Timeline) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Active reports whether a frame request is outstanding, which is the
// "is this timeline ticking" predicate.
func (t *Timeline) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextFrame != nil
}

// Persist returns the default eviction grace for future schedules.
func (t *Timeline) Persist() Persist {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.defaultPersist
}

// SetPersist sets the default eviction grace. It applies to future
// Schedule calls only; existing entries keep their resolved policy.
func (t *Timeline) SetPersist(p Persist) {
	t.mu.Lock()
	t.defaultPersist = p
	t.mu.Unlock()
}

// Source returns the external clock.
func (t *Timeline) Source() Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.source
}

// SetSource swaps the external clock. The next paced tick measures its
// delta against the previous reading.
func (t *Timeline) SetSource(s Source) {
	t.mu.Lock()
	t.source = s
	t.mu.Unlock()
}

// OnTime registers fn to receive the playhead after every tick.
// Handlers run outside the timeline lock, on the goroutine driving the
// tick, and cannot be unregistered.
func (t *Timeline) OnTime(fn func(playhead float64)) {
	t.mu.Lock()
	t.timeSubs = append(t.timeSubs, fn)
	t.mu.Unlock()
}

// OnFinished registers fn to run when the timeline decides no further
// ticking is warranted, immediately after the implicit pause.
func (t *Timeline) OnFinished(fn func()) {
	t.mu.Lock()
	t.finishedSubs = append(t.finishedSubs, fn)
	t.mu.Unlock()
}

func (t *Timeline) setTimeLocked(ms float64) []note {
	if ms < 0 {
		ms = 0
	}
	t.playhead = ms
	return t.continueLocked(true)
}

// updateTimeLocked resyncs the source bookkeeping when no frame is
// outstanding, so time elapsed while idle is not attributed to the next
// tick.
func (t *Timeline) updateTimeLocked() {
	if t.nextFrame == nil {
		t.lastSourceTime = t.source.Now()
	}
}

func (t *Timeline) endTimeLocked() float64 {
	if len(t.entries) == 0 {
		return 0
	}
	last := t.entries[len(t.entries)-1]
	return last.start + last.runner.Duration()
}

func (t *Timeline) indexLocked(id string) int {
	for i, e := range t.entries {
		if e.runner.ID() == id {
			return i
		}
	}
	return -1
}

func (t *Timeline) removeLocked(id string) bool {
	i := t.indexLocked(id)
	if i < 0 {
		return false
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	return true
}
