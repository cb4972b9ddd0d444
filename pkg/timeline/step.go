package timeline

// note is a pending notification collected while the lock is held and
// delivered after it is released.
type note struct {
	finished bool
	playhead float64
}

// tick runs from a frame callback. gen guards against callbacks that
// fired concurrently with a cancel and lost the race for the lock.
func (t *Timeline) tick(gen uint64) {
	t.mu.Lock()
	if t.nextFrame == nil || gen != t.frameGen {
		t.mu.Unlock()
		return
	}
	t.nextFrame = nil
	notes := t.stepLocked(false)
	t.mu.Unlock()
	t.deliver(notes)
}

// stepLocked advances the playhead and dispatches one tick to every
// scheduled entry, in scheduling order. immediate marks seek-driven
// ticks: the source delta is suppressed and the playhead is taken as
// already set by the caller, so the tick delta is exactly the seek
// delta. Both the frame-driven and the seek path run this one
// algorithm.
func (t *Timeline) stepLocked(immediate bool) []note {
	sourceNow := t.source.Now()
	dtSource := sourceNow - t.lastSourceTime
	if immediate {
		dtSource = 0
	}

	// Fold in any out-of-band playhead change since the last tick so it
	// is honored exactly once.
	dtTick := t.speed*dtSource + (t.playhead - t.lastStepTime)
	t.lastSourceTime = sourceNow

	if !immediate {
		t.playhead += dtTick
		if t.playhead < 0 {
			t.playhead = 0
		}
	}
	t.lastStepTime = t.playhead

	notes := []note{{playhead: t.playhead}}

	runnersLeft := false
	for i := 0; i < len(t.entries); i++ {
		e := t.entries[i]
		dt := dtTick

		dtToStart := t.playhead - e.start
		if dtToStart <= 0 {
			// Not started yet. Rewind it in case the playhead teleported
			// past its start and back again.
			runnersLeft = true
			e.runner.Reset()
			continue
		} else if dtToStart < dt {
			// Started mid-tick; entitled only to the portion of the tick
			// since its own start.
			dt = dtToStart
		}

		if !e.runner.Active() {
			continue
		}

		res := e.runner.Step(dt)
		if !res.Done {
			runnersLeft = true
			continue
		}
		if e.persist.Forever {
			continue
		}

		// Reconcile the runner's reported local time against the tick
		// time actually delivered.
		finishTime := e.runner.Duration() - e.runner.Time() + t.playhead
		if finishTime+e.persist.Grace < t.playhead {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			i--
			e.runner.SetTimeline(nil)
			t.logger.Debug("runner evicted", "id", e.runner.ID(), "playhead", t.playhead)
		} else {
			// Still within its grace window; keep ticking so it is
			// re-evaluated and evicted once the window elapses.
			runnersLeft = true
		}
	}

	// Forward playback continues only while work remains; reverse keeps
	// ticking merely because entries exist, so they get rewound toward
	// their starts, and stops at 0.
	if (runnersLeft && !(t.speed < 0 && t.playhead == 0)) ||
		(len(t.entries) > 0 && t.speed < 0 && t.playhead > 0) {
		t.continueNonImmediateLocked()
	} else {
		t.paused = true
		t.cancelLocked()
		notes = append(notes, note{finished: true})
	}
	return notes
}

// continueLocked cancels any pending frame, then either ticks
// synchronously (immediate), stays put (paused), or arms the next frame.
// At most one frame request is in flight at any time.
func (t *Timeline) continueLocked(immediate bool) []note {
	if immediate {
		t.cancelLocked()
		return t.stepLocked(true)
	}
	t.continueNonImmediateLocked()
	return nil
}

func (t *Timeline) continueNonImmediateLocked() {
	t.cancelLocked()
	if t.paused {
		return
	}
	t.armLocked()
}

func (t *Timeline) armLocked() {
	t.frameGen++
	gen := t.frameGen
	t.nextFrame = t.frames.RequestFrame(func() { t.tick(gen) })
}

func (t *Timeline) cancelLocked() {
	if t.nextFrame != nil {
		t.nextFrame.Cancel()
		t.nextFrame = nil
	}
}

// deliver runs queued notifications outside the lock so handlers may
// call back into the timeline.
func (t *Timeline) deliver(notes []note) {
	if len(notes) == 0 {
		return
	}
	t.mu.Lock()
	timeSubs := make([]func(float64), len(t.timeSubs))
	copy(timeSubs, t.timeSubs)
	finishedSubs := make([]func(), len(t.finishedSubs))
	copy(finishedSubs, t.finishedSubs)
	t.mu.Unlock()

	for _, n := range notes {
		if n.finished {
			for _, fn := range finishedSubs {
				fn()
			}
			continue
		}
		for _, fn := range timeSubs {
			fn(n.playhead)
		}
	}
}
