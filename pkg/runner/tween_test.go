package runner

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/me/reel/pkg/timeline"
)

var _ timeline.Runner = (*Tween)(nil)

func TestTweenStep(t *testing.T) {
	tw := NewTween("t", 100)

	res := tw.Step(30)
	if res.Done {
		t.Error("Step(30) reported done")
	}
	if got := tw.Time(); got != 30 {
		t.Errorf("Time() = %v, want 30", got)
	}
	if got := tw.Position(); got != 0.3 {
		t.Errorf("Position() = %v, want 0.3", got)
	}

	res = tw.Step(70)
	if !res.Done {
		t.Error("Step to duration did not report done")
	}

	// Overshoot is kept: the timeline reads it back to reconcile the
	// finish time.
	tw.Step(5)
	if got := tw.Time(); got != 105 {
		t.Errorf("Time() = %v, want 105", got)
	}
	if got := tw.Position(); got != 1 {
		t.Errorf("Position() = %v, want clamped 1", got)
	}
}

func TestTweenReset(t *testing.T) {
	tw := NewTween("t", 10)
	tw.Step(25)
	if !tw.Done() {
		t.Fatal("tween not done after overshooting")
	}

	tw.Reset()
	if got := tw.Time(); got != 0 {
		t.Errorf("Time() = %v, want 0", got)
	}
	if tw.Done() {
		t.Error("Done() = true after reset")
	}
}

func TestTweenEase(t *testing.T) {
	tw := NewTween("t", 100)
	tw.SetEase(QuadIn)
	tw.Step(50)
	if got := tw.Position(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("Position() = %v, want 0.25", got)
	}

	tw.SetEase(nil)
	if got := tw.Position(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Position() = %v, want linear 0.5", got)
	}
}

func TestTweenObserver(t *testing.T) {
	tw := NewTween("t", 10)
	var positions []float64
	tw.OnPosition(func(pos float64) { positions = append(positions, pos) })

	tw.Step(4)
	tw.Step(4)
	tw.Step(4)

	want := []float64{0.4, 0.8, 1}
	if len(positions) != len(want) {
		t.Fatalf("observer saw %d positions, want %d", len(positions), len(want))
	}
	for i := range want {
		if math.Abs(positions[i]-want[i]) > 1e-9 {
			t.Errorf("position %d = %v, want %v", i, positions[i], want[i])
		}
	}
}

func TestTweenPersist(t *testing.T) {
	tw := NewTween("t", 10)
	if _, ok := tw.Persist(); ok {
		t.Error("fresh tween carries its own persist")
	}

	tw.SetPersist(timeline.PersistFor(5))
	p, ok := tw.Persist()
	if !ok {
		t.Fatal("Persist() not set")
	}
	if p.Forever || p.Grace != 5 {
		t.Errorf("Persist() = %+v, want grace 5", p)
	}
}

func TestTweenActive(t *testing.T) {
	tw := NewTween("t", 10)
	if !tw.Active() {
		t.Error("fresh tween inactive")
	}
	tw.SetActive(false)
	if tw.Active() {
		t.Error("parked tween still active")
	}
}

func TestTweenZeroDuration(t *testing.T) {
	tw := NewTween("t", 0)
	if got := tw.Position(); got != 1 {
		t.Errorf("Position() = %v, want 1", got)
	}
	if res := tw.Step(0); !res.Done {
		t.Error("zero-duration tween not done after a step")
	}
}

func TestTweenDrivenByTimeline(t *testing.T) {
	src := timeline.NewFakeSource()
	frames := timeline.NewManualFrames()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tl := timeline.New(
		timeline.WithSource(src),
		timeline.WithFrames(frames),
		timeline.WithLogger(logger),
	)

	tw := NewTween("tw", 10)
	var positions []float64
	tw.OnPosition(func(pos float64) { positions = append(positions, pos) })

	src.Set(0)
	if err := tl.Schedule(tw, 0, timeline.PlaceLast); err != nil {
		t.Fatalf("Schedule error: %v", err)
	}

	for now := 1.0; now <= 11; now++ {
		src.Set(now)
		frames.Fire()
	}

	if !tw.Done() {
		t.Error("tween not done after walking past its duration")
	}
	if tw.Timeline() != nil {
		t.Error("tween still attached after eviction")
	}
	if !tl.Paused() {
		t.Error("timeline not paused after eviction")
	}
	if len(positions) != 11 {
		t.Fatalf("observer saw %d positions, want 11", len(positions))
	}
	if positions[9] != 1 {
		t.Errorf("position at playhead 10 = %v, want 1", positions[9])
	}
}
