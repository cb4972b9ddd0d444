package script

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/me/reel/pkg/timeline"
)

var _ timeline.Runner = (*Runner)(nil)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ev, err := NewEvaluator(logger)
	if err != nil {
		t.Fatalf("NewEvaluator error: %v", err)
	}
	return ev
}

func TestEvaluator_Compile(t *testing.T) {
	ev := newTestEvaluator(t)

	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"arithmetic", "pos * 10", false},
		{"math builtin", "Math.sin(pos * Math.PI)", false},
		{"uses time and duration", "t / duration", false},
		{"conditional", "pos < 0.5 ? 0 : 1", false},
		{"syntax error", "pos +", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ev.Compile(tt.expr)
			if tt.wantErr && err == nil {
				t.Errorf("Compile(%q) succeeded, want error", tt.expr)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Compile(%q) error: %v", tt.expr, err)
			}
		})
	}
}

func TestEvaluator_CompileCaches(t *testing.T) {
	ev := newTestEvaluator(t)

	if _, err := ev.Compile("pos * 2"); err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if _, err := ev.Compile("pos * 2"); err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if got := ev.CacheLen(); got != 1 {
		t.Errorf("CacheLen() = %d, want 1 after recompiling the same source", got)
	}

	if _, err := ev.Compile("pos * 3"); err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if got := ev.CacheLen(); got != 2 {
		t.Errorf("CacheLen() = %d, want 2", got)
	}
}

func TestRunner_EvaluatesPerStep(t *testing.T) {
	ev := newTestEvaluator(t)
	r, err := NewRunner(ev, "r", 100, "pos * 10")
	if err != nil {
		t.Fatalf("NewRunner error: %v", err)
	}

	if _, ok := r.Value(); ok {
		t.Error("Value() set before the first step")
	}

	r.Step(50)
	v, ok := r.Value()
	if !ok {
		t.Fatal("Value() not set after a step")
	}
	if math.Abs(v-5) > 1e-9 {
		t.Errorf("Value() = %v, want 5", v)
	}

	r.Step(50)
	v, _ = r.Value()
	if math.Abs(v-10) > 1e-9 {
		t.Errorf("Value() = %v, want 10", v)
	}
}

func TestRunner_SeesLocalTimeAndDuration(t *testing.T) {
	ev := newTestEvaluator(t)
	r, err := NewRunner(ev, "r", 200, "t + duration")
	if err != nil {
		t.Fatalf("NewRunner error: %v", err)
	}

	r.Step(30)
	v, ok := r.Value()
	if !ok {
		t.Fatal("Value() not set")
	}
	if math.Abs(v-230) > 1e-9 {
		t.Errorf("Value() = %v, want 230", v)
	}
}

func TestRunner_ParksOnRuntimeError(t *testing.T) {
	ev := newTestEvaluator(t)
	r, err := NewRunner(ev, "r", 100, "missing.field")
	if err != nil {
		t.Fatalf("NewRunner error: %v", err)
	}

	r.Step(10)

	if !r.Failed() {
		t.Error("Failed() = false after a runtime error")
	}
	if r.Active() {
		t.Error("runner still active after a runtime error")
	}
	if _, ok := r.Value(); ok {
		t.Error("Value() set after a failure")
	}
}

func TestRunner_ParksOnNonNumericResult(t *testing.T) {
	ev := newTestEvaluator(t)
	r, err := NewRunner(ev, "r", 100, `"not a number"`)
	if err != nil {
		t.Fatalf("NewRunner error: %v", err)
	}

	r.Step(10)

	if !r.Failed() {
		t.Error("Failed() = false for a non-numeric result")
	}
	if r.Active() {
		t.Error("runner still active after a non-numeric result")
	}
}

func TestRunner_DrivenByTimeline(t *testing.T) {
	ev := newTestEvaluator(t)
	r, err := NewRunner(ev, "r", 10, "pos * pos")
	if err != nil {
		t.Fatalf("NewRunner error: %v", err)
	}

	src := timeline.NewFakeSource()
	frames := timeline.NewManualFrames()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tl := timeline.New(
		timeline.WithSource(src),
		timeline.WithFrames(frames),
		timeline.WithLogger(logger),
	)

	src.Set(0)
	if err := tl.Schedule(r, 0, timeline.PlaceLast); err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	for now := 1.0; now <= 11; now++ {
		src.Set(now)
		frames.Fire()
	}

	v, ok := r.Value()
	if !ok {
		t.Fatal("Value() not set after ticking")
	}
	if v != 1 {
		t.Errorf("Value() = %v, want 1 at the end of the tween", v)
	}
	if !r.Done() {
		t.Error("runner not done")
	}
	if r.Timeline() != nil {
		t.Error("runner still attached after eviction")
	}
}
