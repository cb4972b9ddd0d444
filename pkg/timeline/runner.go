package timeline

import "errors"

// Runner is the contract the timeline requires from a scheduled task.
// The timeline drives local time through Step and never owns the runner's
// lifetime; it only owns the runner's placement.
type Runner interface {
	// ID returns a stable, unique identity. It keys the scheduling table
	// and orders diagnostic snapshots.
	ID() string

	// Duration returns the runner's total local duration in milliseconds.
	Duration() float64

	// Time returns the runner's current local progress in milliseconds.
	// It may overshoot Duration or go negative under reverse playback.
	Time() float64

	// Step advances local progress by dt milliseconds (dt may be negative)
	// and reports whether the runner is done.
	Step(dt float64) StepResult

	// Active reports whether the runner currently wants to be stepped.
	// Inactive runners are skipped, not errored.
	Active() bool

	// Reset rewinds local progress to the start. Idempotent until the
	// next Step.
	Reset()

	// Persist returns the runner's own eviction grace period. ok is false
	// when the runner defers to the timeline default.
	Persist() (p Persist, ok bool)

	// Timeline and SetTimeline maintain the non-owning back-reference to
	// the owning timeline. Mutated only by Schedule and Unschedule.
	Timeline() *Timeline
	SetTimeline(t *Timeline)
}

// StepResult is the outcome of a single Step call.
type StepResult struct {
	Done bool
}

// Persist controls how long a finished runner's entry stays scheduled
// before the stepper evicts it. The zero value evicts on the first tick
// after the grace window (zero milliseconds) has passed.
type Persist struct {
	Forever bool
	Grace   float64
}

// PersistForever returns a policy that never evicts a finished runner.
func PersistForever() Persist { return Persist{Forever: true} }

// PersistFor returns a policy that keeps a finished runner scheduled for
// ms milliseconds past its finish time.
func PersistFor(ms float64) Persist { return Persist{Grace: ms} }

// Placement selects how Schedule resolves a runner's start time.
type Placement string

const (
	// PlaceLast chains the runner after the current timeline end.
	// The zero value ("") behaves like PlaceLast.
	PlaceLast Placement = "last"
	// PlaceAfter is an alias for PlaceLast.
	PlaceAfter Placement = "after"
	// PlaceAbsolute takes the delay argument as an absolute start time.
	PlaceAbsolute Placement = "absolute"
	// PlaceStart is an alias for PlaceAbsolute.
	PlaceStart Placement = "start"
	// PlaceNow starts the runner at the current playhead plus delay.
	PlaceNow Placement = "now"
	// PlaceRelative shifts the runner's own previous placement by delay.
	// Without a previous placement the start resolves to the delay alone.
	PlaceRelative Placement = "relative"
)

// ErrInvalidPlacement is returned by Schedule for an unknown placement
// mode. It is the only error the core produces; every other condition is
// handled by policy.
var ErrInvalidPlacement = errors.New("invalid placement mode")

// ValidPlacement reports whether when names a known placement mode.
func ValidPlacement(when Placement) bool {
	switch when {
	case "", PlaceLast, PlaceAfter, PlaceAbsolute, PlaceStart, PlaceNow, PlaceRelative:
		return true
	}
	return false
}
