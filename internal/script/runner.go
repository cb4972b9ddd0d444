package script

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/dop251/goja"

	"github.com/me/reel/pkg/runner"
)

// Runner is a script-driven runner: a tween that evaluates its
// expression on every step and exposes the latest numeric result.
//
// Evaluation errors do not stop the session. The first failure is
// logged, the runner parks itself and its entry idles on the timeline
// until unscheduled.
type Runner struct {
	*runner.Tween

	vm     *goja.Runtime
	fn     goja.Callable
	logger *slog.Logger

	mu     sync.Mutex
	value  *float64
	failed bool
}

// NewRunner compiles expr through the evaluator and builds a runner
// with its own VM.
func NewRunner(ev *Evaluator, id string, duration float64, expr string) (*Runner, error) {
	prog, err := ev.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("script runner %s: %w", id, err)
	}

	vm := goja.New()
	v, err := vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("script runner %s: load program: %w", id, err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("script runner %s: program is not a function", id)
	}

	r := &Runner{
		Tween:  runner.NewTween(id, duration),
		vm:     vm,
		fn:     fn,
		logger: ev.logger,
	}
	r.OnPosition(r.observe)
	return r, nil
}

// observe runs on every step, while the owning timeline is mid-tick.
// The VM is only ever touched here, so tick serialization is the only
// synchronization it needs.
func (r *Runner) observe(pos float64) {
	r.mu.Lock()
	failed := r.failed
	r.mu.Unlock()
	if failed {
		return
	}

	res, err := r.fn(goja.Undefined(),
		r.vm.ToValue(pos),
		r.vm.ToValue(r.Time()),
		r.vm.ToValue(r.Duration()),
	)
	if err != nil {
		r.fail("script evaluation failed", err)
		return
	}

	v := res.ToFloat()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.fail("script result is not a finite number", nil)
		return
	}

	r.mu.Lock()
	r.value = &v
	r.mu.Unlock()
}

func (r *Runner) fail(msg string, err error) {
	r.mu.Lock()
	r.failed = true
	r.value = nil
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn(msg, "id", r.ID(), "error", err)
	} else {
		r.logger.Warn(msg, "id", r.ID())
	}
	r.SetActive(false)
}

// Value returns the latest evaluation result. ok is false before the
// first step and after a failure.
func (r *Runner) Value() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.value == nil {
		return 0, false
	}
	return *r.value, true
}

// Failed reports whether evaluation has failed and parked the runner.
func (r *Runner) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}
