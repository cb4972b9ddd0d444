// Package script evaluates scenario item expressions using a JavaScript
// runtime (goja). An expression is a single JavaScript expression over
// the variables pos (eased position in [0, 1]), t (local time in
// milliseconds) and duration; it is re-evaluated on every tick and its
// numeric result becomes the item's value.
package script

import (
	"fmt"
	"log/slog"

	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"
)

// programCacheSize bounds the shared compilation cache. Sessions
// replaying the same scenario hit the cache instead of recompiling.
const programCacheSize = 128

// Evaluator compiles item expressions and builds per-runner VMs.
// A goja runtime is not safe for concurrent use, so the evaluator
// shares only compiled programs, never VMs.
type Evaluator struct {
	cache  *lru.Cache[string, *goja.Program]
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator with the given logger.
func NewEvaluator(logger *slog.Logger) (*Evaluator, error) {
	cache, err := lru.New[string, *goja.Program](programCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create program cache: %w", err)
	}
	return &Evaluator{
		cache:  cache,
		logger: logger.With("component", "script"),
	}, nil
}

// Compile returns the compiled form of expr wrapped as a function of
// (pos, t, duration). A syntax error fails the call, which makes
// Compile double as the push-time script check.
func (e *Evaluator) Compile(expr string) (*goja.Program, error) {
	if prog, ok := e.cache.Get(expr); ok {
		return prog, nil
	}

	wrapped := fmt.Sprintf("(function(pos, t, duration) { return (%s); })", expr)
	prog, err := goja.Compile("", wrapped, true)
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	e.cache.Add(expr, prog)
	return prog, nil
}

// CacheLen reports how many compiled programs are cached.
func (e *Evaluator) CacheLen() int {
	return e.cache.Len()
}
