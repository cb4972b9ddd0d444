package scenario

import (
	"fmt"
	"log/slog"

	"github.com/me/reel/internal/script"
	"github.com/me/reel/pkg/model"
	"github.com/me/reel/pkg/runner"
	"github.com/me/reel/pkg/timeline"
)

// Builder assembles live timelines from validated scenarios.
type Builder struct {
	eval   *script.Evaluator
	logger *slog.Logger
}

// NewBuilder creates a Builder backed by the given script evaluator.
func NewBuilder(eval *script.Evaluator, logger *slog.Logger) *Builder {
	return &Builder{
		eval:   eval,
		logger: logger.With("component", "builder"),
	}
}

// Built is a live timeline with named handles to its runners.
type Built struct {
	Timeline *timeline.Timeline
	Runners  []BuiltRunner
}

// BuiltRunner pairs an item definition with its live runner. Tween is
// always set; Script only for script items, whose tween it embeds.
type BuiltRunner struct {
	Item   model.Item
	Runner timeline.Runner
	Tween  *runner.Tween
	Script *script.Runner
}

// Build constructs a paused timeline and schedules one runner per item,
// in document order. The scenario must have passed validation; the only
// errors surfacing here are internal ones.
func (b *Builder) Build(scn *model.Scenario, opts ...timeline.Option) (*Built, error) {
	tl := timeline.New(opts...)
	tl.Pause()

	if scn.Persist != nil {
		tl.SetPersist(persistOf(*scn.Persist))
	}
	if scn.Speed != 0 {
		tl.SetSpeed(scn.Speed)
	}

	built := &Built{Timeline: tl, Runners: make([]BuiltRunner, 0, len(scn.Items))}
	for _, item := range scn.Items {
		br, err := b.buildRunner(item)
		if err != nil {
			return nil, err
		}
		if err := tl.Schedule(br.Runner, item.Delay, timeline.Placement(item.Place)); err != nil {
			return nil, fmt.Errorf("schedule item %q: %w", item.Name, err)
		}
		built.Runners = append(built.Runners, br)
	}

	b.logger.Debug("scenario built",
		"name", scn.Name,
		"runners", len(built.Runners),
		"end_ms", tl.EndTime(),
	)
	return built, nil
}

func (b *Builder) buildRunner(item model.Item) (BuiltRunner, error) {
	br := BuiltRunner{Item: item}

	switch item.Kind {
	case model.ItemKindScript:
		sr, err := script.NewRunner(b.eval, item.Name, item.Duration, item.Script)
		if err != nil {
			return br, fmt.Errorf("item %q: %w", item.Name, err)
		}
		br.Script = sr
		br.Tween = sr.Tween
		br.Runner = sr
	default:
		tw := runner.NewTween(item.Name, item.Duration)
		br.Tween = tw
		br.Runner = tw
	}

	if e, ok := runner.EaseByName(item.Ease); ok {
		br.Tween.SetEase(e)
	}
	if item.Persist != nil {
		br.Tween.SetPersist(persistOf(*item.Persist))
	}
	return br, nil
}

func persistOf(p model.PersistSpec) timeline.Persist {
	if p.Forever {
		return timeline.PersistForever()
	}
	return timeline.PersistFor(p.Grace)
}
