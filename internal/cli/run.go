package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/me/reel/internal/scenario"
	"github.com/me/reel/internal/script"
	"github.com/me/reel/pkg/model"
	"github.com/me/reel/pkg/timeline"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var speed float64
	var fps int
	var realtime bool
	var quiet bool
	var jsonOut bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Play a scenario locally without a server",
		Long: `Parse, validate, and play a scenario on a local timeline. By default the
clock is virtual and playback completes as fast as the machine can step
it; --realtime paces frames against the wall clock instead. With --json
the final runner states go to stdout as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(args[0], speed, fps, realtime, quiet, jsonOut, timeout)
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 0, "Override the scenario's playback speed")
	cmd.Flags().IntVar(&fps, "fps", 60, "Frames per second")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "Pace playback against the wall clock")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress messages")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit final runner states as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Playback limit: wall time with --realtime, timeline time otherwise")
	return cmd
}

func runScenario(path string, speed float64, fps int, realtime, quiet, jsonOut bool, timeout time.Duration) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenario: %w", err)
	}

	scn, err := scenario.NewParser(logger).Parse(data)
	if err != nil {
		return fmt.Errorf("parse scenario: %w", err)
	}

	eval, err := script.NewEvaluator(logger)
	if err != nil {
		return fmt.Errorf("script evaluator: %w", err)
	}
	if apiErr := scenario.NewValidator(eval, logger).Validate(scn); apiErr != nil {
		for _, fe := range apiErr.Details {
			loc := fe.Path
			if loc == "" {
				loc = fe.Field
			}
			fmt.Fprintf(os.Stderr, "  - %s: %s\n", loc, fe.Message)
		}
		return fmt.Errorf("scenario is invalid")
	}

	if fps <= 0 {
		fps = 60
	}
	if realtime {
		return runRealtime(scn, eval, speed, fps, quiet, jsonOut, timeout)
	}
	return runFast(scn, eval, speed, fps, quiet, jsonOut, timeout)
}

// runFast steps a virtual clock frame by frame without waiting, so a
// minute-long scenario settles in milliseconds.
func runFast(scn *model.Scenario, eval *script.Evaluator, speed float64, fps int, quiet, jsonOut bool, timeout time.Duration) error {
	source := timeline.NewFakeSource()
	frames := timeline.NewManualFrames()

	built, err := scenario.NewBuilder(eval, logger).Build(scn,
		timeline.WithSource(source),
		timeline.WithFrames(frames),
		timeline.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	tl := built.Timeline
	if speed != 0 {
		tl.SetSpeed(speed)
	}

	var finished bool
	tl.OnFinished(func() { finished = true })

	if !quiet {
		fmt.Fprintf(os.Stderr, "Playing %s (%d items, end %s)\n", scn.Name, len(built.Runners), formatMillis(tl.EndTime()))
	}

	tick := 1000.0 / float64(fps)
	maxTicks := int(timeout.Seconds()*1000/tick) + 1

	tl.Play()
	for i := 0; !finished && frames.Pending() > 0; i++ {
		if i >= maxTicks {
			tl.Pause()
			return fmt.Errorf("playback did not finish within %s of timeline time", timeout)
		}
		source.Advance(tick)
		frames.Fire()
	}

	return printRunResult(built, jsonOut, quiet)
}

// runRealtime plays against the wall clock, reporting progress while
// the scenario runs at its intended pace.
func runRealtime(scn *model.Scenario, eval *script.Evaluator, speed float64, fps int, quiet, jsonOut bool, timeout time.Duration) error {
	built, err := scenario.NewBuilder(eval, logger).Build(scn,
		timeline.WithFrames(timeline.NewTickerFrames(time.Second/time.Duration(fps))),
		timeline.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	tl := built.Timeline
	if speed != 0 {
		tl.SetSpeed(speed)
	}
	end := tl.EndTime()

	done := make(chan struct{})
	tl.OnFinished(func() { close(done) })

	if !quiet {
		fmt.Fprintf(os.Stderr, "Playing %s (%d items, end %s)\n", scn.Name, len(built.Runners), formatMillis(end))
	}
	tl.Play()

	progress := time.NewTicker(500 * time.Millisecond)
	defer progress.Stop()
	deadline := time.After(timeout)

	for {
		select {
		case <-done:
			return printRunResult(built, jsonOut, quiet)
		case <-progress.C:
			if !quiet {
				fmt.Fprintf(os.Stderr, "  t=%s/%s\n", formatMillis(tl.Time()), formatMillis(end))
			}
		case <-deadline:
			tl.Pause()
			return fmt.Errorf("timeout after %s: playback did not finish", timeout)
		}
	}
}

func printRunResult(built *scenario.Built, jsonOut, quiet bool) error {
	states := make([]model.RunnerStatus, 0, len(built.Runners))
	var failed []string
	for _, br := range built.Runners {
		rs := model.RunnerStatus{
			Name:     br.Item.Name,
			Kind:     br.Item.Kind,
			Duration: br.Tween.Duration(),
			Time:     br.Tween.Time(),
			Position: br.Tween.Position(),
			Done:     br.Tween.Done(),
			Active:   br.Tween.Active(),
		}
		if rs.Kind == "" {
			rs.Kind = model.ItemKindTween
		}
		if br.Script != nil {
			if v, ok := br.Script.Value(); ok {
				rs.Value = &v
			}
			if br.Script.Failed() {
				failed = append(failed, br.Item.Name)
			}
		}
		states = append(states, rs)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(states); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else if !quiet {
		for _, rs := range states {
			line := fmt.Sprintf("  %-20s %-6s position=%.3f", rs.Name, rs.Kind, rs.Position)
			if rs.Value != nil {
				line += fmt.Sprintf(" value=%g", *rs.Value)
			}
			fmt.Fprintln(os.Stderr, line)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("script runners failed: %v", failed)
	}
	return nil
}
