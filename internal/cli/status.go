package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <session_id>",
		Short: "Show the state of a playback session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			resp, err := client.Get("/api/v1/sessions/" + id)
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}

			var data map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			state, _ := data["state"].(string)
			scnName, _ := data["scenario_name"].(string)
			scnID, _ := data["scenario_id"].(string)
			playhead, _ := data["playhead_ms"].(float64)
			endTime, _ := data["end_time_ms"].(float64)
			speed, _ := data["speed"].(float64)

			fmt.Printf("Session: %s\n", id)
			fmt.Printf("  Scenario: %s (%s)\n", scnName, scnID)
			fmt.Printf("  State:    %s\n", state)
			fmt.Printf("  Playhead: %s / %s\n", formatMillis(playhead), formatMillis(endTime))
			fmt.Printf("  Speed:    %.2f\n", speed)

			if runners, ok := data["runners"].([]any); ok && len(runners) > 0 {
				fmt.Println("  Runners:")
				for _, r := range runners {
					runner, ok := r.(map[string]any)
					if !ok {
						continue
					}
					name, _ := runner["name"].(string)
					kind, _ := runner["kind"].(string)
					position, _ := runner["position"].(float64)
					timeMS, _ := runner["time_ms"].(float64)
					durationMS, _ := runner["duration_ms"].(float64)

					line := fmt.Sprintf("    %-20s  %-6s  %s %3.0f%%  %s/%s",
						name, kind, asciiBar(position, 20), position*100,
						formatMillis(timeMS), formatMillis(durationMS))
					if value, ok := runner["value"].(float64); ok {
						line += fmt.Sprintf("  value=%g", value)
					}
					if done, _ := runner["done"].(bool); done {
						line += "  done"
					}
					fmt.Println(line)
				}
			}

			if createdAt, ok := data["created_at"].(string); ok {
				fmt.Printf("  Created:  %s\n", createdAt)
			}

			return nil
		},
	}
}

// formatMillis renders a millisecond count for humans.
func formatMillis(ms float64) string {
	if math.Abs(ms) < 1000 {
		return fmt.Sprintf("%gms", ms)
	}
	return fmt.Sprintf("%.4gs", ms/1000)
}

// asciiBar renders progress as a fixed-width bar of # marks.
func asciiBar(position float64, width int) string {
	if position < 0 {
		position = 0
	}
	if position > 1 {
		position = 1
	}
	filled := int(position * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
