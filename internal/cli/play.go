package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	var paused bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "play <scenario_id>",
		Short: "Start a playback session from a stored scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarioID := args[0]

			resp, err := client.Post("/api/v1/sessions/", map[string]any{
				"scenario_id": scenarioID,
				"paused":      paused,
			})
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}

			var data map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			id, ok := data["id"].(string)
			if !ok {
				return fmt.Errorf("session response missing 'id' field")
			}
			state, _ := data["state"].(string)
			endTime, _ := data["end_time_ms"].(float64)

			fmt.Printf("Session created: %s (state: %s, end: %s)\n", id, state, formatMillis(endTime))

			if watch {
				return watchSession(id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&paused, "paused", false, "Create the session paused instead of playing")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Attach the live watch view after creating")
	return cmd
}
