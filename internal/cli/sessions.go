package cli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List live playback sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/sessions/"
			if state != "" {
				path += "?state=" + url.QueryEscape(state)
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			var data []map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}

			fmt.Printf("%-42s  %-10s  %-24s  %12s  %6s\n", "ID", "STATE", "SCENARIO", "PLAYHEAD", "SPEED")
			fmt.Printf("%-42s  %-10s  %-24s  %12s  %6s\n", "----", "-----", "--------", "--------", "-----")
			for _, ses := range data {
				id, _ := ses["id"].(string)
				st, _ := ses["state"].(string)
				name, _ := ses["scenario_name"].(string)
				playhead, _ := ses["playhead_ms"].(float64)
				speed, _ := ses["speed"].(float64)
				fmt.Printf("%-42s  %-10s  %-24s  %12s  %6.2g\n", id, st, name, formatMillis(playhead), speed)
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(data), resp.Pagination.Total)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state (RUNNING, PAUSED, FINISHED)")
	return cmd
}
