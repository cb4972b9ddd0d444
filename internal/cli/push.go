package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <scenario.yaml>",
		Short: "Register a scenario document with the server",
		Long:  "Parse and validate a scenario document, then store it on the reel server. Pushing the same document twice returns the existing scenario.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read scenario: %w", err)
			}
			logger.Debug("pushing scenario", "path", path, "size", len(data))

			resp, err := client.Post("/api/v1/scenarios/", map[string]any{"yaml": string(data)})
			if err != nil {
				return fmt.Errorf("push scenario: %w", err)
			}

			var scn map[string]any
			if err := json.Unmarshal(resp.Data, &scn); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			id, _ := scn["id"].(string)
			name, _ := scn["name"].(string)
			items, _ := scn["items"].([]any)

			if resp.httpStatus == http.StatusOK {
				fmt.Printf("Scenario already registered: %s (%s)\n", id, name)
				return nil
			}
			fmt.Printf("Scenario registered: %s (%s, %d items)\n", id, name, len(items))
			return nil
		},
	}
}
