package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a scenario document without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read scenario: %w", err)
			}

			resp, err := client.Post("/api/v1/scenarios/validate", map[string]any{"yaml": string(data)})
			if err != nil {
				return fmt.Errorf("validate scenario: %w", err)
			}

			var report map[string]any
			if err := json.Unmarshal(resp.Data, &report); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			valid, _ := report["valid"].(bool)
			if valid {
				fmt.Printf("%s: valid\n", path)
				return nil
			}

			fmt.Printf("%s: INVALID\n", path)
			if errs, ok := report["errors"].([]any); ok {
				for _, e := range errs {
					em, ok := e.(map[string]any)
					if !ok {
						continue
					}
					loc, _ := em["path"].(string)
					if loc == "" {
						loc, _ = em["field"].(string)
					}
					fmt.Printf("  - %s: %s\n", loc, em["message"])
				}
			}
			return fmt.Errorf("scenario is invalid")
		},
	}
}
