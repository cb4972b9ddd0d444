package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/scenarios/")
			if err != nil {
				return fmt.Errorf("list scenarios: %w", err)
			}

			var data []map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("No scenarios found.")
				return nil
			}

			fmt.Printf("%-40s  %-24s  %6s  %s\n", "ID", "NAME", "ITEMS", "CREATED")
			fmt.Printf("%-40s  %-24s  %6s  %s\n", "----", "-----", "-----", "-------")
			for _, scn := range data {
				id, _ := scn["id"].(string)
				name, _ := scn["name"].(string)
				items, _ := scn["items"].([]any)
				createdAt, _ := scn["created_at"].(string)
				fmt.Printf("%-40s  %-24s  %6d  %s\n", id, name, len(items), createdAt)
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(data), resp.Pagination.Total)
			}

			return nil
		},
	}
}
