package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a scenario or session",
		Long: `Delete a scenario (scn_...) or a live session (ses_...); the ID prefix
picks the resource. Deleting a scenario does not touch sessions already
running it, they keep their own copy. Deleting a session stops playback
and ends its event streams.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if strings.HasPrefix(id, "ses_") {
				if _, err := client.Delete("/api/v1/sessions/" + id); err != nil {
					return fmt.Errorf("delete session: %w", err)
				}
				fmt.Printf("Session deleted: %s\n", id)
				return nil
			}

			if _, err := client.Delete("/api/v1/scenarios/" + id); err != nil {
				return fmt.Errorf("delete scenario: %w", err)
			}
			fmt.Printf("Scenario deleted: %s\n", id)
			return nil
		},
	}
}
