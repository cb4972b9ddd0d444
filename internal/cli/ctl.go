package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/me/reel/pkg/model"
	"github.com/spf13/cobra"
)

func newCtlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ctl <session_id> <command> [value]",
		Short: "Send a transport command to a session",
		Long: `Send a transport command to a live session.

Commands: play, pause, stop, finish, seek <delta_ms>, set_time <ms>,
set_speed <multiplier>, reverse [true|false].

Negative values need a flag terminator: reel ctl ses_1 seek -- -250`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			command := model.SessionCommand(args[1])
			if !command.Valid() {
				return fmt.Errorf("unknown command %q", args[1])
			}

			req := model.ControlRequest{Command: command}
			switch {
			case command.NeedsValue():
				if len(args) < 3 {
					return fmt.Errorf("%s requires a value", command)
				}
				v, err := strconv.ParseFloat(args[2], 64)
				if err != nil {
					return fmt.Errorf("parse value %q: %w", args[2], err)
				}
				req.Value = &v
			case command == model.CommandReverse && len(args) == 3:
				flag, err := strconv.ParseBool(args[2])
				if err != nil {
					return fmt.Errorf("parse flag %q: %w", args[2], err)
				}
				req.Flag = &flag
			case len(args) == 3:
				return fmt.Errorf("%s takes no value", command)
			}

			resp, err := client.Post("/api/v1/sessions/"+id+"/ctl", req)
			if err != nil {
				return fmt.Errorf("control session: %w", err)
			}

			var data map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			state, _ := data["state"].(string)
			playhead, _ := data["playhead_ms"].(float64)
			fmt.Printf("Session %s: %s (playhead %s)\n", id, state, formatMillis(playhead))
			return nil
		},
	}
}
