package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/me/reel/internal/logging"
	"github.com/me/reel/internal/tui"
	"github.com/me/reel/pkg/model"
)

func newWatchCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "watch <session_id>",
		Short: "Watch a session live in the terminal",
		Long: `Full-screen live view of a playback session. Transport keys are sent
straight to the server; q quits without touching the session.

With --plain the stream is printed one line per event instead, which
suits logs and pipes. Ctrl-C stops following.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain {
				return followSession(args[0])
			}
			return watchSession(args[0])
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Line-based event output instead of the full-screen view")
	return cmd
}

// followSession prints one line per stream event until the stream ends
// or the user interrupts.
func followSession(id string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	events, err := client.Stream(ctx, "/api/v1/sse/sessions/"+id)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	for ev := range events {
		switch ev.Name {
		case "init":
			var info model.SessionInfo
			if err := json.Unmarshal(ev.Data, &info); err != nil {
				continue
			}
			fmt.Printf("%-10s %-9s %s/%s  speed %gx\n",
				ev.Name, info.State, formatMillis(info.Playhead), formatMillis(info.EndTime), info.Speed)
		default:
			var event model.Event
			if err := json.Unmarshal(ev.Data, &event); err != nil {
				continue
			}
			fmt.Printf("%-10s %-9s %s\n", ev.Name, event.State, formatMillis(event.Playhead))
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	fmt.Println("stream closed")
	return nil
}

// watchSession runs the full-screen watch view. The view owns the
// terminal, so it talks through a client with a discarded logger
// instead of the shared one.
func watchSession(id string) error {
	quiet := NewClient(flagServer, logging.Discard())
	ctl := &sessionController{client: quiet, id: id}

	info, err := ctl.Info()
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	p := tea.NewProgram(tui.NewModel(info, ctl), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := quiet.Stream(ctx, "/api/v1/sse/sessions/"+id)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	go func() {
		for ev := range events {
			switch ev.Name {
			case "init":
				var snapshot model.SessionInfo
				if json.Unmarshal(ev.Data, &snapshot) == nil {
					p.Send(tui.InfoMsg(snapshot))
				}
			default:
				var event model.Event
				if json.Unmarshal(ev.Data, &event) == nil {
					p.Send(tui.EventMsg(event))
				}
			}
		}
		p.Send(tui.StreamClosedMsg{Err: ctx.Err()})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// sessionController adapts the API client to the watch view.
type sessionController struct {
	client *Client
	id     string
}

func (c *sessionController) Info() (model.SessionInfo, error) {
	resp, err := c.client.Get("/api/v1/sessions/" + c.id)
	if err != nil {
		return model.SessionInfo{}, err
	}
	var info model.SessionInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return model.SessionInfo{}, fmt.Errorf("parse session: %w", err)
	}
	return info, nil
}

func (c *sessionController) Control(req model.ControlRequest) (model.SessionInfo, error) {
	resp, err := c.client.Post("/api/v1/sessions/"+c.id+"/ctl", req)
	if err != nil {
		return model.SessionInfo{}, err
	}
	var info model.SessionInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return model.SessionInfo{}, fmt.Errorf("parse session: %w", err)
	}
	return info, nil
}
