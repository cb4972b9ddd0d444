package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/me/reel/pkg/model"
)

// InfoMsg replaces the whole session snapshot, runner detail included.
type InfoMsg model.SessionInfo

// EventMsg applies one stream event. Time events move the playhead;
// state and finished events also switch the badge.
type EventMsg model.Event

// StreamClosedMsg reports that the event stream ended. Err is nil when
// the server closed it cleanly, which happens when the session is
// deleted.
type StreamClosedMsg struct {
	Err error
}

// errMsg carries a failed control or refresh call.
type errMsg struct {
	err error
}

// tickMsg drives the periodic snapshot refresh that fills in runner
// detail between stream events.
type tickMsg time.Time

// doTick returns a command that sends a tickMsg after the given duration.
func doTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
