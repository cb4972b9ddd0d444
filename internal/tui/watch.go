// Package tui renders the live session watch view. It is a read-mostly
// full-screen display: stream events move the playhead between periodic
// snapshot refreshes, and a handful of keys map to transport commands.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/me/reel/pkg/model"
)

// refreshInterval is how often the view pulls a full snapshot. Stream
// events keep the playhead moving in between, but runner detail only
// arrives with snapshots.
const refreshInterval = 500 * time.Millisecond

// seekStepMS is the playhead jump for one arrow key press.
const seekStepMS = 1000.0

const runnerBarWidth = 24

// Controller is the slice of the API client the watch view drives.
type Controller interface {
	Info() (model.SessionInfo, error)
	Control(req model.ControlRequest) (model.SessionInfo, error)
}

// Model is the Bubble Tea model for the watch view.
type Model struct {
	info   model.SessionInfo
	ctl    Controller
	styles Styles

	width       int
	height      int
	initialized bool
	closed      bool
	err         error
	quitting    bool
}

// NewModel creates a watch model seeded with an initial snapshot.
func NewModel(info model.SessionInfo, ctl Controller) Model {
	return Model{
		info:   info,
		ctl:    ctl,
		styles: DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return doTick(refreshInterval)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.initialized = true
		return m, nil

	case tickMsg:
		if m.closed {
			return m, nil
		}
		return m, tea.Batch(m.refresh(), doTick(refreshInterval))

	case InfoMsg:
		m.info = model.SessionInfo(msg)
		m.err = nil
		return m, nil

	case EventMsg:
		m.info.Playhead = msg.Playhead
		if msg.State != "" {
			m.info.State = msg.State
		}
		return m, nil

	case StreamClosedMsg:
		m.closed = true
		m.err = msg.Err
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeySpace:
		if m.info.State == model.SessionStateRunning {
			return m, m.control(model.ControlRequest{Command: model.CommandPause})
		}
		return m, m.control(model.ControlRequest{Command: model.CommandPlay})

	case tea.KeyLeft:
		return m, m.control(seekRequest(-seekStepMS))

	case tea.KeyRight:
		return m, m.control(seekRequest(seekStepMS))

	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return m, nil
		}
		switch msg.Runes[0] {
		case 'q':
			m.quitting = true
			return m, tea.Quit
		case 's':
			return m, m.control(model.ControlRequest{Command: model.CommandStop})
		case 'f':
			return m, m.control(model.ControlRequest{Command: model.CommandFinish})
		case 'r':
			return m, m.control(model.ControlRequest{Command: model.CommandReverse})
		case '+', '=':
			return m, m.control(speedRequest(m.info.Speed * 2))
		case '-', '_':
			return m, m.control(speedRequest(m.info.Speed / 2))
		}
	}

	return m, nil
}

// refresh fetches a full snapshot off the UI goroutine.
func (m Model) refresh() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		info, err := ctl.Info()
		if err != nil {
			return errMsg{err}
		}
		return InfoMsg(info)
	}
}

// control sends a transport command off the UI goroutine and feeds the
// resulting snapshot back in.
func (m Model) control(req model.ControlRequest) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		info, err := ctl.Control(req)
		if err != nil {
			return errMsg{err}
		}
		return InfoMsg(info)
	}
}

func seekRequest(dt float64) model.ControlRequest {
	return model.ControlRequest{Command: model.CommandSeek, Value: &dt}
}

func speedRequest(v float64) model.ControlRequest {
	if v == 0 {
		v = 1
	}
	return model.ControlRequest{Command: model.CommandSetSpeed, Value: &v}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.initialized {
		return "Loading..."
	}
	if m.quitting {
		return ""
	}

	var b strings.Builder

	left := m.styles.Title.Render(m.info.ID) + "  " + m.styles.Scenario.Render(m.info.ScenarioName)
	b.WriteString(padBetween(left, m.stateBadge(), m.width))
	b.WriteString("\n\n")

	b.WriteString(m.transportLine())
	b.WriteString("\n")
	b.WriteString("  " + m.bar(m.playheadPosition(), m.playheadBarWidth()))
	b.WriteString("\n\n")

	for _, r := range m.info.Runners {
		b.WriteString(m.runnerRow(r))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) stateBadge() string {
	state := string(m.info.State)
	switch m.info.State {
	case model.SessionStateRunning:
		return m.styles.StateRunning.Render(state)
	case model.SessionStatePaused:
		return m.styles.StatePaused.Render(state)
	case model.SessionStateFinished:
		return m.styles.StateFinished.Render(state)
	}
	return state
}

func (m Model) transportLine() string {
	symbol := "⏸"
	if m.info.State == model.SessionStateRunning {
		symbol = "▶"
		if m.info.Speed < 0 {
			symbol = "◀"
		}
	}
	line := fmt.Sprintf("  %s %s / %s", symbol, millis(m.info.Playhead), millis(m.info.EndTime))
	line += m.styles.Muted.Render(fmt.Sprintf("   speed %.2gx", m.info.Speed))
	return line
}

func (m Model) playheadPosition() float64 {
	if m.info.EndTime <= 0 {
		return 0
	}
	return m.info.Playhead / m.info.EndTime
}

func (m Model) playheadBarWidth() int {
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) runnerRow(r model.RunnerStatus) string {
	name := fmt.Sprintf("%-20s", r.Name)
	if r.Scheduled {
		name = m.styles.RunnerName.Render(name)
	} else {
		name = m.styles.Evicted.Render(name)
	}
	kind := m.styles.RunnerKind.Render(fmt.Sprintf("%-6s", r.Kind))

	row := fmt.Sprintf("  %s %s %s %4.0f%%  %s/%s",
		name, kind, m.bar(r.Position, runnerBarWidth), r.Position*100,
		millis(r.Time), millis(r.Duration))
	if r.Value != nil {
		row += m.styles.Value.Render(fmt.Sprintf("  value=%g", *r.Value))
	}
	if r.Done {
		row += m.styles.Muted.Render("  done")
	}
	return row
}

func (m Model) footer() string {
	help := m.styles.Muted.Render("space play/pause   s stop   f finish   r reverse   arrows seek   +/- speed   q quit")
	if m.closed {
		note := "stream closed"
		if m.err != nil {
			note = "stream closed: " + m.err.Error()
		}
		return m.styles.Error.Render(note) + "\n" + help
	}
	if m.err != nil {
		return m.styles.Error.Render(m.err.Error()) + "\n" + help
	}
	return help
}

// bar renders a progress bar of the given cell width.
func (m Model) bar(pos float64, width int) string {
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	filled := int(pos*float64(width) + 0.5)
	return m.styles.BarFilled.Render(strings.Repeat("█", filled)) +
		m.styles.BarEmpty.Render(strings.Repeat("░", width-filled))
}

// padBetween spreads left and right across one full-width line.
func padBetween(left, right string, width int) string {
	pad := width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

// millis renders a millisecond count for humans.
func millis(ms float64) string {
	if ms < 0 {
		return "-" + millis(-ms)
	}
	if ms < 1000 {
		return fmt.Sprintf("%gms", ms)
	}
	return fmt.Sprintf("%.4gs", ms/1000)
}
