// Package session owns the server's live sessions. A session pairs a
// stored scenario with a running timeline plus the event plumbing
// around it. Sessions are runtime-only: restarting the process drops
// them, only scenario definitions survive in the store.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/reel/internal/scenario"
	"github.com/me/reel/pkg/model"
	"github.com/me/reel/pkg/timeline"
)

// ErrNotFound reports an unknown session id.
var ErrNotFound = errors.New("session not found")

// Manager creates, tracks, and controls live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	builder  *scenario.Builder
	broker   *Broker
	logger   *slog.Logger
	tlOpts   []timeline.Option
}

// NewManager creates a session manager. tlOpts are handed to every
// session's timeline; tests inject fake clocks and manual frame
// sources through them.
func NewManager(builder *scenario.Builder, broker *Broker, logger *slog.Logger, tlOpts ...timeline.Option) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		builder:  builder,
		broker:   broker,
		logger:   logger.With("component", "session"),
		tlOpts:   tlOpts,
	}
}

// session is one live playback of a scenario.
type session struct {
	id        string
	scenario  *model.Scenario
	built     *scenario.Built
	createdAt time.Time

	mu       sync.Mutex
	finished bool
}

func (s *session) setFinished(v bool) {
	s.mu.Lock()
	s.finished = v
	s.mu.Unlock()
}

func (s *session) isFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Create builds a timeline for the scenario and registers it as a new
// session. The session starts playing immediately unless paused is set.
func (m *Manager) Create(scn *model.Scenario, paused bool) (model.SessionInfo, error) {
	built, err := m.builder.Build(scn, m.tlOpts...)
	if err != nil {
		return model.SessionInfo{}, fmt.Errorf("build scenario %s: %w", scn.ID, err)
	}

	s := &session{
		id:        "ses_" + uuid.New().String(),
		scenario:  scn,
		built:     built,
		createdAt: time.Now().UTC(),
	}

	built.Timeline.OnTime(func(playhead float64) {
		m.broker.Publish(model.Event{
			Type:      model.EventTime,
			SessionID: s.id,
			Playhead:  playhead,
			At:        time.Now().UTC(),
		})
	})
	built.Timeline.OnFinished(func() {
		s.setFinished(true)
		m.broker.Publish(model.Event{
			Type:      model.EventFinished,
			SessionID: s.id,
			Playhead:  built.Timeline.Time(),
			State:     model.SessionStateFinished,
			At:        time.Now().UTC(),
		})
	})

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	if !paused {
		built.Timeline.Play()
	}

	m.logger.Info("session created", "id", s.id, "scenario", scn.Name, "paused", paused)
	return s.info(), nil
}

// Get returns a snapshot of one session.
func (m *Manager) Get(id string) (model.SessionInfo, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return model.SessionInfo{}, false
	}
	return s.info(), true
}

// List returns session snapshots, newest first, after applying the
// state filter. total counts all matches before pagination.
func (m *Manager) List(opts model.ListOptions) ([]model.SessionInfo, int) {
	opts.Clamp()

	m.mu.Lock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].createdAt.After(all[j].createdAt) })

	infos := make([]model.SessionInfo, 0, len(all))
	for _, s := range all {
		info := s.info()
		if opts.State != "" && string(info.State) != opts.State {
			continue
		}
		infos = append(infos, info)
	}
	total := len(infos)

	if opts.Offset >= len(infos) {
		return nil, total
	}
	infos = infos[opts.Offset:]
	if len(infos) > opts.Limit {
		infos = infos[:opts.Limit]
	}
	return infos, total
}

// Control applies a transport command to a session and returns the
// resulting snapshot. Commands that move the playhead or resume
// playback clear the finished latch; the timeline re-finishes on its
// own if no work remains.
func (m *Manager) Control(id string, req model.ControlRequest) (model.SessionInfo, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return model.SessionInfo{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if req.Command.NeedsValue() && req.Value == nil {
		return model.SessionInfo{}, fmt.Errorf("command %s requires a value", req.Command)
	}

	tl := s.built.Timeline
	switch req.Command {
	case model.CommandPlay:
		s.setFinished(false)
		tl.Play()
	case model.CommandPause:
		tl.Pause()
	case model.CommandStop:
		// Stop's internal seek to 0 can fire the finished notification
		// when nothing is scheduled anymore; a stopped session still
		// presents as paused at 0, so the latch clears afterwards.
		tl.Stop()
		s.setFinished(false)
	case model.CommandFinish:
		tl.Finish()
	case model.CommandSeek:
		s.setFinished(false)
		tl.Seek(*req.Value)
	case model.CommandSetTime:
		s.setFinished(false)
		tl.SetTime(*req.Value)
	case model.CommandSetSpeed:
		tl.SetSpeed(*req.Value)
	case model.CommandReverse:
		if req.Flag != nil {
			tl.SetReversed(*req.Flag)
		} else {
			tl.Reverse()
		}
	default:
		return model.SessionInfo{}, fmt.Errorf("unknown command %q", req.Command)
	}

	info := s.info()
	m.broker.Publish(model.Event{
		Type:      model.EventState,
		SessionID: s.id,
		Playhead:  info.Playhead,
		State:     info.State,
		At:        time.Now().UTC(),
	})
	m.logger.Debug("session control", "id", s.id, "command", req.Command)
	return info, nil
}

// Delete stops a session's clock, ends its streams, and forgets it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	s.built.Timeline.Pause()
	m.broker.CloseSession(id)
	m.logger.Info("session deleted", "id", id)
	return nil
}

// Subscribe streams a session's events. ok is false for unknown ids.
func (m *Manager) Subscribe(id string) (<-chan model.Event, func(), bool) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil, false
	}
	ch, cancel := m.broker.Subscribe(id)
	return ch, cancel, true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown pauses every session and ends all event streams. Sessions
// are runtime-only, so there is nothing to flush beyond that.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.built.Timeline.Pause()
		m.broker.CloseSession(s.id)
	}
	m.logger.Info("session manager stopped", "sessions", len(sessions))
}

// info snapshots the session. Timeline accessors each take the
// timeline's lock, so the snapshot is read consistently even while
// frames are firing.
func (s *session) info() model.SessionInfo {
	tl := s.built.Timeline

	info := model.SessionInfo{
		ID:           s.id,
		ScenarioID:   s.scenario.ID,
		ScenarioName: s.scenario.Name,
		Playhead:     tl.Time(),
		Speed:        tl.Speed(),
		EndTime:      tl.EndTime(),
		Active:       tl.Active(),
		CreatedAt:    s.createdAt,
	}

	switch {
	case s.isFinished() && tl.Paused():
		info.State = model.SessionStateFinished
	case tl.Paused():
		info.State = model.SessionStatePaused
	default:
		info.State = model.SessionStateRunning
	}

	slots := make(map[string]timeline.Schedule)
	for _, sch := range tl.Schedules() {
		slots[sch.Runner.ID()] = sch
	}

	for _, br := range s.built.Runners {
		rs := model.RunnerStatus{
			Name:     br.Item.Name,
			Kind:     br.Item.Kind,
			Duration: br.Runner.Duration(),
			Time:     br.Runner.Time(),
			Position: br.Tween.Position(),
			Done:     br.Tween.Done(),
			Active:   br.Runner.Active(),
		}
		if rs.Kind == "" {
			rs.Kind = model.ItemKindTween
		}
		if sch, ok := slots[br.Item.Name]; ok {
			rs.Scheduled = true
			rs.Start = sch.Start
			rs.End = sch.End
		}
		if br.Script != nil {
			if v, ok := br.Script.Value(); ok {
				rs.Value = &v
			}
		}
		info.Runners = append(info.Runners, rs)
	}
	return info
}
