package model

import "time"

// SessionState is the playback state of a live session, derived from
// its timeline's clock on every snapshot.
type SessionState string

const (
	SessionStateRunning  SessionState = "RUNNING"
	SessionStatePaused   SessionState = "PAUSED"
	SessionStateFinished SessionState = "FINISHED"
)

// String returns the string representation of the session state.
func (s SessionState) String() string {
	return string(s)
}

// SessionInfo is a point-in-time snapshot of a live session.
type SessionInfo struct {
	ID           string         `json:"id"`
	ScenarioID   string         `json:"scenario_id"`
	ScenarioName string         `json:"scenario_name"`
	State        SessionState   `json:"state"`
	Playhead     float64        `json:"playhead_ms"`
	Speed        float64        `json:"speed"`
	EndTime      float64        `json:"end_time_ms"`
	Active       bool           `json:"active"`
	Runners      []RunnerStatus `json:"runners,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RunnerStatus describes one runner of a session. Scheduled runners
// carry their placement; evicted ones only their final local state.
type RunnerStatus struct {
	Name      string   `json:"name"`
	Kind      ItemKind `json:"kind"`
	Scheduled bool     `json:"scheduled"`
	Start     float64  `json:"start_ms,omitempty"`
	Duration  float64  `json:"duration_ms"`
	End       float64  `json:"end_ms,omitempty"`
	Time      float64  `json:"time_ms"`
	Position  float64  `json:"position"`
	Value     *float64 `json:"value,omitempty"` // script result, when the item computes one
	Done      bool     `json:"done"`
	Active    bool     `json:"active"`
}

// SessionCommand is a transport verb accepted by the session control
// endpoint.
type SessionCommand string

const (
	CommandPlay     SessionCommand = "play"
	CommandPause    SessionCommand = "pause"
	CommandStop     SessionCommand = "stop"
	CommandFinish   SessionCommand = "finish"
	CommandSeek     SessionCommand = "seek"
	CommandSetTime  SessionCommand = "set_time"
	CommandSetSpeed SessionCommand = "set_speed"
	CommandReverse  SessionCommand = "reverse"
)

// Valid reports whether the command is a known transport verb.
func (c SessionCommand) Valid() bool {
	switch c {
	case CommandPlay, CommandPause, CommandStop, CommandFinish,
		CommandSeek, CommandSetTime, CommandSetSpeed, CommandReverse:
		return true
	}
	return false
}

// NeedsValue reports whether the command requires a numeric argument.
func (c SessionCommand) NeedsValue() bool {
	switch c {
	case CommandSeek, CommandSetTime, CommandSetSpeed:
		return true
	}
	return false
}

// ControlRequest is the body of a session control call. Value carries
// the argument for seek (delta ms), set_time (absolute ms) and
// set_speed (multiplier); reverse takes an optional Flag, negating the
// current speed when omitted.
type ControlRequest struct {
	Command SessionCommand `json:"command"`
	Value   *float64       `json:"value,omitempty"`
	Flag    *bool          `json:"flag,omitempty"`
}

// CreateSessionRequest starts a session from a stored scenario.
type CreateSessionRequest struct {
	ScenarioID string `json:"scenario_id"`
	Paused     bool   `json:"paused,omitempty"` // start paused instead of playing
}
