package model

import "time"

// EventType names the kinds of notifications a session stream carries.
type EventType string

const (
	// EventTime is emitted on every tick with the new playhead.
	EventTime EventType = "time"
	// EventFinished is emitted when the timeline stops ticking on its own.
	EventFinished EventType = "finished"
	// EventState is emitted after a control command changes transport state.
	EventState EventType = "state"
)

// Event is one notification on a session's stream.
type Event struct {
	Type      EventType    `json:"type"`
	SessionID string       `json:"session_id"`
	Playhead  float64      `json:"playhead_ms"`
	State     SessionState `json:"state,omitempty"`
	At        time.Time    `json:"at"`
}
