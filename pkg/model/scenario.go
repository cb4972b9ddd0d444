package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Scenario is a parsed, validated timeline definition stored in reel's
// catalog. It describes which runners a session schedules and where.
type Scenario struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	ContentHash string       `json:"content_hash,omitempty"` // SHA-256 of RawYAML for deduplication
	RawYAML     string       `json:"-"`                      // Original document (not exposed in API list views)
	Speed       float64      `json:"speed,omitempty"`        // Initial playback speed, 1 when omitted
	Persist     *PersistSpec `json:"persist,omitempty"`      // Timeline-wide eviction grace default
	Items       []Item       `json:"items"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ItemAt returns the item with the given name, or nil.
func (s *Scenario) ItemAt(name string) *Item {
	for i := range s.Items {
		if s.Items[i].Name == name {
			return &s.Items[i]
		}
	}
	return nil
}

// TotalDuration sums the durations of all items. It is a rough size
// indicator for list views, not the timeline end time, which depends on
// placement.
func (s *Scenario) TotalDuration() float64 {
	var total float64
	for _, it := range s.Items {
		total += it.Duration
	}
	return total
}

// Item is one runner definition within a Scenario.
type Item struct {
	Name     string       `json:"name"`
	Kind     ItemKind     `json:"kind"`
	Duration float64      `json:"duration_ms"`
	Delay    float64      `json:"delay_ms,omitempty"`
	Place    string       `json:"place,omitempty"` // placement mode, "last" when omitted
	Ease     string       `json:"ease,omitempty"`  // easing name, "linear" when omitted
	Script   string       `json:"script,omitempty"`
	Persist  *PersistSpec `json:"persist,omitempty"`
}

// ItemKind selects the runner implementation behind an Item.
type ItemKind string

const (
	ItemKindTween  ItemKind = "tween"
	ItemKindScript ItemKind = "script"
)

// String returns the string representation of the item kind.
func (k ItemKind) String() string {
	return string(k)
}

// Valid reports whether the kind names a known runner implementation.
// The empty kind defaults to a tween.
func (k ItemKind) Valid() bool {
	switch k {
	case "", ItemKindTween, ItemKindScript:
		return true
	}
	return false
}

// PersistSpec is a wire-friendly eviction policy: the JSON literal true
// means keep the runner forever, a number means grace milliseconds.
type PersistSpec struct {
	Forever bool
	Grace   float64
}

func (p PersistSpec) MarshalJSON() ([]byte, error) {
	if p.Forever {
		return []byte("true"), nil
	}
	return json.Marshal(p.Grace)
}

func (p *PersistSpec) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*p = PersistSpec{Forever: true}
		} else {
			*p = PersistSpec{}
		}
		return nil
	}
	var g float64
	if err := json.Unmarshal(data, &g); err != nil {
		return fmt.Errorf("persist must be true or a number of milliseconds")
	}
	*p = PersistSpec{Grace: g}
	return nil
}
