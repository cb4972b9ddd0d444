package session

import (
	"sync"

	"github.com/me/reel/pkg/model"
)

// subscriberBuffer is the per-subscriber channel depth. Time events
// arrive at frame rate; a slow consumer loses events rather than
// stalling the timeline's tick.
const subscriberBuffer = 64

// Broker fans session events out to stream subscribers.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan model.Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan model.Event)}
}

// Subscribe registers for one session's events. The returned cancel
// closes the channel and is safe to call more than once.
func (b *Broker) Subscribe(sessionID string) (<-chan model.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan model.Event, subscriberBuffer)
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]chan model.Event)
	}
	b.subs[sessionID][id] = ch

	return ch, func() { b.remove(sessionID, id) }
}

// Publish delivers ev to every subscriber of its session, skipping any
// whose buffer is full.
func (b *Broker) Publish(ev model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// CloseSession drops every subscriber of a session and closes their
// channels so open streams end.
func (b *Broker) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs[sessionID] {
		delete(b.subs[sessionID], id)
		close(ch)
	}
	delete(b.subs, sessionID)
}

func (b *Broker) remove(sessionID string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[sessionID]
	ch, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	close(ch)
	if len(subs) == 0 {
		delete(b.subs, sessionID)
	}
}
