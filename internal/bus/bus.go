package bus

import (
	"sync"
	"time"
)

// Event types emitted by the decay engine.
const (
	TypeDecayEventCompleted = "decay_event_completed"
	TypeItemTransitioned    = "item_transitioned"
	TypeAlertRaised         = "alert_raised"
)

// Event is one domain notification. Persistence happens before publication,
// so subscribers observe already-committed state.
type Event struct {
	Type     string  `json:"type"`
	OwnerID  string  `json:"owner_id"`
	ItemID   string  `json:"item_id,omitempty"`
	EventID  int64   `json:"event_id,omitempty"`
	Stage    string  `json:"stage,omitempty"`
	Year     float64 `json:"year,omitempty"`
	Severity string  `json:"severity,omitempty"`
	At       int64   `json:"at"`
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses events rather than stalling a decay cycle.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber with the given channel buffer.
// The returned cancel func closes the channel and stops delivery.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber that has buffer room.
func (b *Bus) Publish(ev Event) {
	if ev.At == 0 {
		ev.At = time.Now().UnixMilli()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers are registered.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
