package caption

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Event is a caption publication fanned out to live subscribers (SSE, MQTT).
type Event struct {
	ID        string          `json:"id"`
	Stream    string          `json:"stream"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Filter limits which events a subscriber receives. Empty means everything.
type Filter struct {
	Streams []string
}

// Bus fans out caption events to subscribers and keeps a ring of recent
// events so a reconnecting SSE client can replay what it missed.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	nextID      uint64
	seq         atomic.Uint64

	ring     []Event
	ringSize int
	ringHead int
	ringMu   sync.RWMutex
}

type subscriber struct {
	ch     chan Event
	filter Filter
}

// NewBus creates a bus with the given replay ring size.
func NewBus(ringSize int) *Bus {
	return &Bus{
		subscribers: make(map[uint64]subscriber),
		ring:        make([]Event, ringSize),
		ringSize:    ringSize,
	}
}

// Subscribe registers a subscriber and returns its channel and a cancel
// function. Slow subscribers drop events rather than blocking the writer.
func (b *Bus) Subscribe(filter Filter) (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	b.subscribers[id] = subscriber{ch: ch, filter: filter}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish emits a caption event for stream with the given text and publish
// time, adding it to the replay ring.
func (b *Bus) Publish(stream, text string, at time.Time) {
	payload, err := json.Marshal(struct {
		Stream string `json:"stream"`
		Text   string `json:"text"`
		At     string `json:"at"`
	}{stream, text, at.UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return
	}

	seq := b.seq.Add(1)
	event := Event{
		ID:        fmt.Sprintf("%d-%d", at.UnixMilli(), seq),
		Stream:    stream,
		Timestamp: at.UTC().Format(time.RFC3339),
		Data:      payload,
	}

	b.ringMu.Lock()
	b.ring[b.ringHead] = event
	b.ringHead = (b.ringHead + 1) % b.ringSize
	b.ringMu.Unlock()

	b.mu.RLock()
	for _, sub := range b.subscribers {
		if matchesFilter(event, sub.filter) {
			select {
			case sub.ch <- event:
			default:
				// Drop if subscriber is slow
			}
		}
	}
	b.mu.RUnlock()
}

// ReplaySince returns ring events after the given event ID, oldest first.
// An empty lastEventID returns everything buffered.
func (b *Bus) ReplaySince(lastEventID string, filter Filter) []Event {
	b.ringMu.RLock()
	defer b.ringMu.RUnlock()

	var events []Event
	found := lastEventID == ""

	for i := 0; i < b.ringSize; i++ {
		idx := (b.ringHead + i) % b.ringSize
		e := b.ring[idx]
		if e.ID == "" {
			continue
		}
		if !found {
			if e.ID == lastEventID {
				found = true
			}
			continue
		}
		if matchesFilter(e, filter) {
			events = append(events, e)
		}
	}
	return events
}

func matchesFilter(e Event, f Filter) bool {
	if len(f.Streams) == 0 {
		return true
	}
	for _, s := range f.Streams {
		if s == e.Stream {
			return true
		}
	}
	return false
}
