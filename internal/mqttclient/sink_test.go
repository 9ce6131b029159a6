package mqttclient

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/caption-engine/internal/caption"
)

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	topics   []string
}

func (f *fakePublisher) Publish(topic string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func TestSink_ForwardsCaptions(t *testing.T) {
	bus := caption.NewBus(8)
	pub := &fakePublisher{}
	sink := NewSink(pub, "captions/live", zerolog.Nop())
	sink.Start(bus)
	defer sink.Stop()

	bus.Publish("default", "hola mundo", time.Unix(8000, 0))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && pub.count() == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	if pub.count() != 1 {
		t.Fatalf("published %d payloads, want 1", pub.count())
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.topics[0] != "captions/live" {
		t.Errorf("topic = %q, want %q", pub.topics[0], "captions/live")
	}
	var payload struct {
		Stream string `json:"stream"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal(pub.payloads[0], &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Stream != "default" || payload.Text != "hola mundo" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSink_StopUnsubscribes(t *testing.T) {
	bus := caption.NewBus(8)
	pub := &fakePublisher{}
	sink := NewSink(pub, "captions/live", zerolog.Nop())
	sink.Start(bus)
	sink.Stop()

	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("subscribers = %d after Stop, want 0", n)
	}
}
