package mqttclient

import (
	"github.com/rs/zerolog"
	"github.com/snarg/caption-engine/internal/caption"
)

// Publisher is the broker-facing surface the sink needs; satisfied by
// *Client and stubbed in tests.
type Publisher interface {
	Publish(topic string, payload []byte)
}

// Sink forwards caption bus events to an MQTT topic on its own goroutine so
// broker hiccups never touch the transcription path.
type Sink struct {
	pub   Publisher
	topic string
	log   zerolog.Logger

	cancel func()
	quit   chan struct{}
	done   chan struct{}
}

// NewSink creates a sink publishing to topic.
func NewSink(pub Publisher, topic string, log zerolog.Logger) *Sink {
	return &Sink{
		pub:   pub,
		topic: topic,
		log:   log.With().Str("component", "mqtt-sink").Logger(),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start subscribes to the bus and forwards events until Stop.
func (s *Sink) Start(bus *caption.Bus) {
	ch, cancel := bus.Subscribe(caption.Filter{})
	s.cancel = cancel

	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.quit:
				return
			case e := <-ch:
				s.pub.Publish(s.topic, e.Data)
			}
		}
	}()

	s.log.Info().Str("topic", s.topic).Msg("mqtt caption sink started")
}

// Stop cancels the bus subscription and waits for the forwarder to exit.
func (s *Sink) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	close(s.quit)
	<-s.done
	s.log.Info().Msg("mqtt caption sink stopped")
}
