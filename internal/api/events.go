package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"
	"github.com/snarg/caption-engine/internal/caption"
)

type EventsHandler struct {
	bus *caption.Bus
}

func NewEventsHandler(bus *caption.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// StreamEvents opens an SSE connection and pushes caption events as they
// are published. Reconnecting clients replay missed events via Last-Event-ID.
func (h *EventsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Long-lived connection: the server's write timeout must not apply.
	rc.SetWriteDeadline(time.Time{})

	filter := caption.Filter{}
	if v := r.URL.Query().Get("streams"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Streams = append(filter.Streams, s)
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	if lastEventID := r.Header.Get("Last-Event-ID"); lastEventID != "" {
		for _, e := range h.bus.ReplaySince(lastEventID, filter) {
			fmt.Fprintf(w, "id: %s\nevent: caption\ndata: %s\n\n", e.ID, e.Data)
		}
		rc.Flush()
	}

	ch, cancel := h.bus.Subscribe(filter)
	defer cancel()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	log := hlog.FromRequest(r)
	log.Info().Msg("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			log.Info().Msg("SSE client disconnected")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "id: %s\nevent: caption\ndata: %s\n\n", event.ID, event.Data)
			if err := rc.Flush(); err != nil {
				return
			}
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
