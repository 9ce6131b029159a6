package api

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/caption-engine/internal/caption"
	"github.com/snarg/caption-engine/internal/stream"
	"github.com/snarg/caption-engine/internal/transcribe"
)

type idleEngine struct{}

func (idleEngine) Infer(ctx context.Context, samples []float32, opts transcribe.Opts) (*transcribe.Result, error) {
	return &transcribe.Result{}, nil
}
func (idleEngine) Name() string { return "idle" }
func (idleEngine) Close() error { return nil }

func newTestManager(t *testing.T) *stream.Manager {
	t.Helper()
	mgr := stream.NewManager(zerolog.Nop())
	s, err := stream.Open(stream.Config{
		ID:           "default",
		SampleRate:   16000,
		Channels:     2,
		Language:     "auto",
		Window:       time.Second,
		Retain:       100 * time.Millisecond,
		BufferCap:    10 * time.Second,
		PollInterval: time.Hour, // keep the worker asleep for the test
	}, idleEngine{}, caption.NewSlot(), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	if err := mgr.Add(s); err != nil {
		t.Fatalf("registering stream: %v", err)
	}
	t.Cleanup(mgr.CloseAll)
	return mgr
}

func ingestRouter(mgr *stream.Manager) http.Handler {
	r := chi.NewRouter()
	h := NewStreamsHandler(mgr)
	r.Get("/api/v1/streams", h.List)
	r.Post("/api/v1/streams/{id}/ingest", h.Ingest)
	return r
}

func pcmBody(samples []float32) []byte {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

func TestIngestAppendsChannelZero(t *testing.T) {
	mgr := newTestManager(t)
	router := ingestRouter(mgr)

	// Four stereo frames: only the left channel should land in the buffer.
	body := pcmBody([]float32{0.1, 0.9, 0.2, 0.9, 0.3, 0.9, 0.4, 0.9})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/streams/default/ingest", bytes.NewReader(body)))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	s, _ := mgr.Get("default")
	if got := s.BufferStats().Size; got != 4 {
		t.Errorf("expected 4 mono samples buffered, got %d", got)
	}
	if got := s.Blocks(); got != 1 {
		t.Errorf("expected 1 block ingested, got %d", got)
	}
}

func TestIngestUnknownStream(t *testing.T) {
	router := ingestRouter(newTestManager(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/streams/nope/ingest", bytes.NewReader(pcmBody([]float32{0, 0}))))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestIngestRejectsMalformedBodies(t *testing.T) {
	router := ingestRouter(newTestManager(t))

	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"not multiple of 4", []byte{1, 2, 3}},
		{"partial frame", pcmBody([]float32{0.1, 0.2, 0.3})}, // 3 samples, 2 channels
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/streams/default/ingest", bytes.NewReader(tt.body)))
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestStreamsList(t *testing.T) {
	router := ingestRouter(newTestManager(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/streams", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Streams []streamInfo `json:"streams"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling response: %v", err)
	}
	if len(resp.Streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(resp.Streams))
	}
	got := resp.Streams[0]
	if got.ID != "default" || got.SampleRate != 16000 || got.Channels != 2 {
		t.Errorf("unexpected stream info: %+v", got)
	}
	if got.BufferCapacity != 160000 {
		t.Errorf("expected capacity 160000 samples, got %d", got.BufferCapacity)
	}
}
