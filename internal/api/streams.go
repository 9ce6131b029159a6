package api

import (
	"encoding/binary"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snarg/caption-engine/internal/metrics"
	"github.com/snarg/caption-engine/internal/stream"
)

// maxIngestBody caps one ingest request at 16 MiB of PCM (~87s of stereo
// 48 kHz float32), far above any sane block size.
const maxIngestBody = 16 << 20

type StreamsHandler struct {
	mgr *stream.Manager
}

func NewStreamsHandler(mgr *stream.Manager) *StreamsHandler {
	return &StreamsHandler{mgr: mgr}
}

type streamInfo struct {
	ID             string `json:"id"`
	SampleRate     int    `json:"sample_rate"`
	Channels       int    `json:"channels"`
	Language       string `json:"language"`
	Translate      bool   `json:"translate"`
	BufferSize     int    `json:"buffer_size"`
	BufferCapacity int    `json:"buffer_capacity"`
	SamplesEvicted int64  `json:"samples_evicted"`
	BlocksIngested int64  `json:"blocks_ingested"`
	Windows        int64  `json:"windows"`
	Failures       int64  `json:"failures"`
	Published      int64  `json:"published"`
}

// List reports every open stream with buffer and worker counters.
func (h *StreamsHandler) List(w http.ResponseWriter, r *http.Request) {
	streams := h.mgr.List()
	out := make([]streamInfo, 0, len(streams))
	for _, s := range streams {
		cfg := s.Config()
		bs := s.BufferStats()
		ws := s.WorkerStats()
		out = append(out, streamInfo{
			ID:             cfg.ID,
			SampleRate:     cfg.SampleRate,
			Channels:       cfg.Channels,
			Language:       cfg.Language,
			Translate:      cfg.Translate,
			BufferSize:     bs.Size,
			BufferCapacity: bs.Capacity,
			SamplesEvicted: bs.SamplesEvicted,
			BlocksIngested: s.Blocks(),
			Windows:        ws.Windows,
			Failures:       ws.Failures,
			Published:      ws.Published,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"streams": out})
}

// Ingest accepts one raw audio block for a stream: interleaved little-endian
// float32 PCM in the request body, in the stream's configured channel layout.
func (h *StreamsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.mgr.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "unknown stream: "+id)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody+1))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}
	if len(body) > maxIngestBody {
		WriteError(w, http.StatusRequestEntityTooLarge, "block too large")
		return
	}
	if len(body) == 0 {
		WriteError(w, http.StatusBadRequest, "empty block")
		return
	}
	if len(body)%4 != 0 {
		WriteError(w, http.StatusBadRequest, "body length is not a multiple of 4 bytes")
		return
	}
	frameBytes := 4 * s.Config().Channels
	if len(body)%frameBytes != 0 {
		WriteError(w, http.StatusBadRequest, "body does not hold whole frames for this stream's channel count")
		return
	}

	block := make([]float32, len(body)/4)
	for i := range block {
		block[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}

	s.Process(block)
	metrics.IngestBlocksTotal.Inc()

	WriteJSON(w, http.StatusAccepted, map[string]any{
		"stream":  id,
		"samples": len(block),
	})
}
