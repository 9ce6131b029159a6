package api

import (
	"net/http"
	"time"

	"github.com/snarg/caption-engine/internal/caption"
)

// CaptionResponse is what a poll-based renderer gets back. DisplayForMs is
// the suggested on-screen time-to-live; placement is entirely the
// renderer's business.
type CaptionResponse struct {
	Visible      bool   `json:"visible"`
	Text         string `json:"text,omitempty"`
	DisplayForMs int64  `json:"display_for_ms"`
}

// CaptionHandler serves the gate decision over HTTP.
type CaptionHandler struct {
	gate       *caption.Gate
	displayFor time.Duration
}

func NewCaptionHandler(gate *caption.Gate, displayFor time.Duration) *CaptionHandler {
	if displayFor <= 0 {
		displayFor = caption.DefaultDisplayFor
	}
	return &CaptionHandler{gate: gate, displayFor: displayFor}
}

// Current returns whether a caption should be on screen right now.
func (h *CaptionHandler) Current(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	visible, text := h.gate.ShouldDisplay(now)

	resp := CaptionResponse{
		Visible:      visible,
		DisplayForMs: h.displayFor.Milliseconds(),
	}
	if visible {
		resp.Text = text
	}
	WriteJSON(w, http.StatusOK, resp)
}
