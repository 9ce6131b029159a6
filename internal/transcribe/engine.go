package transcribe

import (
	"context"
	"strings"
)

// EngineRate is the sample rate every engine expects. Windows drained at the
// stream's input rate are resampled to this before inference.
const EngineRate = 16000

// Opts are per-window inference options, forwarded verbatim to the engine.
type Opts struct {
	Language  string // ISO 639-1 code, or "auto" to let the engine detect
	Translate bool   // translate output to English
}

// Segment is one piece of recognized text with its position in the window.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"` // seconds from window start
	End   float64 `json:"end"`
}

// Result is a successful inference over one window.
type Result struct {
	Segments []Segment
	Language string // detected language, if the engine reports one
}

// Text concatenates all segments in order into the caption string.
func (r *Result) Text() string {
	var sb strings.Builder
	for _, s := range r.Segments {
		sb.WriteString(s.Text)
	}
	return strings.TrimSpace(sb.String())
}

// Engine is a speech-to-text backend. Implementations are not safe for
// concurrent Infer calls on the same handle; the single worker per stream is
// what upholds that. Close releases the handle and must only be called after
// the worker goroutine has been joined, so it can never race an in-flight
// Infer.
type Engine interface {
	// Infer transcribes a window of mono samples at EngineRate. A non-nil
	// error marks the window as failed; the caller discards it and moves
	// on. Inference failures are not fatal to the stream.
	Infer(ctx context.Context, samples []float32, opts Opts) (*Result, error)

	// Name identifies the backend ("whisper-http", "whisper-local") for
	// logs and health reporting.
	Name() string

	// Close releases the engine handle.
	Close() error
}
