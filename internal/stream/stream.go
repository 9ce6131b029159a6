// Package stream ties one audio source to its buffer, tap, transcription
// worker, and published caption slot, and owns their lifecycle.
package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/caption-engine/internal/audio"
	"github.com/snarg/caption-engine/internal/caption"
	"github.com/snarg/caption-engine/internal/transcribe"
)

// Config describes one stream. It is fixed at Open; changing the audio
// format means closing the stream and opening a new one.
type Config struct {
	ID         string
	SampleRate int // input rate, Hz
	Channels   int // interleaved channel count of incoming blocks

	Language  string // ISO 639-1 or "auto"
	Translate bool

	Window       time.Duration // audio per inference window
	Retain       time.Duration // tail kept across windows
	BufferCap    time.Duration // accumulation cap
	PollInterval time.Duration // worker idle poll
}

// Validate reports the first configuration problem, if any.
func (c Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("stream id is required")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("stream %s: sample rate must be positive, got %d", c.ID, c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("stream %s: channel count must be positive, got %d", c.ID, c.Channels)
	}
	if c.Window <= 0 {
		return fmt.Errorf("stream %s: window duration must be positive, got %v", c.ID, c.Window)
	}
	if c.Retain < 0 {
		return fmt.Errorf("stream %s: retain duration cannot be negative, got %v", c.ID, c.Retain)
	}
	if c.Retain >= c.Window {
		return fmt.Errorf("stream %s: retain (%v) must be shorter than the window (%v)", c.ID, c.Retain, c.Window)
	}
	if c.BufferCap < c.Window {
		return fmt.Errorf("stream %s: buffer cap (%v) must cover at least one window (%v)", c.ID, c.BufferCap, c.Window)
	}
	return nil
}

func (c Config) samples(d time.Duration) int {
	return int(d.Seconds() * float64(c.SampleRate))
}

// Stream is an open pipeline instance. The host audio path calls Process;
// everything downstream of the buffer runs on the stream's worker goroutine.
type Stream struct {
	cfg    Config
	buf    *audio.Buffer
	tap    *audio.Tap
	worker *transcribe.Worker
	engine transcribe.Engine
	slot   *caption.Slot
	log    zerolog.Logger

	closeOnce sync.Once
}

// Open validates cfg, builds the pipeline, and starts the worker. The slot
// is injected rather than created here so several streams (or none) can
// share one last-result cell with a single renderer. On error no worker is
// started and the engine is left untouched for the caller to dispose of.
//
// The stream takes ownership of engine: it is released in Close, strictly
// after the worker goroutine has been joined.
func Open(cfg Config, engine transcribe.Engine, slot *caption.Slot, bus *caption.Bus, log zerolog.Logger) (*Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	buf := audio.NewBuffer(cfg.SampleRate, cfg.samples(cfg.BufferCap))
	s := &Stream{
		cfg:    cfg,
		buf:    buf,
		tap:    audio.NewTap(buf),
		engine: engine,
		slot:   slot,
		log:    log.With().Str("stream", cfg.ID).Logger(),
	}

	s.worker = transcribe.NewWorker(transcribe.WorkerOptions{
		Stream:        cfg.ID,
		Buffer:        buf,
		Engine:        engine,
		Slot:          slot,
		Bus:           bus,
		WindowSamples: cfg.samples(cfg.Window),
		RetainSamples: cfg.samples(cfg.Retain),
		PollInterval:  cfg.PollInterval,
		Language:      cfg.Language,
		Translate:     cfg.Translate,
		Log:           s.log,
	})
	s.worker.Start()

	return s, nil
}

// Process is the host-facing tap: feed one interleaved block, get the same
// block back. Safe to call from the host's audio context only.
func (s *Stream) Process(block []float32) []float32 {
	return s.tap.Process(block, s.cfg.Channels)
}

// Config returns the stream's immutable configuration.
func (s *Stream) Config() Config {
	return s.cfg
}

// Slot returns the caption slot this stream publishes to.
func (s *Stream) Slot() *caption.Slot {
	return s.slot
}

// BufferStats snapshots the accumulation buffer.
func (s *Stream) BufferStats() audio.BufferStats {
	return s.buf.Stats()
}

// WorkerStats snapshots the transcription worker.
func (s *Stream) WorkerStats() transcribe.WorkerStats {
	return s.worker.Stats()
}

// Blocks returns how many blocks the tap has processed.
func (s *Stream) Blocks() int64 {
	return s.tap.Blocks()
}

// Close stops the worker, waits for it to exit (which may mean waiting for
// one in-flight inference call to return), then releases the engine handle.
// Safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.worker.Stop()
		if err := s.engine.Close(); err != nil {
			s.log.Warn().Err(err).Msg("engine close failed")
		}
		s.log.Info().Msg("stream closed")
	})
}
