package transcribe

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/caption-engine/internal/audio"
	"github.com/snarg/caption-engine/internal/caption"
	"github.com/snarg/caption-engine/internal/metrics"
)

// DefaultPollInterval is how long the worker sleeps when the buffer has no
// full window yet. It bounds both transcription latency and shutdown time.
const DefaultPollInterval = 100 * time.Millisecond

// WorkerOptions configures a transcription worker.
type WorkerOptions struct {
	Stream        string // stream ID, for logs and events
	Buffer        *audio.Buffer
	Engine        Engine
	Slot          *caption.Slot
	Bus           *caption.Bus // optional; nil disables event fan-out
	WindowSamples int          // drain size, in input-rate samples
	RetainSamples int          // tail kept across windows, in input-rate samples
	PollInterval  time.Duration
	Language      string
	Translate     bool
	Log           zerolog.Logger
}

// WorkerStats reports worker progress for monitoring.
type WorkerStats struct {
	Windows   int64 `json:"windows"`
	Failures  int64 `json:"failures"`
	Published int64 `json:"published"`
}

// Worker is the per-stream background loop: poll the buffer for a full
// window, resample to EngineRate, run inference, publish the text. It is the
// only context that blocks, on its idle-poll sleep and inside Infer; the
// producer side never waits on it.
type Worker struct {
	opts WorkerOptions
	stop chan struct{}
	done chan struct{}
	now  func() time.Time

	windows   atomic.Int64
	failures  atomic.Int64
	published atomic.Int64
}

// NewWorker creates a worker; Start launches it.
func NewWorker(opts WorkerOptions) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Worker{
		opts: opts,
		stop: make(chan struct{}),
		done: make(chan struct{}),
		now:  time.Now,
	}
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
	w.opts.Log.Info().
		Str("stream", w.opts.Stream).
		Int("window_samples", w.opts.WindowSamples).
		Int("retain_samples", w.opts.RetainSamples).
		Dur("poll_interval", w.opts.PollInterval).
		Str("engine", w.opts.Engine.Name()).
		Msg("transcription worker started")
}

// Stop signals the loop and waits for it to exit. The stop flag is observed
// at the top of each iteration and during the idle sleep, so a sleeping
// worker exits within one poll interval; a worker mid-inference exits right
// after the call returns. Stop returning is the join point: only after it is
// the engine handle safe to release.
func (w *Worker) Stop() {
	select {
	case <-w.stop:
		// already stopped
	default:
		close(w.stop)
	}
	<-w.done

	w.opts.Log.Info().
		Str("stream", w.opts.Stream).
		Int64("windows", w.windows.Load()).
		Int64("failures", w.failures.Load()).
		Msg("transcription worker stopped")
}

// Stats returns current worker counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Windows:   w.windows.Load(),
		Failures:  w.failures.Load(),
		Published: w.published.Load(),
	}
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		window := w.opts.Buffer.DrainWindow(w.opts.WindowSamples, w.opts.RetainSamples)
		if window == nil {
			select {
			case <-w.stop:
				return
			case <-time.After(w.opts.PollInterval):
			}
			continue
		}

		w.process(window)
	}
}

func (w *Worker) process(window []float32) {
	w.windows.Add(1)
	metrics.WindowsDrained.Inc()

	samples := audio.Resample(window, w.opts.Buffer.SampleRate(), EngineRate)

	start := w.now()
	result, err := w.opts.Engine.Infer(context.Background(), samples, Opts{
		Language:  w.opts.Language,
		Translate: w.opts.Translate,
	})
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		// One bad window is not fatal: drop it and keep draining.
		w.failures.Add(1)
		metrics.InferenceFailures.Inc()
		w.opts.Log.Warn().Err(err).
			Str("stream", w.opts.Stream).
			Int("window_samples", len(window)).
			Msg("inference failed, window discarded")
		return
	}

	text := result.Text()
	if text == "" {
		w.opts.Log.Debug().Str("stream", w.opts.Stream).Msg("engine returned empty text, skipping")
		return
	}

	at := w.now()
	w.opts.Slot.Publish(text, at)
	w.published.Add(1)
	metrics.CaptionsPublished.Inc()
	if w.opts.Bus != nil {
		w.opts.Bus.Publish(w.opts.Stream, text, at)
	}

	w.opts.Log.Debug().
		Str("stream", w.opts.Stream).
		Int("chars", len(text)).
		Int("segments", len(result.Segments)).
		Msg("caption published")
}
