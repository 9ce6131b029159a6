package audio

import (
	"sync"
)

// Buffer accumulates mono float32 PCM samples at the stream's input sample
// rate. It sits between the host audio callback (which appends) and the
// transcription worker (which drains), so every operation is a single short
// critical section: nothing here ever waits on inference or I/O.
//
// Capacity is a sliding-window cap, not a hard reject. When an append would
// exceed it, the oldest samples are evicted first, so memory stays O(cap)
// no matter how long the consumer stalls.
type Buffer struct {
	mu         sync.Mutex
	samples    []float32
	capacity   int
	sampleRate int

	appended int64
	evicted  int64
}

// BufferStats is a point-in-time snapshot for monitoring.
type BufferStats struct {
	Size           int   `json:"size_samples"`
	Capacity       int   `json:"capacity_samples"`
	SampleRate     int   `json:"sample_rate"`
	SamplesAppended int64 `json:"samples_appended"`
	SamplesEvicted  int64 `json:"samples_evicted"`
}

// NewBuffer creates a buffer for a stream whose input runs at sampleRate Hz,
// holding at most capacity samples.
func NewBuffer(sampleRate, capacity int) *Buffer {
	return &Buffer{
		samples:    make([]float32, 0, capacity),
		capacity:   capacity,
		sampleRate: sampleRate,
	}
}

// Append adds samples to the tail, evicting from the head first when the cap
// would be exceeded. Eviction removes at least as many samples as the
// incoming block, so a fast producer slides the window forward rather than
// nibbling one sample at a time. Returns the number of samples evicted.
func (b *Buffer) Append(in []float32) int {
	if len(in) == 0 {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.appended += int64(len(in))

	// A single block larger than the whole buffer: keep its tail only.
	if len(in) >= b.capacity {
		dropped := len(b.samples) + len(in) - b.capacity
		b.samples = b.samples[:0]
		b.samples = append(b.samples, in[len(in)-b.capacity:]...)
		b.evicted += int64(dropped)
		return dropped
	}

	dropped := 0
	if over := len(b.samples) + len(in) - b.capacity; over > 0 {
		dropped = over
		if dropped < len(in) {
			dropped = len(in)
		}
		if dropped > len(b.samples) {
			dropped = len(b.samples)
		}
		b.samples = b.samples[:copy(b.samples, b.samples[dropped:])]
		b.evicted += int64(dropped)
	}

	b.samples = append(b.samples, in...)
	return dropped
}

// DrainWindow is a non-blocking poll: if at least window samples are
// buffered it copies out the first window samples and keeps only the last
// retainTail samples of the buffer (the retained tail preserves recent audio
// across windows so words straddling the boundary are not lost). Returns nil
// when there is not yet enough data.
func (b *Buffer) DrainWindow(window, retainTail int) []float32 {
	if window <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.samples) < window {
		return nil
	}

	out := make([]float32, window)
	copy(out, b.samples[:window])

	if retainTail < 0 {
		retainTail = 0
	}
	if retainTail > len(b.samples) {
		retainTail = len(b.samples)
	}
	keepFrom := len(b.samples) - retainTail
	b.samples = b.samples[:copy(b.samples, b.samples[keepFrom:])]

	return out
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// SampleRate returns the input sample rate the buffer was created with.
func (b *Buffer) SampleRate() int {
	return b.sampleRate
}

// Capacity returns the configured sample cap.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Stats returns a snapshot of the buffer state.
func (b *Buffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Size:            len(b.samples),
		Capacity:        b.capacity,
		SampleRate:      b.sampleRate,
		SamplesAppended: b.appended,
		SamplesEvicted:  b.evicted,
	}
}
