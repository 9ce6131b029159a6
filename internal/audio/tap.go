package audio

import (
	"sync/atomic"
)

// Tap is the producer-side entry point on the host's audio path. The host
// pushes each decoded block through Process and must receive it back
// unmodified; the tap's only side effect is feeding the channel-0 downmix
// into the stream's Buffer.
//
// Process is invoked from a single latency-sensitive host context, so it is
// written to do bounded work and no per-sample allocation: the mono scratch
// slice is reused across calls and only regrows when a larger block arrives.
// Tap is not safe for concurrent Process calls; the host audio path is
// serial by contract.
type Tap struct {
	buf     *Buffer
	scratch []float32

	blocks atomic.Int64
}

// NewTap creates a tap feeding buf.
func NewTap(buf *Buffer) *Tap {
	return &Tap{buf: buf}
}

// Process downmixes an interleaved block to mono by taking channel 0 of each
// frame, appends the result to the buffer, and returns the block untouched.
// Blocks with zero channels or zero samples pass through as no-ops.
//
// Taking channel 0 rather than averaging matches the upstream behavior this
// tap replaces; changing the downmix changes transcription output and is a
// product decision, not a local one.
func (t *Tap) Process(block []float32, channels int) []float32 {
	if channels <= 0 || len(block) == 0 {
		return block
	}
	frames := len(block) / channels
	if frames == 0 {
		return block
	}

	if cap(t.scratch) < frames {
		t.scratch = make([]float32, frames)
	}
	mono := t.scratch[:frames]
	for i := 0; i < frames; i++ {
		mono[i] = block[i*channels]
	}

	t.buf.Append(mono)
	t.blocks.Add(1)
	return block
}

// Blocks returns the number of blocks processed so far.
func (t *Tap) Blocks() int64 {
	return t.blocks.Load()
}
