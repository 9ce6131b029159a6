package audio

import (
	"testing"
)

func TestTap_DownmixTakesChannelZero(t *testing.T) {
	buf := NewBuffer(48000, 10000)
	tap := NewTap(buf)

	// Two channels interleaved: L=1,2,3 R=-1,-2,-3.
	block := []float32{1, -1, 2, -2, 3, -3}
	tap.Process(block, 2)

	got := buf.DrainWindow(3, 0)
	want := []float32{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mono[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTap_PassThroughUnmodified(t *testing.T) {
	buf := NewBuffer(48000, 10000)
	tap := NewTap(buf)

	block := []float32{0.5, -0.5, 0.25, -0.25}
	orig := make([]float32, len(block))
	copy(orig, block)

	out := tap.Process(block, 2)
	if &out[0] != &block[0] {
		t.Error("Process must return the same block, not a copy")
	}
	for i := range orig {
		if block[i] != orig[i] {
			t.Fatalf("block[%d] modified: %v, want %v", i, block[i], orig[i])
		}
	}
}

func TestTap_DegenerateBlocksAreNoOps(t *testing.T) {
	buf := NewBuffer(48000, 10000)
	tap := NewTap(buf)

	tap.Process(nil, 2)
	tap.Process([]float32{1, 2}, 0)
	tap.Process([]float32{1}, 4) // fewer samples than one frame

	if buf.Len() != 0 {
		t.Errorf("buffer Len = %d after degenerate blocks, want 0", buf.Len())
	}
}

func TestTap_ScratchReuse(t *testing.T) {
	buf := NewBuffer(48000, 100000)
	tap := NewTap(buf)

	tap.Process(make([]float32, 2048), 2)
	scratch := tap.scratch
	tap.Process(make([]float32, 2048), 2)
	if &tap.scratch[0] != &scratch[0] {
		t.Error("scratch slice reallocated for an equal-sized block")
	}
	if tap.Blocks() != 2 {
		t.Errorf("Blocks = %d, want 2", tap.Blocks())
	}
}

func TestTap_MonoInput(t *testing.T) {
	buf := NewBuffer(16000, 10000)
	tap := NewTap(buf)

	tap.Process([]float32{7, 8, 9}, 1)
	got := buf.DrainWindow(3, 0)
	if got[0] != 7 || got[2] != 9 {
		t.Errorf("mono passthrough = %v, want [7 8 9]", got)
	}
}
