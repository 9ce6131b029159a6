package audio

import (
	"testing"
)

func ramp(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func TestBuffer_AppendWithinCap(t *testing.T) {
	b := NewBuffer(16000, 1000)
	evicted := b.Append(ramp(0, 400))
	if evicted != 0 {
		t.Errorf("evicted = %d, want 0", evicted)
	}
	if b.Len() != 400 {
		t.Errorf("Len = %d, want 400", b.Len())
	}
}

func TestBuffer_CapNeverExceeded(t *testing.T) {
	b := NewBuffer(16000, 1000)
	for i := 0; i < 50; i++ {
		b.Append(ramp(i*333, 333))
		if b.Len() > 1000 {
			t.Fatalf("after append %d: Len = %d exceeds cap 1000", i, b.Len())
		}
	}
}

func TestBuffer_EvictionKeepsTail(t *testing.T) {
	// Cap 160000, one 200000-sample append: buffer must hold the most
	// recently appended samples and stay within cap.
	b := NewBuffer(16000, 160000)
	b.Append(ramp(0, 200000))

	if b.Len() > 160000 {
		t.Fatalf("Len = %d, want <= 160000", b.Len())
	}
	got := b.DrainWindow(b.Len(), 0)
	if got[0] != 40000 {
		t.Errorf("first retained sample = %v, want 40000", got[0])
	}
	if last := got[len(got)-1]; last != 199999 {
		t.Errorf("last retained sample = %v, want 199999", last)
	}
}

func TestBuffer_EvictionAtLeastBlockSize(t *testing.T) {
	b := NewBuffer(16000, 1000)
	b.Append(ramp(0, 1000)) // full
	evicted := b.Append(ramp(1000, 100))
	if evicted != 100 {
		t.Errorf("evicted = %d, want 100 (at least the incoming block)", evicted)
	}
	if b.Len() != 1000 {
		t.Errorf("Len = %d, want 1000", b.Len())
	}
}

func TestBuffer_OrderPreservedAcrossDrain(t *testing.T) {
	b := NewBuffer(16000, 10000)
	b.Append(ramp(0, 300))
	b.Append(ramp(300, 300))
	b.Append(ramp(600, 300))

	win := b.DrainWindow(600, 100)
	if len(win) != 600 {
		t.Fatalf("window length = %d, want 600", len(win))
	}
	for i, s := range win {
		if s != float32(i) {
			t.Fatalf("window[%d] = %v, want %d (samples reordered or duplicated)", i, s, i)
		}
	}

	// The retained tail is the last 100 samples appended.
	if b.Len() != 100 {
		t.Fatalf("retained = %d samples, want 100", b.Len())
	}
	tail := b.DrainWindow(100, 0)
	if tail[0] != 800 || tail[99] != 899 {
		t.Errorf("retained tail spans [%v, %v], want [800, 899]", tail[0], tail[99])
	}
}

func TestBuffer_DrainWindowInsufficientData(t *testing.T) {
	b := NewBuffer(16000, 10000)
	b.Append(ramp(0, 500))
	if got := b.DrainWindow(600, 100); got != nil {
		t.Errorf("DrainWindow with short buffer = %d samples, want nil", len(got))
	}
	if b.Len() != 500 {
		t.Errorf("short drain must not consume: Len = %d, want 500", b.Len())
	}
}

func TestBuffer_DrainWindowRetainClamped(t *testing.T) {
	b := NewBuffer(16000, 10000)
	b.Append(ramp(0, 600))
	// retainTail larger than the buffer keeps everything that is left.
	b.DrainWindow(600, 5000)
	if b.Len() != 600 {
		t.Errorf("Len = %d, want 600", b.Len())
	}
}

func TestBuffer_Stats(t *testing.T) {
	b := NewBuffer(48000, 1000)
	b.Append(ramp(0, 1000))
	b.Append(ramp(0, 200))

	st := b.Stats()
	if st.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", st.SampleRate)
	}
	if st.Capacity != 1000 {
		t.Errorf("Capacity = %d, want 1000", st.Capacity)
	}
	if st.SamplesAppended != 1200 {
		t.Errorf("SamplesAppended = %d, want 1200", st.SamplesAppended)
	}
	if st.SamplesEvicted != 200 {
		t.Errorf("SamplesEvicted = %d, want 200", st.SamplesEvicted)
	}
	if st.Size != 1000 {
		t.Errorf("Size = %d, want 1000", st.Size)
	}
}
