package audio

import (
	"testing"
)

func TestResample_IdentityWhenRatesMatch(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if &out[0] != &in[0] {
		t.Error("equal rates must return the input unchanged")
	}
}

func TestResample_OutputLength(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		rateIn  int
		rateOut int
		want    int
	}{
		{"48k to 16k", 48000, 48000, 16000, 16000},
		{"44.1k to 16k", 44100, 44100, 16000, 16000},
		{"44.1k to 16k odd", 1000, 44100, 16000, 362}, // floor(1000*16000/44100)
		{"8k to 16k upsample", 800, 8000, 16000, 1600},
		{"single sample down", 1, 48000, 16000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(make([]float32, tt.n), tt.rateIn, tt.rateOut)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestResample_NearestSourceSelection(t *testing.T) {
	// 48k -> 16k picks every third source sample.
	in := make([]float32, 12)
	for i := range in {
		in[i] = float32(i)
	}
	out := Resample(in, 48000, 16000)
	want := []float32{0, 3, 6, 9}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestResample_UpsampleRepeatsSamples(t *testing.T) {
	out := Resample([]float32{1, 2}, 8000, 16000)
	want := []float32{1, 1, 2, 2}
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestResample_DegenerateInputs(t *testing.T) {
	if got := Resample(nil, 48000, 16000); len(got) != 0 {
		t.Errorf("nil input: len = %d, want 0", len(got))
	}
	in := []float32{1}
	if got := Resample(in, 0, 16000); &got[0] != &in[0] {
		t.Error("non-positive rate must return input unchanged")
	}
}
