package audio

// Resample converts a window of samples from rateIn to rateOut using
// nearest-source-sample selection: output length is floor(n*rateOut/rateIn)
// and output index i reads source index floor(i*rateIn/rateOut).
//
// This is deliberately cheap and not bandlimited. Whisper-class models are
// robust to the minor aliasing it introduces, and on the transcription path
// latency matters more than fidelity. It is a documented trade-off, not a
// shortcut to fix later.
//
// When rateIn == rateOut the input is returned as-is.
func Resample(in []float32, rateIn, rateOut int) []float32 {
	if rateIn == rateOut || rateIn <= 0 || rateOut <= 0 || len(in) == 0 {
		return in
	}

	n := len(in) * rateOut / rateIn
	out := make([]float32, n)
	for i := range out {
		src := i * rateIn / rateOut
		if src >= len(in) {
			src = len(in) - 1
		}
		out[i] = in[src]
	}
	return out
}
