package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/snarg/caption-engine/internal/audio"
)

// LocalEngine runs whisper.cpp's CLI against a local model file. Each window
// is written to a temporary WAV, transcribed with JSON output, and cleaned
// up afterwards.
type LocalEngine struct {
	modelPath string
	binPath   string
	useGPU    bool
	flashAttn bool
}

// LocalEngineConfig configures a LocalEngine.
type LocalEngineConfig struct {
	ModelPath string // ggml model weights (required)
	BinPath   string // whisper.cpp binary; looked up in PATH when empty
	UseGPU    bool   // forwarded as --no-gpu when false
	FlashAttn bool   // forwarded as --flash-attn when true
}

// NewLocalEngine validates the model file and binary up front: a missing or
// unreadable model is a startup failure, not something to discover on the
// first window.
func NewLocalEngine(cfg LocalEngineConfig) (*LocalEngine, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("local engine: model path not configured")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("local engine: model file: %w", err)
	}

	bin := cfg.BinPath
	if bin == "" {
		bin = "whisper-cli"
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("local engine: binary %q not found: %w", bin, err)
	}

	return &LocalEngine{
		modelPath: cfg.ModelPath,
		binPath:   resolved,
		useGPU:    cfg.UseGPU,
		flashAttn: cfg.FlashAttn,
	}, nil
}

func (e *LocalEngine) Name() string { return "whisper-local" }

// Close is a no-op: the subprocess model keeps no persistent handle. The
// worker is still joined before Close so no transcription subprocess
// outlives its stream.
func (e *LocalEngine) Close() error { return nil }

// localResult is whisper.cpp's -oj output shape.
type localResult struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"` // milliseconds
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Infer transcribes one window via the CLI.
func (e *LocalEngine) Infer(ctx context.Context, samples []float32, opts Opts) (*Result, error) {
	wav, err := audio.EncodeWAV(samples, EngineRate)
	if err != nil {
		return nil, fmt.Errorf("encode window: %w", err)
	}

	tmp, err := os.CreateTemp("", "caption-engine-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp wav: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer os.Remove(tmpPath + ".json")

	if _, err := tmp.Write(wav); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp wav: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp wav: %w", err)
	}

	args := []string{
		"-m", e.modelPath,
		"-f", tmpPath,
		"-oj",
		"-of", tmpPath, // whisper.cpp appends .json
		"-np", // no progress prints
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language) // "auto" is understood natively
	}
	if opts.Translate {
		args = append(args, "--translate")
	}
	if !e.useGPU {
		args = append(args, "--no-gpu")
	}
	if e.flashAttn {
		args = append(args, "--flash-attn")
	}

	cmd := exec.CommandContext(ctx, e.binPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("whisper-cli: %w: %s", err, firstLine(stderr.String()))
	}

	out, err := os.ReadFile(tmpPath + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper-cli output: %w", err)
	}

	var lr localResult
	if err := json.Unmarshal(out, &lr); err != nil {
		return nil, fmt.Errorf("decode whisper-cli output: %w", err)
	}

	result := &Result{Language: lr.Result.Language}
	for _, seg := range lr.Transcription {
		result.Segments = append(result.Segments, Segment{
			Text:  seg.Text,
			Start: float64(seg.Offsets.From) / 1000,
			End:   float64(seg.Offsets.To) / 1000,
		})
	}
	return result, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return strconv.Quote(s)
}
