package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/snarg/caption-engine/internal/audio"
)

// HTTPEngine calls an OpenAI-compatible /v1/audio/transcriptions endpoint
// (speaches, faster-whisper-server, or OpenAI itself). Each window is
// WAV-encoded in memory and sent as multipart/form-data.
type HTTPEngine struct {
	url     string
	model   string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// whisperResponse is the verbose_json response shape.
type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// NewHTTPEngine creates an HTTP engine. apiKey may be empty for local
// servers that don't authenticate.
func NewHTTPEngine(url, model, apiKey string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		url:     url,
		model:   model,
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *HTTPEngine) Name() string { return "whisper-http" }

// Close is a no-op; the engine holds no external handle beyond the pooled
// HTTP client.
func (e *HTTPEngine) Close() error { return nil }

// Infer sends one window to the endpoint. Only non-default parameters are
// written, so the request works against any OpenAI-compatible server.
func (e *HTTPEngine) Infer(ctx context.Context, samples []float32, opts Opts) (*Result, error) {
	wav, err := audio.EncodeWAV(samples, EngineRate)
	if err != nil {
		return nil, fmt.Errorf("encode window: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "window.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	if e.model != "" {
		w.WriteField("model", e.model)
	}
	if opts.Language != "" && opts.Language != "auto" {
		w.WriteField("language", opts.Language)
	}
	if opts.Translate {
		w.WriteField("task", "translate")
	}
	w.WriteField("temperature", "0.00")
	w.WriteField("response_format", "verbose_json")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var wr whisperResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &Result{Language: wr.Language}
	for _, s := range wr.Segments {
		result.Segments = append(result.Segments, Segment{Text: s.Text, Start: s.Start, End: s.End})
	}
	if len(result.Segments) == 0 && wr.Text != "" {
		// Servers that omit segments still return the full text.
		result.Segments = append(result.Segments, Segment{Text: wr.Text})
	}
	return result, nil
}
