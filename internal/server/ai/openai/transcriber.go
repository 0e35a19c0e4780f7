package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/openmool/openmool/internal/logging"
	"github.com/openmool/openmool/internal/server/ai"
)

// transcriptionTimeout caps a single transcription call. Large media files
// make the speech backend the likeliest hang in the pipeline.
const transcriptionTimeout = 10 * time.Minute

// Transcriber implements ai.Transcriber against an OpenAI-compatible
// /v1/audio/transcriptions endpoint (whisper.cpp servers, hosted APIs).
type Transcriber struct {
	host   string
	model  string
	token  string
	client *http.Client
	logger logging.Logger
}

// NewTranscriber creates a transcriber from the backend configuration.
func NewTranscriber(cfg *ai.Config, logger logging.Logger) (*Transcriber, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Transcriber{
		host:   strings.TrimSuffix(cfg.TranscriberHost, "/"),
		model:  cfg.TranscriberModel,
		token:  cfg.APIToken,
		client: &http.Client{Timeout: transcriptionTimeout},
		logger: logger.With("component", "openai-transcriber"),
	}, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe posts the media bytes as a multipart form and returns the
// recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := form.WriteField("model", t.model); err != nil {
		return "", err
	}
	if err := form.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	url := t.host + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	t.logger.Debug(ctx, "transcribing media", "filename", filename, "bytes", len(audio))

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("transcription backend returned %d: %s", resp.StatusCode, payload)
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return result.Text, nil
}
