package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"interviewer/logger"

	"github.com/hashicorp/go-cleanhttp"
)

// ErrTranscriptionUnavailable means the speech-to-text service failed or is
// not configured.
var ErrTranscriptionUnavailable = errors.New("transcription unavailable")

// Transcriber turns recorded audio into answer text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// HTTPTranscriber posts audio as multipart form field "file" to a
// speech-to-text endpoint that answers with {"text": "..."}.
type HTTPTranscriber struct {
	url    string
	client *http.Client
}

func NewHTTPTranscriber(url string) *HTTPTranscriber {
	return &HTTPTranscriber{
		url:    url,
		client: cleanhttp.DefaultPooledClient(),
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if t.url == "" {
		return "", fmt.Errorf("%w: TRANSCRIBE_URL is not set", ErrTranscriptionUnavailable)
	}
	if filename == "" {
		filename = "answer.wav"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	logger.Debugf("Sending %d bytes of audio for transcription", len(audio))
	resp, err := t.client.Do(req)
	if err != nil {
		logger.Errorf("Failed to call transcription service: %v", err)
		return "", fmt.Errorf("%w: %v", ErrTranscriptionUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTranscriptionUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Errorf("Transcription service returned status %d", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d: %s", ErrTranscriptionUnavailable, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result transcriptionResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", ErrTranscriptionUnavailable, err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrTranscriptionUnavailable, result.Error)
	}

	return strings.TrimSpace(result.Text), nil
}
