package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tesslabs/tess/domain/repositories"
)

const (
	groqBaseURL     = "https://api.groq.com/openai/v1"
	defaultSTTModel = "whisper-large-v3"
	transcribeRoute = "/audio/transcriptions"
	requestTimeout  = 30 * time.Second
)

// GroqConfig holds configuration for the Groq Whisper adapter.
type GroqConfig struct {
	APIKey     string // Required
	APIBaseURL string // Optional, overridden in tests
	Model      string // Optional, default whisper-large-v3
}

// GroqSpeechToText implements SpeechToText using Groq's hosted Whisper
// models. Clips are uploaded whole; there is no streaming mode.
type GroqSpeechToText struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.SpeechToText = (*GroqSpeechToText)(nil)

// NewGroqSpeechToText creates a Groq transcription client.
func NewGroqSpeechToText(config GroqConfig, logger *zap.Logger) (*GroqSpeechToText, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	baseURL := config.APIBaseURL
	if baseURL == "" {
		baseURL = groqBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultSTTModel
	}

	return &GroqSpeechToText{
		apiKey:  config.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads one audio clip and returns its transcript.
func (g *GroqSpeechToText) Transcribe(ctx context.Context, clip []byte) (string, error) {
	if len(clip) == 0 {
		return "", fmt.Errorf("audio clip is empty")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "clip.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(clip); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.WriteField("model", g.model); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("failed to write response format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+transcribeRoute, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	g.logger.Debug("Uploading clip for transcription",
		zap.String("model", g.model),
		zap.Int("clipBytes", len(clip)))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("groq returned %d: %s", resp.StatusCode, errorBody)
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Text, nil
}
