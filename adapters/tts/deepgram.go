package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tesslabs/tess/domain/repositories"
)

const (
	deepgramBaseURL   = "https://api.deepgram.com/v1"
	defaultVoiceModel = "aura-asteria-en"
	streamChunkSize   = 1024
)

// DeepgramConfig holds configuration for the Deepgram speech adapter.
type DeepgramConfig struct {
	APIKey     string // Required
	APIBaseURL string // Optional, overridden in tests
	Voice      string // Optional, default aura-asteria-en
}

// DeepgramTTS implements TextToSpeech using Deepgram's speak endpoint.
// Each request synthesizes one chunk of text into a complete WAV clip,
// streamed to the returned channel as it downloads.
type DeepgramTTS struct {
	apiKey  string
	baseURL string
	voice   string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.TextToSpeech = (*DeepgramTTS)(nil)

// NewDeepgramTTS creates a Deepgram TTS instance.
func NewDeepgramTTS(config DeepgramConfig, logger *zap.Logger) (*DeepgramTTS, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("deepgram API key is required")
	}

	baseURL := config.APIBaseURL
	if baseURL == "" {
		baseURL = deepgramBaseURL
	}
	voice := config.Voice
	if voice == "" {
		voice = defaultVoiceModel
	}

	return &DeepgramTTS{
		apiKey:  config.APIKey,
		baseURL: baseURL,
		voice:   voice,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}, nil
}

// Speak synthesizes text and streams the resulting WAV bytes.
func (d *DeepgramTTS) Speak(ctx context.Context, text string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	query := url.Values{}
	query.Set("model", d.voice)
	query.Set("encoding", "linear16")
	query.Set("container", "wav")
	endpoint := fmt.Sprintf("%s/speak?%s", d.baseURL, query.Encode())

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("deepgram returned %d: %s", resp.StatusCode, errorBody)
	}

	d.logger.Debug("Streaming synthesized audio",
		zap.String("voice", d.voice),
		zap.Int("textLength", len(text)))

	audioChan := make(chan []byte, 10)
	go func() {
		defer close(audioChan)
		defer resp.Body.Close()

		buffer := make([]byte, streamChunkSize)
		totalBytes := 0
		for {
			n, err := resp.Body.Read(buffer)
			if n > 0 {
				totalBytes += n
				chunk := make([]byte, n)
				copy(chunk, buffer[:n])
				select {
				case audioChan <- chunk:
				case <-ctx.Done():
					d.logger.Warn("Context cancelled while streaming audio")
					return
				}
			}
			if err == io.EOF {
				d.logger.Debug("Finished streaming audio", zap.Int("totalBytes", totalBytes))
				return
			}
			if err != nil {
				d.logger.Error("Error reading synthesis response", zap.Error(err))
				return
			}
		}
	}()

	return audioChan, nil
}
