package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tesslabs/tess/domain/repositories"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	defaultChatModel = "llama3-8b-8192"

	defaultTemperature = 0.7
	defaultMaxTokens   = 800
)

// GroqConfig holds configuration for the Groq chat adapter.
type GroqConfig struct {
	APIKey     string // Required
	APIBaseURL string // Optional, overridden in tests
	Model      string // Optional, default llama3-8b-8192
}

// GroqLLM implements LargeLanguageModel against Groq's OpenAI-compatible
// chat completions endpoint.
type GroqLLM struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.LargeLanguageModel = (*GroqLLM)(nil)

// NewGroqLLM creates a Groq chat completion client.
func NewGroqLLM(config GroqConfig, logger *zap.Logger) (*GroqLLM, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	baseURL := config.APIBaseURL
	if baseURL == "" {
		baseURL = groqBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultChatModel
	}

	return &GroqLLM{
		apiKey:  config.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}, nil
}

type chatRequest struct {
	Model          string                     `json:"model"`
	Messages       []repositories.ChatMessage `json:"messages"`
	Temperature    float64                    `json:"temperature"`
	MaxTokens      int                        `json:"max_tokens"`
	ResponseFormat *responseFormat            `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete returns the model's reply for the given message sequence.
func (g *GroqLLM) Complete(ctx context.Context, messages []repositories.ChatMessage) (string, error) {
	return g.complete(ctx, messages, nil)
}

// CompleteJSON requests a JSON-object reply, used for assessments.
func (g *GroqLLM) CompleteJSON(ctx context.Context, messages []repositories.ChatMessage) (string, error) {
	return g.complete(ctx, messages, &responseFormat{Type: "json_object"})
}

func (g *GroqLLM) complete(ctx context.Context, messages []repositories.ChatMessage, format *responseFormat) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	requestBody, err := json.Marshal(chatRequest{
		Model:          g.model,
		Messages:       messages,
		Temperature:    defaultTemperature,
		MaxTokens:      defaultMaxTokens,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	g.logger.Debug("Requesting chat completion",
		zap.String("model", g.model),
		zap.Int("messages", len(messages)))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("groq returned %d: %s", resp.StatusCode, errorBody)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}
