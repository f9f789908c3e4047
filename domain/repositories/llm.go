package repositories

import "context"

// Role defines the type of message sender.
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)

// ChatMessage represents a single message in a completion request.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LargeLanguageModel abstracts any chat-completion provider.
type LargeLanguageModel interface {
	// Complete returns the model's reply for the given message sequence.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
	// CompleteJSON is like Complete but requests a JSON-object response,
	// used by the assessment endpoint.
	CompleteJSON(ctx context.Context, messages []ChatMessage) (string, error)
}
