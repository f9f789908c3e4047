package api

import (
	"time"

	"github.com/tesslabs/tess/domain/entities"
)

// CreateInterviewRequest is the payload for starting a new interview.
type CreateInterviewRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CreateInterviewResponse carries the created interview's ID and the token
// the client presents when opening the websocket.
type CreateInterviewResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AssessmentRequest is the payload for generating a post-interview
// assessment from a finished conversation.
type AssessmentRequest struct {
	Title        string          `json:"title" validate:"required"`
	Description  string          `json:"description"`
	Conversation []entities.Turn `json:"conversation" validate:"required"`
}

// AssessmentResponse wraps the generated assessment. Raw is set instead of
// Assessment when the model's reply could not be parsed as the expected
// JSON document.
type AssessmentResponse struct {
	Assessment *entities.Assessment `json:"assessment,omitempty"`
	Raw        string               `json:"raw,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
