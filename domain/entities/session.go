package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TurnRole identifies the author of a conversation turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is one role-tagged message in the conversation log.
type Turn struct {
	Role    TurnRole `json:"role" bson:"role"`
	Content string   `json:"content" bson:"content"`
}

// Session is the per-connection conversation state. It is created when a
// websocket connection is established and discarded when the connection
// closes. The turn log is append-only; turns are never rewritten.
//
// A Session is owned by exactly one connection handler. That handler
// processes one clip at a time, so appends need no locking.
type Session struct {
	ID        string    `json:"id"`
	Interview Interview `json:"interview"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession creates a session bound to an interview descriptor.
func NewSession(interview Interview) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Interview: interview,
		Turns:     make([]Turn, 0),
		CreatedAt: time.Now(),
	}
}

// AppendTurn appends one turn to the conversation log.
func (s *Session) AppendTurn(role TurnRole, content string) {
	s.Turns = append(s.Turns, Turn{Role: role, Content: content})
}

// History returns the turn log for building LLM context.
func (s *Session) History() []Turn {
	return s.Turns
}

// Validate checks that the session carries a usable interview descriptor.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.Interview.Title == "" {
		return errors.New("interview title is required")
	}
	return nil
}
