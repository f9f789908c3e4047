package entities

import (
	"time"

	"github.com/google/uuid"
)

// Interview is the descriptor for one mock interview: the role being
// interviewed for and the job description the interviewer stays within.
type Interview struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// NewInterview creates an interview descriptor with a fresh ID.
func NewInterview(title, description string) *Interview {
	return &Interview{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// CategoryScore is one scored assessment category.
type CategoryScore struct {
	Name  string `json:"name" bson:"name"`
	Score int    `json:"score" bson:"score"`
}

// Assessment is the structured post-interview evaluation produced by the
// assessment endpoint.
type Assessment struct {
	OverallScore int             `json:"overallScore" bson:"overall_score"`
	Categories   []CategoryScore `json:"categories" bson:"categories"`
	Strengths    []string        `json:"strengths" bson:"strengths"`
	Improvements []string        `json:"improvements" bson:"improvements"`
	Summary      string          `json:"summary" bson:"summary"`
}

// InterviewRecord is a finished interview persisted to the document store:
// the descriptor, the full conversation, and the generated assessment.
type InterviewRecord struct {
	ID          string      `json:"id" bson:"_id"`
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description" bson:"description"`
	Turns       []Turn      `json:"conversation" bson:"conversation"`
	Assessment  *Assessment `json:"assessment,omitempty" bson:"assessment,omitempty"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}

// NewInterviewRecord builds a record ready for persistence.
func NewInterviewRecord(title, description string, turns []Turn, assessment *Assessment) *InterviewRecord {
	return &InterviewRecord{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Turns:       turns,
		Assessment:  assessment,
		CreatedAt:   time.Now(),
	}
}
