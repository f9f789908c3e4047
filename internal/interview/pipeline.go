package interview

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tesslabs/tess/domain/entities"
	"github.com/tesslabs/tess/domain/repositories"
)

// Emitter receives the text events produced while handling one clip. The
// websocket connection implements this.
type Emitter interface {
	Transcription(text string) error
	ResponseText(text string) error
	Error(message string) error
}

// Pipeline turns one captured audio clip into a transcript and an
// interviewer reply. Steps run strictly in order; two clips from the same
// session are never processed concurrently (the connection handler feeds
// clips one at a time).
type Pipeline struct {
	stt    repositories.SpeechToText
	llm    repositories.LargeLanguageModel
	logger *zap.Logger
}

// NewPipeline creates a pipeline over the given providers.
func NewPipeline(stt repositories.SpeechToText, llm repositories.LargeLanguageModel, logger *zap.Logger) *Pipeline {
	return &Pipeline{stt: stt, llm: llm, logger: logger}
}

// HandleClip transcribes the clip, appends the user turn, requests the
// interviewer reply, appends it, and emits both texts. It returns the
// reply for the caller to hand to the speech synthesizer. On failure it
// emits exactly one error event and returns a wrapped sentinel error; the
// session is not mutated beyond the point of failure.
func (p *Pipeline) HandleClip(ctx context.Context, session *entities.Session, clip []byte, em Emitter) (string, error) {
	text, err := p.stt.Transcribe(ctx, clip)
	if err != nil || strings.TrimSpace(text) == "" {
		p.logger.Warn("Transcription failed",
			zap.String("sessionID", session.ID),
			zap.Int("clipBytes", len(clip)),
			zap.Error(err))
		p.emitError(em, "Could not transcribe audio or no speech detected")
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
		}
		return "", fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}

	p.logger.Info("Transcription",
		zap.String("sessionID", session.ID),
		zap.String("text", text))
	if err := em.Transcription(text); err != nil {
		p.logger.Warn("Failed to deliver transcription", zap.Error(err))
	}

	session.AppendTurn(entities.TurnRoleUser, text)

	messages := BuildMessages(session.Interview, session.History())
	reply, err := p.llm.Complete(ctx, messages)
	if err != nil || strings.TrimSpace(reply) == "" {
		p.logger.Error("Completion failed",
			zap.String("sessionID", session.ID),
			zap.Error(err))
		p.emitError(em, "Error processing your speech")
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
		}
		return "", fmt.Errorf("%w: empty reply", ErrCompletionFailed)
	}
	reply = strings.TrimSpace(reply)

	session.AppendTurn(entities.TurnRoleAssistant, reply)

	if err := em.ResponseText(reply); err != nil {
		p.logger.Warn("Failed to deliver reply text", zap.Error(err))
	}

	return reply, nil
}

func (p *Pipeline) emitError(em Emitter, message string) {
	if err := em.Error(message); err != nil {
		p.logger.Warn("Failed to deliver error event", zap.Error(err))
	}
}
