package synth

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"github.com/tesslabs/tess/domain/repositories"
)

// Emitter receives synthesized chunks as they become ready. The websocket
// connection implements this; sends to a closed connection must return an
// error rather than panic.
type Emitter interface {
	// Chunk delivers the synthesized audio for one text chunk. index is
	// the chunk's position in the reply and is the only ordering key the
	// receiver may rely on.
	Chunk(index int, audio []byte, isLast bool) error
	// Complete signals that every chunk of the current reply has reached
	// a terminal state (synthesized or skipped after failure).
	Complete() error
	// Error reports that speech generation failed for the whole reply.
	Error(message string) error
}

// Synthesizer turns a reply into a sequence of indexed audio chunks.
//
// Chunks are synthesized one at a time in index order. That keeps provider
// usage predictable and makes the dense-completion bookkeeping trivial;
// arrival order at the client is re-sequenced there regardless.
type Synthesizer struct {
	tts    repositories.TextToSpeech
	target int
	logger *zap.Logger
}

// NewSynthesizer creates a synthesizer packing sentences into chunks of at
// most targetLength characters.
func NewSynthesizer(tts repositories.TextToSpeech, targetLength int, logger *zap.Logger) *Synthesizer {
	if targetLength <= 0 {
		targetLength = 200
	}
	return &Synthesizer{tts: tts, target: targetLength, logger: logger}
}

// Speak synthesizes reply and emits every chunk followed by exactly one
// completion signal. A per-chunk provider failure marks that index as
// processed without audio and moves on; it never aborts the reply.
func (s *Synthesizer) Speak(ctx context.Context, reply string, em Emitter) {
	chunks := PackChunks(SplitSentences(reply), s.target)
	if len(chunks) == 0 {
		if err := em.Complete(); err != nil {
			s.logger.Warn("Failed to emit tts completion", zap.Error(err))
		}
		return
	}

	s.logger.Info("Synthesizing reply",
		zap.Int("chunks", len(chunks)),
		zap.Int("replyLength", len(reply)))

	failed := 0
	for _, chunk := range chunks {
		audio, err := s.synthesizeChunk(ctx, chunk.Text)
		if err != nil {
			// Skip, don't retry: a missing sentence of audio beats
			// stalling the whole reply.
			failed++
			s.logger.Error("Chunk synthesis failed, skipping",
				zap.Int("index", chunk.Index),
				zap.Error(err))
			continue
		}

		isLast := chunk.Index == len(chunks)-1
		if err := em.Chunk(chunk.Index, audio, isLast); err != nil {
			s.logger.Warn("Failed to deliver tts chunk",
				zap.Int("index", chunk.Index),
				zap.Error(err))
		}
	}

	if failed == len(chunks) {
		if err := em.Error("Error generating speech"); err != nil {
			s.logger.Warn("Failed to emit tts error", zap.Error(err))
		}
	}

	if err := em.Complete(); err != nil {
		s.logger.Warn("Failed to emit tts completion", zap.Error(err))
	}
}

// synthesizeChunk drains the provider's stream into a single buffer so the
// chunk travels as one indexed message.
func (s *Synthesizer) synthesizeChunk(ctx context.Context, text string) ([]byte, error) {
	stream, err := s.tts.Speak(ctx, text)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for data := range stream {
		buf.Write(data)
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyAudio
	}
	return buf.Bytes(), nil
}
