package repositories

import "context"

// SpeechToText abstracts speech recognition services.
type SpeechToText interface {
	// Transcribe converts one finalized audio clip to text. The clip is a
	// complete container (WAV/WebM); the provider owns decoding.
	Transcribe(ctx context.Context, clip []byte) (string, error)
}
