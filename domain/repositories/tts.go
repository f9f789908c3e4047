package repositories

import "context"

// TextToSpeech abstracts speech synthesis services. The returned channel
// streams raw audio bytes and is closed when synthesis finishes; an error
// on the second return value means synthesis never started.
type TextToSpeech interface {
	Speak(ctx context.Context, text string) (<-chan []byte, error)
}
