package interview

import "errors"

var (
	// ErrTranscriptionFailed covers provider errors and empty transcripts;
	// the turn is aborted before any session mutation.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrCompletionFailed covers completion provider errors and empty
	// replies; no assistant turn is appended.
	ErrCompletionFailed = errors.New("completion failed")
)
