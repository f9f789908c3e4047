package synth

import "errors"

// ErrEmptyAudio marks a provider stream that closed without producing any
// audio bytes; the chunk is treated like any other synthesis failure.
var ErrEmptyAudio = errors.New("synthesis produced no audio")
