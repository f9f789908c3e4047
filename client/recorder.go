package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

// ErrDeviceUnavailable is returned when the capture device cannot be
// opened. There is no automatic retry; the caller decides what to do.
var ErrDeviceUnavailable = errors.New("audio capture device unavailable")

// Recorder captures microphone audio through the silence gate and emits
// finalized WAV clips.
//
// The caller must have initialized portaudio.
type Recorder struct {
	gate   *Gate
	stream *portaudio.Stream
	clips  chan []byte
	logger *zap.Logger
}

// NewRecorder opens the default input device at 16kHz mono and starts
// feeding the gate.
func NewRecorder(gate *Gate, logger *zap.Logger) (*Recorder, error) {
	r := &Recorder{
		gate:   gate,
		clips:  make(chan []byte, 4),
		logger: logger,
	}

	stream, err := portaudio.OpenDefaultStream(
		captureChannels,
		0,
		float64(captureSampleRate),
		framesPerBuffer,
		r.onCapture,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	r.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	logger.Info("Microphone capture started",
		zap.Int("sampleRate", captureSampleRate),
		zap.Int("framesPerBuffer", framesPerBuffer))
	return r, nil
}

// Clips returns the channel of finalized WAV clips.
func (r *Recorder) Clips() <-chan []byte {
	return r.clips
}

// Close stops capture. The clips channel stays open; no clip is produced
// after Close returns.
func (r *Recorder) Close() error {
	if err := r.stream.Stop(); err != nil {
		return err
	}
	return r.stream.Close()
}

// onCapture runs on the device callback. It must not block; a clip that
// cannot be queued immediately is dropped.
func (r *Recorder) onCapture(in []int16) {
	pcm, ok := r.gate.Feed(in, time.Now())
	if !ok {
		return
	}

	clip := WrapWAV(pcm)
	select {
	case r.clips <- clip:
		r.logger.Info("Captured clip", zap.Int("bytes", len(clip)))
	default:
		r.logger.Warn("Dropping clip, send queue full", zap.Int("bytes", len(clip)))
	}
}
