package client

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gordonklaus/portaudio"
	"github.com/youpy/go-wav"
)

const framesPerBuffer = 1024

// PortAudioPlayer plays WAV chunks through the default output device. It
// implements ChunkPlayer; Play blocks until the chunk has fully drained.
//
// The caller must have initialized portaudio.
type PortAudioPlayer struct{}

var _ ChunkPlayer = (*PortAudioPlayer)(nil)

// Play decodes one WAV chunk and plays it to completion.
func (p *PortAudioPlayer) Play(audio []byte) error {
	reader := wav.NewReader(bytes.NewReader(audio))
	format, err := reader.Format()
	if err != nil {
		return fmt.Errorf("failed to decode chunk: %w", err)
	}

	done := make(chan struct{})
	var closed bool

	stream, err := portaudio.OpenDefaultStream(
		0,
		int(format.NumChannels),
		float64(format.SampleRate),
		framesPerBuffer,
		func(out []int16) {
			samples, err := reader.ReadSamples(uint32(len(out) / int(format.NumChannels)))
			if err == io.EOF || len(samples) == 0 {
				for i := range out {
					out[i] = 0
				}
				if !closed {
					closed = true
					close(done)
				}
				return
			}

			i := 0
			for _, sample := range samples {
				for ch := 0; ch < int(format.NumChannels) && i < len(out); ch++ {
					out[i] = int16(sample.Values[ch])
					i++
				}
			}
			for ; i < len(out); i++ {
				out[i] = 0
			}
		},
	)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	<-done
	return stream.Stop()
}
