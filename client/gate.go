package client

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"
)

const (
	// DefaultThreshold is the speech energy floor on the 0..255 scale.
	DefaultThreshold = 5.0

	// DefaultHang is how long energy may stay below the threshold before
	// the clip is finalized.
	DefaultHang = 1500 * time.Millisecond

	// DefaultMinClipBytes is the smallest PCM payload worth sending; a
	// shorter capture is a false trigger and is discarded.
	DefaultMinClipBytes = 1000
)

// Gate is the silence-gated capture state machine. Feed it one device
// callback's worth of samples at a time; when a stretch of speech ends it
// hands back the accumulated PCM clip.
//
// The gate is suspended while the interviewer's reply is playing and stays
// suspended until Resume is called, so the microphone never captures the
// speaker output.
//
// Feed runs on the audio device callback goroutine while Suspend and
// Resume are called from the transport and playback goroutines, so all
// state is guarded by the mutex.
type Gate struct {
	threshold float64
	hang      time.Duration
	minClip   int

	mu        sync.Mutex
	suspended bool
	capturing bool
	lastVoice time.Time
	buf       bytes.Buffer
}

// NewGate creates a gate with the given tuning. Zero values select the
// defaults.
func NewGate(threshold float64, hang time.Duration, minClipBytes int) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if hang <= 0 {
		hang = DefaultHang
	}
	if minClipBytes <= 0 {
		minClipBytes = DefaultMinClipBytes
	}
	return &Gate{threshold: threshold, hang: hang, minClip: minClipBytes}
}

// ChunkEnergy is the average absolute amplitude of the chunk scaled to the
// 0..255 range the threshold is expressed in.
func ChunkEnergy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		total += v
	}
	return total / float64(len(samples)) / 32767.0 * 255.0
}

// Feed processes one chunk of captured samples. It returns the finalized
// PCM clip once a stretch of speech has been followed by enough silence;
// ok is false otherwise.
func (g *Gate) Feed(samples []int16, now time.Time) (clip []byte, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.suspended {
		return nil, false
	}

	energy := ChunkEnergy(samples)
	voiced := energy > g.threshold

	if voiced {
		g.lastVoice = now
		if !g.capturing {
			g.capturing = true
			g.buf.Reset()
		}
	}
	if !g.capturing {
		return nil, false
	}

	// Silence inside the hang window is part of the clip; natural pauses
	// between words must not split an utterance.
	appendSamples(&g.buf, samples)

	if !voiced && now.Sub(g.lastVoice) >= g.hang {
		g.capturing = false
		if g.buf.Len() < g.minClip {
			g.buf.Reset()
			return nil, false
		}
		out := make([]byte, g.buf.Len())
		copy(out, g.buf.Bytes())
		g.buf.Reset()
		return out, true
	}

	return nil, false
}

// Suspend drops any in-progress capture and blocks the gate until Resume.
// Called when reply playback starts.
func (g *Gate) Suspend() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.suspended = true
	g.capturing = false
	g.buf.Reset()
}

// Resume re-enables capture. Called after playback has finished and the
// settle delay has passed.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.suspended = false
}

// Suspended reports whether the gate is currently blocked.
func (g *Gate) Suspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suspended
}

func appendSamples(buf *bytes.Buffer, samples []int16) {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	buf.Write(raw)
}
