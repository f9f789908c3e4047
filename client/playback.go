package client

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// skipBackoff is the pause after a chunk fails to play, so a burst of
	// bad chunks does not spin through the queue instantly.
	defaultSkipBackoff = 100 * time.Millisecond

	// settleDelay separates the end of playback from the resumption of
	// capture, keeping speaker tail-off out of the microphone.
	defaultSettleDelay = 500 * time.Millisecond
)

// ChunkPlayer plays one complete audio chunk, blocking until done.
type ChunkPlayer interface {
	Play(audio []byte) error
}

// Reconstructor rebuilds the reply's playback order from chunks that may
// arrive out of order. Chunks are buffered by index and played strictly
// sequentially from index zero; a chunk that fails to play is skipped
// after a short backoff rather than retried.
//
// After the completion signal, once every buffered chunk has been played,
// the reconstructor resets for the next reply, waits the settle delay, and
// fires the resume callback exactly once.
type Reconstructor struct {
	player ChunkPlayer
	resume func()
	logger *zap.Logger

	skipBackoff time.Duration
	settleDelay time.Duration

	mu        sync.Mutex
	pending   map[int][]byte
	next      int
	playing   bool
	completed bool
}

// NewReconstructor creates a reconstructor that plays through player and
// calls resume when a reply has fully finished.
func NewReconstructor(player ChunkPlayer, resume func(), logger *zap.Logger) *Reconstructor {
	return &Reconstructor{
		player:      player,
		resume:      resume,
		logger:      logger,
		skipBackoff: defaultSkipBackoff,
		settleDelay: defaultSettleDelay,
		pending:     make(map[int][]byte),
	}
}

// Speaking reports whether reply audio is queued or playing.
func (r *Reconstructor) Speaking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing || len(r.pending) > 0
}

// AddChunk buffers one reply chunk. Playback starts as soon as the chunk
// with the next expected index is available and nothing is playing.
func (r *Reconstructor) AddChunk(index int, audio []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < r.next {
		r.logger.Warn("Dropping stale chunk", zap.Int("index", index), zap.Int("next", r.next))
		return
	}
	r.pending[index] = audio
	r.startLocked()
}

// Complete records that the sender has no more chunks for this reply. If
// the queue is already drained and idle the reply finishes now; otherwise
// it finishes when the last chunk has played. A hole at the front of the
// queue is now known to be permanent, so playback is unparked past it.
func (r *Reconstructor) Complete() {
	r.mu.Lock()
	r.completed = true
	idle := !r.playing && len(r.pending) == 0
	if !r.playing && len(r.pending) > 0 {
		r.advancePastHoleLocked()
		r.startLocked()
	}
	r.mu.Unlock()

	if idle {
		r.finish()
	}
}

// startLocked launches the drain goroutine if the next chunk is ready.
func (r *Reconstructor) startLocked() {
	if r.playing {
		return
	}
	if _, ok := r.pending[r.next]; !ok {
		return
	}
	r.playing = true
	go r.drain()
}

// drain plays consecutively indexed chunks until it runs out, then either
// finishes the reply or parks until the missing index arrives. Once the
// completion signal has been seen a missing index can never be filled, so
// the hole is skipped instead.
func (r *Reconstructor) drain() {
	for {
		r.mu.Lock()
		audio, ok := r.pending[r.next]
		if !ok && r.completed && len(r.pending) > 0 {
			r.advancePastHoleLocked()
			audio, ok = r.pending[r.next]
		}
		if !ok {
			r.playing = false
			finished := r.completed && len(r.pending) == 0
			r.mu.Unlock()
			if finished {
				r.finish()
			}
			return
		}
		delete(r.pending, r.next)
		index := r.next
		r.mu.Unlock()

		if err := r.player.Play(audio); err != nil {
			r.logger.Warn("Failed to play chunk, skipping",
				zap.Int("index", index),
				zap.Error(err))
			time.Sleep(r.skipBackoff)
		}

		r.mu.Lock()
		r.next++
		r.mu.Unlock()
	}
}

// advancePastHoleLocked moves next forward to the lowest buffered index.
// Only valid once completed is set: a hole then means the sender never
// produced those chunks, and waiting for them would stall the reply.
func (r *Reconstructor) advancePastHoleLocked() {
	if len(r.pending) == 0 {
		return
	}
	if _, ok := r.pending[r.next]; ok {
		return
	}
	lowest := -1
	for i := range r.pending {
		if lowest < 0 || i < lowest {
			lowest = i
		}
	}
	r.logger.Warn("Skipping missing chunks",
		zap.Int("from", r.next),
		zap.Int("to", lowest))
	r.next = lowest
}

// finish resets for the next reply and fires the resume callback. The
// completed flag is cleared under the lock, so when the drain goroutine and
// Complete race only one of them gets here with it still set.
func (r *Reconstructor) finish() {
	r.mu.Lock()
	if !r.completed {
		r.mu.Unlock()
		return
	}
	r.completed = false
	r.next = 0
	r.mu.Unlock()

	time.Sleep(r.settleDelay)
	if r.resume != nil {
		r.resume()
	}
}
