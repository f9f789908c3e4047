package client

import (
	"sync"
	"testing"
	"time"
)

func loudChunk(n int) []int16 {
	chunk := make([]int16, n)
	for i := range chunk {
		chunk[i] = 8000
	}
	return chunk
}

func quietChunk(n int) []int16 {
	return make([]int16, n)
}

func TestChunkEnergy(t *testing.T) {
	if got := ChunkEnergy(nil); got != 0 {
		t.Errorf("energy of empty chunk = %f", got)
	}
	if got := ChunkEnergy(quietChunk(256)); got != 0 {
		t.Errorf("energy of silence = %f", got)
	}
	loud := ChunkEnergy(loudChunk(256))
	if loud <= DefaultThreshold {
		t.Errorf("energy of speech = %f, want > %f", loud, DefaultThreshold)
	}
	max := ChunkEnergy([]int16{32767, -32767})
	if max < 254.9 || max > 255.1 {
		t.Errorf("energy of full scale = %f, want ~255", max)
	}
}

func TestGateCapturesUtterance(t *testing.T) {
	g := NewGate(0, 0, 0)
	now := time.Now()

	// Silence before speech produces nothing.
	if _, ok := g.Feed(quietChunk(256), now); ok {
		t.Fatal("clip from leading silence")
	}

	// Speech for a while.
	for i := 0; i < 20; i++ {
		now = now.Add(20 * time.Millisecond)
		if _, ok := g.Feed(loudChunk(256), now); ok {
			t.Fatal("clip finalized during speech")
		}
	}

	// Short pause, under the hang window: still capturing.
	now = now.Add(500 * time.Millisecond)
	if _, ok := g.Feed(quietChunk(256), now); ok {
		t.Fatal("clip finalized during short pause")
	}

	// Speech resumes; the pause did not split the utterance.
	now = now.Add(20 * time.Millisecond)
	g.Feed(loudChunk(256), now)

	// Silence past the hang window finalizes.
	now = now.Add(DefaultHang)
	clip, ok := g.Feed(quietChunk(256), now)
	if !ok {
		t.Fatal("clip not finalized after hang window")
	}
	// 23 chunks of 256 samples at 2 bytes each.
	if len(clip) != 23*256*2 {
		t.Errorf("clip bytes = %d, want %d", len(clip), 23*256*2)
	}
}

func TestGateDiscardsShortClip(t *testing.T) {
	g := NewGate(0, 0, 0)
	now := time.Now()

	// One loud chunk of 100 samples is 200 bytes, under the minimum.
	g.Feed(loudChunk(100), now)
	now = now.Add(DefaultHang + time.Millisecond)
	if clip, ok := g.Feed(quietChunk(100), now); ok {
		t.Fatalf("short clip of %d bytes not discarded", len(clip))
	}

	// The gate still works for the next utterance.
	for i := 0; i < 10; i++ {
		now = now.Add(20 * time.Millisecond)
		g.Feed(loudChunk(256), now)
	}
	now = now.Add(DefaultHang)
	if _, ok := g.Feed(quietChunk(256), now); !ok {
		t.Fatal("gate did not recover after discarding a short clip")
	}
}

func TestGateSuspendResume(t *testing.T) {
	g := NewGate(0, 0, 0)
	now := time.Now()

	// Start a capture, then playback begins mid-utterance.
	g.Feed(loudChunk(256), now)
	g.Suspend()
	if !g.Suspended() {
		t.Fatal("gate not suspended")
	}

	// Nothing gets captured while suspended, loud or not.
	for i := 0; i < 10; i++ {
		now = now.Add(20 * time.Millisecond)
		if _, ok := g.Feed(loudChunk(256), now); ok {
			t.Fatal("clip produced while suspended")
		}
	}
	now = now.Add(DefaultHang)
	if _, ok := g.Feed(quietChunk(256), now); ok {
		t.Fatal("suspended gate finalized a clip")
	}

	// After resume the interrupted capture is gone; a fresh utterance is
	// needed.
	g.Resume()
	now = now.Add(time.Millisecond)
	if _, ok := g.Feed(quietChunk(256), now); ok {
		t.Fatal("stale capture survived suspension")
	}
	for i := 0; i < 10; i++ {
		now = now.Add(20 * time.Millisecond)
		g.Feed(loudChunk(256), now)
	}
	now = now.Add(DefaultHang)
	if _, ok := g.Feed(quietChunk(256), now); !ok {
		t.Fatal("gate did not capture after resume")
	}
}

// Feed runs on the device callback goroutine while Suspend and Resume
// arrive from the transport and playback goroutines. Run with -race.
func TestGateConcurrentSuspendResume(t *testing.T) {
	g := NewGate(0, 0, 0)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		now := time.Now()
		for i := 0; i < 500; i++ {
			now = now.Add(20 * time.Millisecond)
			g.Feed(loudChunk(64), now)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			g.Suspend()
			g.Resume()
		}
	}()
	wg.Wait()

	// The gate is still coherent: a fresh utterance captures end to end.
	g.Resume()
	now := time.Now()
	for i := 0; i < 10; i++ {
		now = now.Add(20 * time.Millisecond)
		g.Feed(loudChunk(256), now)
	}
	now = now.Add(DefaultHang)
	if _, ok := g.Feed(quietChunk(256), now); !ok {
		t.Fatal("gate did not capture after concurrent suspend churn")
	}
}

func TestGateDefaults(t *testing.T) {
	g := NewGate(0, 0, 0)
	if g.threshold != DefaultThreshold || g.hang != DefaultHang || g.minClip != DefaultMinClipBytes {
		t.Errorf("defaults = %f %v %d", g.threshold, g.hang, g.minClip)
	}
	g = NewGate(12, time.Second, 4000)
	if g.threshold != 12 || g.hang != time.Second || g.minClip != 4000 {
		t.Errorf("overrides = %f %v %d", g.threshold, g.hang, g.minClip)
	}
}
