package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	protocol "github.com/tesslabs/tess/internal/websocket"
)

// Config holds the settings for one interview client.
type Config struct {
	ServerURL string // ws://host:port/ws
	Token     string

	// Capture tuning; zero values select the gate defaults.
	Threshold    float64
	Hang         time.Duration
	MinClipBytes int
}

// Client is the terminal interview client: it captures silence-gated clips
// from the microphone, ships them to the server, and plays the synthesized
// reply back in order.
type Client struct {
	conn          *websocket.Conn
	gate          *Gate
	recorder      *Recorder
	reconstructor *Reconstructor
	logger        *zap.Logger
}

// Dial connects to the server and prepares the audio path. The returned
// client does nothing until Run is called.
func Dial(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	url := cfg.ServerURL + "?token=" + cfg.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.ServerURL, err)
	}

	c := &Client{
		conn:   conn,
		gate:   NewGate(cfg.Threshold, cfg.Hang, cfg.MinClipBytes),
		logger: logger,
	}
	c.reconstructor = NewReconstructor(&PortAudioPlayer{}, c.onReplyFinished, logger)

	recorder, err := NewRecorder(c.gate, logger)
	if err != nil {
		conn.Close()
		portaudio.Terminate()
		return nil, err
	}
	c.recorder = recorder

	return c, nil
}

// Run pumps clips to the server and events back until the context is
// cancelled or the connection drops.
func (c *Client) Run(ctx context.Context) error {
	defer c.cleanup()

	readErr := make(chan error, 1)
	go c.readEvents(readErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case clip := <-c.recorder.Clips():
			if err := c.conn.WriteMessage(websocket.BinaryMessage, clip); err != nil {
				return fmt.Errorf("failed to send clip: %w", err)
			}
			c.logger.Info("Sent clip", zap.Int("bytes", len(clip)))
		}
	}
}

func (c *Client) cleanup() {
	c.recorder.Close()
	c.conn.Close()
	portaudio.Terminate()
}

// readEvents demultiplexes server events into the playback path.
func (c *Client) readEvents(readErr chan<- error) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}

		event, err := protocol.DecodeEvent(raw)
		if err != nil {
			c.logger.Warn("Discarding malformed event", zap.Error(err))
			continue
		}

		switch ev := event.(type) {
		case *protocol.TextEvent:
			if ev.Event == protocol.EventTranscription {
				fmt.Printf("you:  %s\n", ev.Text)
			} else {
				fmt.Printf("tess: %s\n", ev.Text)
			}

		case *protocol.TTSChunkEvent:
			audio, err := ev.AudioBytes()
			if err != nil {
				c.logger.Warn("Discarding chunk with undecodable audio",
					zap.Int("index", ev.Index),
					zap.Error(err))
				continue
			}
			// First chunk of a reply mutes the microphone until the
			// whole reply has played out.
			c.gate.Suspend()
			c.reconstructor.AddChunk(ev.Index, audio)

		case *protocol.BaseEvent:
			if ev.Event == protocol.EventTTSComplete {
				c.reconstructor.Complete()
			}

		case *protocol.ErrorEvent:
			c.logger.Warn("Server reported an error",
				zap.String("event", string(ev.Event)),
				zap.String("message", ev.Message))
		}
	}
}

// onReplyFinished runs after the settle delay that follows playback.
func (c *Client) onReplyFinished() {
	c.gate.Resume()
	c.logger.Info("Reply finished, capture resumed")
}
