package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tesslabs/tess/domain/entities"
	"github.com/tesslabs/tess/internal/interview"
	"github.com/tesslabs/tess/internal/synth"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clips are short utterances;
	// 512KB covers well over a minute of 16kHz mono WAV.
	maxMessageSize = 512 * 1024

	// How long one clip may spend in transcription and completion.
	clipTimeout = 60 * time.Second

	// How long one reply may spend in speech synthesis.
	speakTimeout = 2 * time.Minute
)

// ErrClientClosed is returned by event sends after the connection has been
// unregistered.
var ErrClientClosed = errors.New("websocket client closed")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the client origin is pinned down
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and owns the providers shared by
// every connection. Conversation state lives on the Client, never here.
type Hub struct {
	// Registered clients keyed by session ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu sync.RWMutex

	pipeline    *interview.Pipeline
	synthesizer *synth.Synthesizer

	logger *zap.Logger
}

// NewHub creates a new websocket hub.
func NewHub(pipeline *interview.Pipeline, synthesizer *synth.Synthesizer, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		pipeline:    pipeline,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.session.ID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("sessionID", client.session.ID),
				zap.String("interviewID", client.session.Interview.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.session.ID]; ok {
				delete(h.clients, client.session.ID)
				client.close()
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered",
				zap.String("sessionID", client.session.ID))
		}
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// Type is the websocket message type, websocket.TextMessage or
	// websocket.BinaryMessage.
	Type    int
	Payload []byte
}

// Client is a middleman between one websocket connection and the pipeline.
// Its session is created at upgrade time and discarded at unregister; the
// conversation never outlives the connection.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Per-connection conversation state.
	session *entities.Session

	// Closed exactly once at unregister. Event sends racing the close
	// observe it instead of blocking on a dead connection.
	done      chan struct{}
	closeOnce sync.Once

	logger *zap.Logger
}

// ServeInterview upgrades the request and runs a conversation bound to the
// given interview descriptor. The caller has already authenticated the
// request and resolved the descriptor.
func ServeInterview(hub *Hub, c echo.Context, iv entities.Interview, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan WriteData, 256),
		session: entities.NewSession(iv),
		done:    make(chan struct{}),
		logger:  logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump pumps messages from the websocket connection into the pipeline.
// Binary frames are finalized audio clips; they are processed one at a
// time, in arrival order, on this goroutine.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleClip(message)
		case websocket.TextMessage:
			// The client has nothing to say in text; audio is the only input.
			c.logger.Warn("Ignoring unexpected text frame",
				zap.String("sessionID", c.session.ID),
				zap.Int("size", len(message)))
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the send channel to the websocket
// connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// handleClip runs one clip through transcription and completion, then hands
// the reply to the synthesizer. Synthesis runs on its own goroutine so the
// read loop keeps servicing pings; the client is silent during playback, so
// overlapping replies do not occur in practice.
func (c *Client) handleClip(clip []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), clipTimeout)
	defer cancel()

	c.logger.Info("Received audio clip",
		zap.String("sessionID", c.session.ID),
		zap.Int("size", len(clip)))

	reply, err := c.hub.pipeline.HandleClip(ctx, c.session, clip, c)
	if err != nil {
		// The pipeline has already emitted the error event.
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
		defer cancel()
		c.hub.synthesizer.Speak(ctx, reply, &ttsEmitter{client: c})
	}()
}

// sendEvent queues one JSON envelope for delivery.
func (c *Client) sendEvent(event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClientClosed
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
		return nil
	}
}

var _ interview.Emitter = (*Client)(nil)

// Transcription implements the pipeline emitter.
func (c *Client) Transcription(text string) error {
	return c.sendEvent(NewTranscriptionEvent(text))
}

// ResponseText implements the pipeline emitter.
func (c *Client) ResponseText(text string) error {
	return c.sendEvent(NewResponseTextEvent(text))
}

// Error implements the pipeline emitter.
func (c *Client) Error(message string) error {
	return c.sendEvent(NewErrorEvent(message))
}

// ttsEmitter adapts a Client to the synthesizer's emitter. Synthesis
// failures travel as tts-error so the client can distinguish them from
// pipeline errors.
type ttsEmitter struct {
	client *Client
}

var _ synth.Emitter = (*ttsEmitter)(nil)

func (e *ttsEmitter) Chunk(index int, audio []byte, isLast bool) error {
	return e.client.sendEvent(NewTTSChunkEvent(index, audio, isLast))
}

func (e *ttsEmitter) Complete() error {
	return e.client.sendEvent(NewTTSCompleteEvent())
}

func (e *ttsEmitter) Error(message string) error {
	return e.client.sendEvent(NewTTSErrorEvent(message))
}
