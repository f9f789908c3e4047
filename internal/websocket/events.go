package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EventType names a server-to-client event.
type EventType string

// Events emitted over the websocket. Audio from the client arrives as
// binary frames and carries no envelope.
const (
	EventTranscription EventType = "transcription"
	EventResponseText  EventType = "ai-response-text"
	EventTTSChunk      EventType = "tts-chunk"
	EventTTSComplete   EventType = "tts-complete"
	EventError         EventType = "error"
	EventTTSError      EventType = "tts-error"
)

// BaseEvent is the common envelope for all JSON events.
type BaseEvent struct {
	Event EventType `json:"event"`
}

// TextEvent carries the transcription and ai-response-text payloads.
type TextEvent struct {
	BaseEvent
	Text string `json:"text"`
}

// TTSChunkEvent carries one synthesized audio chunk. Audio is base64 so
// the envelope stays a plain JSON text frame.
type TTSChunkEvent struct {
	BaseEvent
	Index  int    `json:"index"`
	Audio  string `json:"audio"`
	IsLast bool   `json:"is_last"`
}

// ErrorEvent carries the error and tts-error payloads.
type ErrorEvent struct {
	BaseEvent
	Message string `json:"message"`
}

// NewTranscriptionEvent builds a transcription envelope.
func NewTranscriptionEvent(text string) *TextEvent {
	return &TextEvent{BaseEvent: BaseEvent{Event: EventTranscription}, Text: text}
}

// NewResponseTextEvent builds an ai-response-text envelope.
func NewResponseTextEvent(text string) *TextEvent {
	return &TextEvent{BaseEvent: BaseEvent{Event: EventResponseText}, Text: text}
}

// NewTTSChunkEvent builds a tts-chunk envelope, encoding the audio bytes.
func NewTTSChunkEvent(index int, audio []byte, isLast bool) *TTSChunkEvent {
	return &TTSChunkEvent{
		BaseEvent: BaseEvent{Event: EventTTSChunk},
		Index:     index,
		Audio:     base64.StdEncoding.EncodeToString(audio),
		IsLast:    isLast,
	}
}

// NewTTSCompleteEvent builds a tts-complete envelope.
func NewTTSCompleteEvent() *BaseEvent {
	return &BaseEvent{Event: EventTTSComplete}
}

// NewErrorEvent builds an error envelope.
func NewErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{BaseEvent: BaseEvent{Event: EventError}, Message: message}
}

// NewTTSErrorEvent builds a tts-error envelope.
func NewTTSErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{BaseEvent: BaseEvent{Event: EventTTSError}, Message: message}
}

// DecodeEvent parses one server-to-client envelope into its typed form.
// The client uses this to demultiplex incoming text frames; unknown
// events and malformed payloads are rejected at this boundary.
func DecodeEvent(raw []byte) (interface{}, error) {
	var base BaseEvent
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("invalid event envelope: %w", err)
	}

	switch base.Event {
	case EventTranscription, EventResponseText:
		var ev TextEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("invalid %s event: %w", base.Event, err)
		}
		return &ev, nil

	case EventTTSChunk:
		var ev TTSChunkEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("invalid tts-chunk event: %w", err)
		}
		if ev.Index < 0 {
			return nil, fmt.Errorf("invalid tts-chunk event: negative index %d", ev.Index)
		}
		if _, err := base64.StdEncoding.DecodeString(ev.Audio); err != nil {
			return nil, fmt.Errorf("invalid tts-chunk event: undecodable audio: %w", err)
		}
		return &ev, nil

	case EventTTSComplete:
		return &base, nil

	case EventError, EventTTSError:
		var ev ErrorEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("invalid %s event: %w", base.Event, err)
		}
		return &ev, nil

	default:
		return nil, fmt.Errorf("unsupported event type: %q", base.Event)
	}
}

// AudioBytes decodes the chunk's base64 audio payload.
func (e *TTSChunkEvent) AudioBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(e.Audio)
}
