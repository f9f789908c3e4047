package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestDeepgramSpeak(t *testing.T) {
	wantAudio := bytes.Repeat([]byte("RIFF-audio-bytes"), 200)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/speak" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("model") != "aura-asteria-en" || q.Get("encoding") != "linear16" || q.Get("container") != "wav" {
			t.Errorf("query = %v", q)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["text"] != "Hello there." {
			t.Errorf("text = %q", body["text"])
		}
		w.Write(wantAudio)
	}))
	defer srv.Close()

	tts, err := NewDeepgramTTS(DeepgramConfig{APIKey: "test-key", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDeepgramTTS: %v", err)
	}

	stream, err := tts.Speak(context.Background(), "Hello there.")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}

	var got bytes.Buffer
	for chunk := range stream {
		got.Write(chunk)
	}
	if !bytes.Equal(got.Bytes(), wantAudio) {
		t.Errorf("audio mismatch: got %d bytes, want %d", got.Len(), len(wantAudio))
	}
}

func TestDeepgramSpeakErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tts, _ := NewDeepgramTTS(DeepgramConfig{APIKey: "bad", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	if _, err := tts.Speak(context.Background(), "hi"); err == nil {
		t.Fatal("Speak succeeded, want error")
	}
}

func TestDeepgramSpeakEmptyText(t *testing.T) {
	tts, _ := NewDeepgramTTS(DeepgramConfig{APIKey: "k"}, zaptest.NewLogger(t))
	if _, err := tts.Speak(context.Background(), "   "); err == nil {
		t.Fatal("Speak with empty text succeeded, want error")
	}
}

func TestNewDeepgramTTSRequiresKey(t *testing.T) {
	if _, err := NewDeepgramTTS(DeepgramConfig{}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("NewDeepgramTTS without key succeeded, want error")
	}
}

func TestNewElevenLabsTTSValidation(t *testing.T) {
	if _, err := NewElevenLabsTTS(ElevenLabsConfig{}, zaptest.NewLogger(t)); err == nil {
		t.Error("missing key accepted")
	}
	if _, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", Stability: 1.5}, zaptest.NewLogger(t)); err == nil {
		t.Error("out-of-range stability accepted")
	}
}

func TestElevenLabsSpeak(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("xi-api-key = %q", r.Header.Get("xi-api-key"))
		}
		var req elevenLabsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Text != "Good morning." {
			t.Errorf("text = %q", req.Text)
		}
		w.Write([]byte("pcm-bytes"))
	}))
	defer srv.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-key", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewElevenLabsTTS: %v", err)
	}

	stream, err := tts.Speak(context.Background(), "Good morning.")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	var got bytes.Buffer
	for chunk := range stream {
		got.Write(chunk)
	}
	if got.String() != "pcm-bytes" {
		t.Errorf("audio = %q", got.String())
	}
}
