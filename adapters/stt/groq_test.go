package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestGroqTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-large-v3" {
			t.Errorf("model = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if !strings.HasSuffix(header.Filename, ".wav") {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"I have five years of experience."}`))
	}))
	defer srv.Close()

	client, err := NewGroqSpeechToText(GroqConfig{APIKey: "test-key", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewGroqSpeechToText: %v", err)
	}

	text, err := client.Transcribe(context.Background(), []byte("fake-wav"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "I have five years of experience." {
		t.Errorf("text = %q", text)
	}
}

func TestGroqTranscribeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, _ := NewGroqSpeechToText(GroqConfig{APIKey: "bad", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	if _, err := client.Transcribe(context.Background(), []byte("clip")); err == nil {
		t.Fatal("Transcribe succeeded, want error")
	}
}

func TestGroqTranscribeEmptyClip(t *testing.T) {
	client, _ := NewGroqSpeechToText(GroqConfig{APIKey: "k"}, zaptest.NewLogger(t))
	if _, err := client.Transcribe(context.Background(), nil); err == nil {
		t.Fatal("Transcribe with empty clip succeeded, want error")
	}
}

func TestNewGroqSpeechToTextRequiresKey(t *testing.T) {
	if _, err := NewGroqSpeechToText(GroqConfig{}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("NewGroqSpeechToText without key succeeded, want error")
	}
}
