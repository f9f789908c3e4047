package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/tesslabs/tess/domain/repositories"
)

func TestGroqComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Model != "llama3-8b-8192" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Temperature != 0.7 || req.MaxTokens != 800 {
			t.Errorf("sampling = %v/%v", req.Temperature, req.MaxTokens)
		}
		if req.ResponseFormat != nil {
			t.Errorf("unexpected response_format: %+v", req.ResponseFormat)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != repositories.SystemRole {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Tell me about your last project."}}]}`))
	}))
	defer srv.Close()

	client, err := NewGroqLLM(GroqConfig{APIKey: "test-key", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewGroqLLM: %v", err)
	}

	reply, err := client.Complete(context.Background(), []repositories.ChatMessage{
		{Role: repositories.SystemRole, Content: "You are an interviewer."},
		{Role: repositories.UserRole, Content: "Hello."},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Tell me about your last project." {
		t.Errorf("reply = %q", reply)
	}
}

func TestGroqCompleteJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %+v", req.ResponseFormat)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"overallScore\":80}"}}]}`))
	}))
	defer srv.Close()

	client, _ := NewGroqLLM(GroqConfig{APIKey: "k", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	reply, err := client.CompleteJSON(context.Background(), []repositories.ChatMessage{
		{Role: repositories.SystemRole, Content: "Assess."},
	})
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if reply != `{"overallScore":80}` {
		t.Errorf("reply = %q", reply)
	}
}

func TestGroqCompleteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limit"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, _ := NewGroqLLM(GroqConfig{APIKey: "k", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	messages := []repositories.ChatMessage{{Role: repositories.UserRole, Content: "hi"}}
	if _, err := client.Complete(context.Background(), messages); err == nil {
		t.Error("Complete with 429 succeeded, want error")
	}
	if _, err := client.Complete(context.Background(), nil); err == nil {
		t.Error("Complete with no messages succeeded, want error")
	}
}

func TestGroqCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, _ := NewGroqLLM(GroqConfig{APIKey: "k", APIBaseURL: srv.URL}, zaptest.NewLogger(t))
	if _, err := client.Complete(context.Background(), []repositories.ChatMessage{{Role: repositories.UserRole, Content: "hi"}}); err == nil {
		t.Error("Complete with empty choices succeeded, want error")
	}
}

func TestNewGroqLLMRequiresKey(t *testing.T) {
	if _, err := NewGroqLLM(GroqConfig{}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("NewGroqLLM without key succeeded, want error")
	}
}
