package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/tesslabs/tess/domain/entities"
	"github.com/tesslabs/tess/domain/repositories"
	"github.com/tesslabs/tess/internal/auth"
	"github.com/tesslabs/tess/internal/interview"
	"github.com/tesslabs/tess/internal/synth"
	"github.com/tesslabs/tess/internal/websocket"
)

type memoryRepo struct {
	interviews map[string]*entities.Interview
	records    []*entities.InterviewRecord
	saveErr    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{interviews: make(map[string]*entities.Interview)}
}

func (m *memoryRepo) CreateInterview(ctx context.Context, iv *entities.Interview) error {
	m.interviews[iv.ID] = iv
	return nil
}

func (m *memoryRepo) GetInterview(ctx context.Context, id string) (*entities.Interview, error) {
	iv, ok := m.interviews[id]
	if !ok {
		return nil, errors.New("interview not found")
	}
	return iv, nil
}

func (m *memoryRepo) SaveRecord(ctx context.Context, record *entities.InterviewRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *memoryRepo) ListRecords(ctx context.Context) ([]*entities.InterviewRecord, error) {
	return m.records, nil
}

type stubLLM struct {
	jsonReply string
	err       error
	messages  []repositories.ChatMessage
}

func (s *stubLLM) Complete(ctx context.Context, messages []repositories.ChatMessage) (string, error) {
	return s.jsonReply, s.err
}

func (s *stubLLM) CompleteJSON(ctx context.Context, messages []repositories.ChatMessage) (string, error) {
	s.messages = messages
	return s.jsonReply, s.err
}

type stubSTT struct{}

func (stubSTT) Transcribe(ctx context.Context, clip []byte) (string, error) { return "", nil }

type stubTTS struct{}

func (stubTTS) Speak(ctx context.Context, text string) (<-chan []byte, error) {
	out := make(chan []byte)
	close(out)
	return out, nil
}

func setup(t *testing.T, repo repositories.InterviewRepository, llm repositories.LargeLanguageModel) (*echo.Echo, *auth.Issuer) {
	logger := zaptest.NewLogger(t)
	issuer := auth.NewIssuer("test-secret", time.Hour)
	pipeline := interview.NewPipeline(stubSTT{}, llm, logger)
	synthesizer := synth.NewSynthesizer(stubTTS{}, 200, logger)
	hub := websocket.NewHub(pipeline, synthesizer, logger)
	go hub.Run()

	e := echo.New()
	InitRoutes(e, hub, repo, llm, issuer, logger)
	return e, issuer
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := setup(t, newMemoryRepo(), &stubLLM{})

	rec := doJSON(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestCreateInterview(t *testing.T) {
	repo := newMemoryRepo()
	e, issuer := setup(t, repo, &stubLLM{})

	rec := doJSON(e, http.MethodPost, "/interview-inputs",
		`{"title":"Backend Engineer","description":"Go services"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp CreateInterviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ID == "" || resp.Token == "" {
		t.Fatalf("incomplete response: %+v", resp)
	}

	if _, ok := repo.interviews[resp.ID]; !ok {
		t.Error("interview not persisted")
	}

	claims, err := issuer.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.InterviewID != resp.ID {
		t.Errorf("token interview ID = %q, want %q", claims.InterviewID, resp.ID)
	}
}

func TestCreateInterviewValidation(t *testing.T) {
	e, _ := setup(t, newMemoryRepo(), &stubLLM{})

	tests := []string{
		`{"title":"","description":"x"}`,
		`{"title":"x","description":"  "}`,
		`{}`,
		`not-json`,
	}
	for _, body := range tests {
		rec := doJSON(e, http.MethodPost, "/interview-inputs", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

const assessmentJSON = `{
  "overallScore": 72,
  "categories": [
    {"name": "Technical Knowledge", "score": 78},
    {"name": "Communication Skills", "score": 70},
    {"name": "Problem Solving", "score": 75},
    {"name": "Cultural Fit", "score": 65}
  ],
  "strengths": ["clear explanations", "solid fundamentals"],
  "improvements": ["more concrete examples", "structure answers"],
  "summary": "A capable candidate."
}`

func TestGenerateAssessment(t *testing.T) {
	repo := newMemoryRepo()
	llm := &stubLLM{jsonReply: assessmentJSON}
	e, _ := setup(t, repo, llm)

	rec := doJSON(e, http.MethodPost, "/interview-assesment",
		`{"title":"Backend Engineer","description":"Go services","conversation":[`+
			`{"role":"assistant","content":"Tell me about yourself."},`+
			`{"role":"user","content":"I build Go services."}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp AssessmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Assessment == nil {
		t.Fatalf("assessment missing: %s", rec.Body.String())
	}
	if resp.Assessment.OverallScore != 72 {
		t.Errorf("overallScore = %d", resp.Assessment.OverallScore)
	}
	if len(resp.Assessment.Categories) != 4 {
		t.Errorf("categories = %d", len(resp.Assessment.Categories))
	}

	if len(repo.records) != 1 {
		t.Fatalf("records = %d, want 1", len(repo.records))
	}
	if repo.records[0].Assessment == nil || len(repo.records[0].Turns) != 2 {
		t.Errorf("record = %+v", repo.records[0])
	}

	// The prompt embeds the rendered transcript.
	if len(llm.messages) != 1 {
		t.Fatalf("llm messages = %d", len(llm.messages))
	}
	if !strings.Contains(llm.messages[0].Content, "user: I build Go services.") {
		t.Errorf("prompt missing transcript: %s", llm.messages[0].Content)
	}
}

func TestGenerateAssessmentFencedJSON(t *testing.T) {
	llm := &stubLLM{jsonReply: "```json\n" + assessmentJSON + "\n```"}
	e, _ := setup(t, newMemoryRepo(), llm)

	rec := doJSON(e, http.MethodPost, "/interview-assesment",
		`{"title":"SRE","conversation":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp AssessmentResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Assessment == nil || resp.Assessment.OverallScore != 72 {
		t.Errorf("fenced JSON not parsed: %s", rec.Body.String())
	}
}

func TestGenerateAssessmentRawFallback(t *testing.T) {
	repo := newMemoryRepo()
	llm := &stubLLM{jsonReply: "The candidate did fine overall."}
	e, _ := setup(t, repo, llm)

	rec := doJSON(e, http.MethodPost, "/interview-assesment",
		`{"title":"SRE","conversation":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp AssessmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Assessment != nil {
		t.Errorf("assessment should be nil: %+v", resp.Assessment)
	}
	if resp.Raw != "The candidate did fine overall." {
		t.Errorf("raw = %q", resp.Raw)
	}

	// Record is still persisted, without an assessment.
	if len(repo.records) != 1 || repo.records[0].Assessment != nil {
		t.Errorf("records = %+v", repo.records)
	}
}

func TestListInterviews(t *testing.T) {
	repo := newMemoryRepo()
	repo.records = append(repo.records,
		entities.NewInterviewRecord("SRE", "infra", []entities.Turn{{Role: entities.TurnRoleUser, Content: "hi"}}, nil))
	e, _ := setup(t, repo, &stubLLM{})

	rec := doJSON(e, http.MethodGet, "/interviews", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var records []entities.InterviewRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 1 || records[0].Title != "SRE" {
		t.Errorf("records = %+v", records)
	}
}

func TestWebsocketAuthRejections(t *testing.T) {
	repo := newMemoryRepo()
	e, issuer := setup(t, repo, &stubLLM{})

	rec := doJSON(e, http.MethodGet, "/ws", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/ws?token=garbage", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}

	// Valid token, but the interview behind it does not exist.
	token, err := issuer.GenerateInterviewToken("no-such-interview")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	rec = doJSON(e, http.MethodGet, "/ws?token="+token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown interview: status = %d, want 404", rec.Code)
	}
}

func TestParseAssessment(t *testing.T) {
	if got := parseAssessment("not json at all"); got != nil {
		t.Errorf("parseAssessment(garbage) = %+v", got)
	}
	if got := parseAssessment("{}"); got != nil {
		t.Errorf("parseAssessment(empty object) = %+v", got)
	}
	got := parseAssessment(assessmentJSON)
	if got == nil || got.Summary != "A capable candidate." {
		t.Errorf("parseAssessment(valid) = %+v", got)
	}
}
