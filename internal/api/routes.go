package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tesslabs/tess/domain/entities"
	"github.com/tesslabs/tess/domain/repositories"
	"github.com/tesslabs/tess/internal/auth"
	"github.com/tesslabs/tess/internal/interview"
	"github.com/tesslabs/tess/internal/websocket"
)

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	repo repositories.InterviewRepository,
	llm repositories.LargeLanguageModel,
	issuer *auth.Issuer,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "tess-server",
		})
	})

	e.POST("/interview-inputs", func(c echo.Context) error {
		return createInterview(c, repo, issuer, logger)
	})

	// The endpoint name keeps the spelling clients already depend on.
	e.POST("/interview-assesment", func(c echo.Context) error {
		return generateAssessment(c, repo, llm, logger)
	})

	e.GET("/interviews", func(c echo.Context) error {
		return listInterviews(c, repo, logger)
	})

	// WebSocket endpoint with interview token validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, repo, issuer, logger)
	})
}

func createInterview(c echo.Context, repo repositories.InterviewRepository, issuer *auth.Issuer, logger *zap.Logger) error {
	var req CreateInterviewRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind interview request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Title and description are required",
		})
	}

	iv := entities.NewInterview(strings.TrimSpace(req.Title), strings.TrimSpace(req.Description))
	ctx := c.Request().Context()
	if err := repo.CreateInterview(ctx, iv); err != nil {
		logger.Error("Failed to create interview", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "persistence_failed",
			Message: "Failed to store interview",
		})
	}

	token, err := issuer.GenerateInterviewToken(iv.ID)
	if err != nil {
		logger.Error("Failed to generate interview token",
			zap.String("interviewID", iv.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate interview token",
		})
	}

	logger.Info("Interview created",
		zap.String("interviewID", iv.ID),
		zap.String("title", iv.Title))

	return c.JSON(http.StatusCreated, CreateInterviewResponse{
		ID:        iv.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
}

func generateAssessment(c echo.Context, repo repositories.InterviewRepository, llm repositories.LargeLanguageModel, logger *zap.Logger) error {
	var req AssessmentRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind assessment request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if strings.TrimSpace(req.Title) == "" || len(req.Conversation) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Title and conversation are required",
		})
	}

	ctx := c.Request().Context()
	messages := interview.BuildAssessmentMessages(req.Title, req.Description, formatConversation(req.Conversation))
	raw, err := llm.CompleteJSON(ctx, messages)
	if err != nil {
		logger.Error("Assessment completion failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "assessment_failed",
			Message: "Failed to generate assessment",
		})
	}

	assessment := parseAssessment(raw)
	if assessment == nil {
		logger.Warn("Assessment reply was not valid JSON, returning raw text",
			zap.Int("length", len(raw)))
	}

	record := entities.NewInterviewRecord(req.Title, req.Description, req.Conversation, assessment)
	if err := repo.SaveRecord(ctx, record); err != nil {
		// The assessment already exists; losing the record is not worth
		// failing the request over.
		logger.Error("Failed to persist interview record",
			zap.String("recordID", record.ID),
			zap.Error(err))
	}

	if assessment == nil {
		return c.JSON(http.StatusOK, AssessmentResponse{Raw: raw})
	}
	return c.JSON(http.StatusOK, AssessmentResponse{Assessment: assessment})
}

func listInterviews(c echo.Context, repo repositories.InterviewRepository, logger *zap.Logger) error {
	records, err := repo.ListRecords(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list interview records", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "persistence_failed",
			Message: "Failed to list interviews",
		})
	}

	if records == nil {
		records = []*entities.InterviewRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// formatConversation renders the turn log as the plain transcript the
// assessment prompt embeds.
func formatConversation(turns []entities.Turn) string {
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", turn.Role, turn.Content)
	}
	return b.String()
}

// parseAssessment extracts the assessment document from the model reply.
// Some models wrap JSON in markdown fences; strip them before parsing.
// Returns nil when no valid document can be recovered.
func parseAssessment(raw string) *entities.Assessment {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var assessment entities.Assessment
	if err := json.Unmarshal([]byte(text), &assessment); err != nil {
		return nil
	}
	if assessment.OverallScore == 0 && len(assessment.Categories) == 0 && assessment.Summary == "" {
		return nil
	}
	return &assessment
}

// websocketWithAuth handles WebSocket connections with interview token
// authentication. Browsers cannot set headers on websocket upgrades, so
// the token travels as a query parameter; Authorization is accepted too.
func websocketWithAuth(hub *websocket.Hub, c echo.Context, repo repositories.InterviewRepository, issuer *auth.Issuer, logger *zap.Logger) error {
	token := c.QueryParam("token")
	if token == "" {
		authHeader := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Interview token is required",
		})
	}

	claims, err := issuer.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired interview token",
		})
	}

	iv, err := repo.GetInterview(c.Request().Context(), claims.InterviewID)
	if err != nil {
		logger.Warn("WebSocket connection rejected: unknown interview",
			zap.String("interviewID", claims.InterviewID),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "interview_not_found",
			Message: "Interview does not exist",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("interviewID", iv.ID),
		zap.String("title", iv.Title))

	return websocket.ServeInterview(hub, c, *iv, logger)
}
