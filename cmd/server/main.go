package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tesslabs/tess/adapters/llm"
	"github.com/tesslabs/tess/adapters/mongo"
	"github.com/tesslabs/tess/adapters/stt"
	"github.com/tesslabs/tess/adapters/tts"
	"github.com/tesslabs/tess/domain/repositories"
	"github.com/tesslabs/tess/internal/api"
	"github.com/tesslabs/tess/internal/auth"
	"github.com/tesslabs/tess/internal/config"
	"github.com/tesslabs/tess/internal/interview"
	"github.com/tesslabs/tess/internal/synth"
	"github.com/tesslabs/tess/internal/websocket"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize providers
	speechToText, err := buildSTT(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech-to-text", zap.Error(err))
	}
	languageModel, err := buildLLM(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize language model", zap.Error(err))
	}
	textToSpeech, err := buildTTS(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize text-to-speech", zap.Error(err))
	}

	// Initialize persistence
	mongoClient, err := mongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	repo := mongo.NewInterviewRepository(mongoClient.Database)

	// Initialize pipeline and synthesis
	pipeline := interview.NewPipeline(speechToText, languageModel, logger)
	synthesizer := synth.NewSynthesizer(textToSpeech, cfg.ChunkTargetLength, logger)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// Initialize WebSocket hub
	hub := websocket.NewHub(pipeline, synthesizer, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, repo, languageModel, issuer, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("stt", cfg.STTProvider),
		zap.String("llm", cfg.LLMProvider),
		zap.String("tts", cfg.TTSProvider))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := mongoClient.Close(ctx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Server exited")
}

func buildSTT(cfg config.Config, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch cfg.STTProvider {
	case "google":
		return stt.NewGoogleSpeechToText(logger), nil
	default:
		return stt.NewGroqSpeechToText(stt.GroqConfig{
			APIKey: cfg.GroqAPIKey,
			Model:  cfg.GroqSTTModel,
		}, logger)
	}
}

func buildLLM(cfg config.Config, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return llm.NewGeminiLLM(cfg.GeminiAPIKey, logger)
	default:
		return llm.NewGroqLLM(llm.GroqConfig{
			APIKey: cfg.GroqAPIKey,
			Model:  cfg.GroqChatModel,
		}, logger)
	}
}

func buildTTS(cfg config.Config, logger *zap.Logger) (repositories.TextToSpeech, error) {
	switch cfg.TTSProvider {
	case "elevenlabs":
		return tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey: os.Getenv("ELEVEN_LABS_API_KEY"),
		}, logger)
	default:
		return tts.NewDeepgramTTS(tts.DeepgramConfig{
			APIKey: cfg.DeepgramAPIKey,
			Voice:  cfg.DeepgramVoice,
		}, logger)
	}
}
