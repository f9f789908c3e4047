package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration loaded from the environment.
type Config struct {
	Port string

	// Provider selection. Each defaults to the provider the product
	// shipped with; alternates are wired behind the same interfaces.
	STTProvider string // "groq" or "google"
	LLMProvider string // "groq" or "gemini"
	TTSProvider string // "deepgram" or "elevenlabs"

	GroqAPIKey     string
	GroqSTTModel   string
	GroqChatModel  string
	DeepgramAPIKey string
	DeepgramVoice  string
	GeminiAPIKey   string

	// Synthesis chunking. Replies are packed into sentence groups of at
	// most ChunkTargetLength characters before synthesis.
	ChunkTargetLength int

	JWTSecret string
	TokenTTL  time.Duration

	MongoURI      string
	MongoDatabase string
}

// Load reads environment variables (including a .env file when present)
// and returns Config with defaults applied.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getenv("PORT", "5000"),

		STTProvider: getenv("STT_PROVIDER", "groq"),
		LLMProvider: getenv("LLM_PROVIDER", "groq"),
		TTSProvider: getenv("TTS_PROVIDER", "deepgram"),

		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		GroqSTTModel:   getenv("GROQ_STT_MODEL", "whisper-large-v3"),
		GroqChatModel:  getenv("GROQ_CHAT_MODEL", "llama3-8b-8192"),
		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramVoice:  getenv("DEEPGRAM_VOICE", "aura-asteria-en"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),

		ChunkTargetLength: getenvInt("TTS_CHUNK_TARGET", 200),

		JWTSecret: getenv("JWT_SECRET", "dev-only-secret"),
		TokenTTL:  getenvDuration("TOKEN_TTL", 24*time.Hour),

		MongoURI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenv("MONGODB_DATABASE", "tess"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
