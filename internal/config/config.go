package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port      string
	DataDir   string
	LogFormat string

	OCRAPIKey   string
	OCREndpoint string

	AssemblyAIAPIKey  string
	AssemblyAIBaseURL string
	PollInterval      time.Duration
	TranscribeTimeout time.Duration

	GroqAPIKey   string
	GroqEndpoint string
	GroqModel    string

	GoogleAPIKey string
	GeminiModel  string

	DatabaseURL string

	BaseURL        string
	ShareSecret    string
	ShareTTL       time.Duration
	MaxUploadBytes int64
}

func LoadConfig() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "8080")
	cfg.DataDir = envOrDefault("DATA_DIR", "data")
	cfg.LogFormat = envOrDefault("LOG_FORMAT", "console")

	cfg.OCRAPIKey = os.Getenv("OCR_API_KEY")
	cfg.OCREndpoint = envOrDefault("OCR_ENDPOINT", "https://api.ocr.space/parse/image")

	cfg.AssemblyAIAPIKey = os.Getenv("ASSEMBLYAI_API_KEY")
	cfg.AssemblyAIBaseURL = envOrDefault("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com/v2")

	pollSeconds, err := parseIntEnv("POLL_INTERVAL_SECONDS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse POLL_INTERVAL_SECONDS: %w", err)
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	transcribeTimeout, err := parseIntEnv("TRANSCRIBE_TIMEOUT_SECONDS", 600)
	if err != nil {
		return Config{}, fmt.Errorf("parse TRANSCRIBE_TIMEOUT_SECONDS: %w", err)
	}
	cfg.TranscribeTimeout = time.Duration(transcribeTimeout) * time.Second

	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.GroqEndpoint = envOrDefault("GROQ_ENDPOINT", "https://api.groq.com/openai/v1/chat/completions")
	cfg.GroqModel = envOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile")

	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.GeminiModel = envOrDefault("GEMINI_MODEL", "gemini-1.5-pro-002")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.BaseURL = envOrDefault("BASE_URL", fmt.Sprintf("http://localhost:%s", cfg.Port))
	cfg.ShareSecret = envOrDefault("SHARE_SECRET", "change-me")

	shareTTLSeconds, err := parseIntEnv("SHARE_TTL_SECONDS", 86400)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHARE_TTL_SECONDS: %w", err)
	}
	cfg.ShareTTL = time.Duration(shareTTLSeconds) * time.Second

	maxUploadMB, err := parseIntEnv("MAX_UPLOAD_MB", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = maxUploadMB * 1024 * 1024

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}
