package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Postgres
	DatabaseURL string

	// Auth
	APIKey string

	// LLM
	LLMBaseURL string
	LLMAPIKey  string
	ChatModel  string
	EmbedModel string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Segmenter overrides
	PageTimeout    time.Duration
	FuzzyThreshold float64

	// Chapter registry
	CatalogPath string

	// Embedding input cap, in characters
	EmbedMaxChars int

	// Job state
	JobTTL time.Duration

	// Tutoring sessions
	SessionTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		APIKey: os.Getenv("SYLLABD_API_KEY"),

		LLMBaseURL: envOr("LLM_BASE_URL", "https://api.together.xyz"),
		LLMAPIKey:  os.Getenv("TOGETHER_API_KEY"),
		ChatModel:  envOr("CHAT_MODEL", "mistralai/Mixtral-8x7B-Instruct-v0.1"),
		EmbedModel: envOr("EMBED_MODEL", "togethercomputer/m2-bert-80M-8k-retrieval"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		PageTimeout:    envDuration("PAGE_TIMEOUT", 5*time.Second),
		FuzzyThreshold: envFloat("FUZZY_THRESHOLD", 0.70),

		CatalogPath: os.Getenv("CHAPTER_CATALOG"),

		EmbedMaxChars: envInt("EMBED_MAX_CHARS", 8000),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		SessionTTL: envDuration("SESSION_TTL", 24*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 5 * time.Second
	}
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		cfg.FuzzyThreshold = 0.70
	}
	if cfg.EmbedMaxChars <= 0 {
		cfg.EmbedMaxChars = 8000
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("SYLLABD_API_KEY is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("TOGETHER_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
