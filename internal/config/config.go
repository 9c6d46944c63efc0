package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Gemini / embeddings
	GeminiAPIKey    string
	GeminiModel     string
	GeminiTier      string
	EmbeddingsModel string

	// Storage locations
	DataDir      string // root for everything persisted
	KnowledgeDir string // uploaded source documents
	IndexDir     string // persisted vector index
	DatabaseDir  string // admissions sqlite

	// Ingestion tunables
	ChunkSize    int
	ChunkOverlap int

	// Retrieval tunables. RelevanceThreshold is a squared-L2 distance over
	// unit vectors: lower is closer, usable range (0, 4).
	SearchTopK         int
	RelevanceThreshold float64
	AdmissionSearchK   int // wider, ungated search for the course catalog

	// Conversation tunables
	HistoryWindow  int // messages rendered into the prompt
	TranscriptCap  int // entries kept per session
	SessionTimeout int // seconds of inactivity before eviction
	SweepInterval  int // seconds between background sweeps

	// LLM call timeouts (seconds)
	ChatTimeout             int
	AdmissionOptionsTimeout int

	// HTTP rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// SMTP configuration for admission confirmation mail
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Telemetry
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "*"), ","),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),
		EmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		DataDir: getEnv("DATA_DIR", "./data"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 700),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 100),

		SearchTopK:         getEnvInt("SEARCH_TOP_K", 10),
		RelevanceThreshold: getEnvFloat64("RELEVANCE_THRESHOLD", 1.65),
		AdmissionSearchK:   getEnvInt("ADMISSION_SEARCH_TOP_K", 15),

		HistoryWindow:  getEnvInt("HISTORY_WINDOW", 10),
		TranscriptCap:  getEnvInt("TRANSCRIPT_CAP", 40),
		SessionTimeout: getEnvInt("SESSION_TIMEOUT", 120),
		SweepInterval:  getEnvInt("SWEEP_INTERVAL", 60),

		ChatTimeout:             getEnvInt("CHAT_TIMEOUT", 30),
		AdmissionOptionsTimeout: getEnvInt("ADMISSION_OPTIONS_TIMEOUT", 10),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		SMTPHost: getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("EMAIL_USER", ""),
		SMTPPass: getEnv("EMAIL_PASS", ""),
		SMTPFrom: getEnv("EMAIL_FROM", ""),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	cfg.KnowledgeDir = getEnv("KNOWLEDGE_DIR", filepath.Join(cfg.DataDir, "knowledge_base"))
	cfg.IndexDir = getEnv("INDEX_DIR", filepath.Join(cfg.DataDir, "vector_index"))
	cfg.DatabaseDir = getEnv("DATABASE_DIR", filepath.Join(cfg.DataDir, "database"))

	// A missing GEMINI_API_KEY is not fatal: chat degrades to a fixed
	// apology message instead. Validate only what would corrupt state.
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.RelevanceThreshold <= 0 || cfg.RelevanceThreshold >= 4 {
		return nil, fmt.Errorf("RELEVANCE_THRESHOLD must be in (0, 4), got %v", cfg.RelevanceThreshold)
	}
	if cfg.SessionTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_TIMEOUT must be positive")
	}

	return cfg, nil
}

// EnsureDirs creates every directory the service persists into.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.KnowledgeDir, c.IndexDir, c.DatabaseDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
