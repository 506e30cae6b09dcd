package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Chunk store backends selectable with CHUNK_STORE.
const (
	StoreQdrant   = "qdrant"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingDimension int
	DBPath             string
	ChunkStore         string
	QdrantURL          string
	QdrantCollection   string
	PostgresDSN        string
	APIPort            string
	LexiconPath        string
	RequestTimeout     time.Duration
	QuestionClassifier string
	CORSOrigins        []string
	Log                LogConfig
	Pipeline           Pipeline
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		DBPath:             getEnv("DB_PATH", "./data/kbqa.db"),
		ChunkStore:         strings.ToLower(getEnv("CHUNK_STORE", StoreQdrant)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "kb_chunks"),
		PostgresDSN:        getEnv("POSTGRES_DSN", ""),
		APIPort:            getEnv("API_PORT", "9000"),
		LexiconPath:        getEnv("LEXICON_PATH", ""),
		QuestionClassifier: strings.ToLower(getEnv("QUESTION_CLASSIFIER", "rules")),
		CORSOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	// EMBEDDING_DIMENSION must match the output size of the embeddings model.
	// Changing it requires recreating the vector collection or table.
	dimStr := getEnv("EMBEDDING_DIMENSION", "")
	if dimStr == "" {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION is required")
	}
	dim, err := cast.ToIntE(dimStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION must be a valid integer: %w", err)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION must be greater than 0")
	}
	cfg.EmbeddingDimension = dim

	switch cfg.ChunkStore {
	case StoreQdrant, StoreMemory:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required when CHUNK_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("CHUNK_STORE must be one of qdrant, postgres, memory, got %q", cfg.ChunkStore)
	}

	switch cfg.QuestionClassifier {
	case "rules", "llm":
	default:
		return nil, fmt.Errorf("QUESTION_CLASSIFIER must be rules or llm, got %q", cfg.QuestionClassifier)
	}

	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Log, err = loadLogConfig(); err != nil {
		return nil, err
	}
	if cfg.Pipeline, err = loadPipeline(); err != nil {
		return nil, err
	}

	// Create ./data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

// splitList parses a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
