package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the immutable process configuration, loaded once at startup and
// passed into the DI container by value.
type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	OllamaURL            string
	OllamaTimeoutSeconds int
	EmbeddingModel       string

	AnalystModel   string
	ArchitectModel string
	ReviewerModel  string
	ArbiterModel   string

	SimilarityThreshold float64
	DefaultTopK         int
	MaxCritiqueChars    int
	PromptTemplateDir   string
	AnswerCacheSize     int
	AnswerCacheTTLMin   int
	ClassifierMaxRPS    float64
	OTelEnabled         bool
}

// Load reads configuration from the environment, applying defaults matching
// the local development stack.
func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "index-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "cloudsec_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "cloudsec_password"),
		DBName:     getEnv("DB_NAME", "cloudsec_db"),

		OllamaURL:            getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaTimeoutSeconds: getEnvInt("OLLAMA_TIMEOUT", 400),
		EmbeddingModel:       getEnv("EMBEDDING_MODEL", "all-minilm"),

		AnalystModel:   getEnv("ANALYST_MODEL", "qwen2.5:1.5b"),
		ArchitectModel: getEnv("ARCHITECT_MODEL", "llama3.2:3b"),
		ReviewerModel:  getEnv("REVIEWER_MODEL", "llama3.2:3b"),
		ArbiterModel:   getEnv("ARBITER_MODEL", "llama3.2:3b"),

		SimilarityThreshold: getEnvFloat("RAG_SIMILARITY_THRESHOLD", 0.8),
		DefaultTopK:         getEnvInt("RAG_DEFAULT_TOP_K", 5),
		MaxCritiqueChars:    getEnvInt("REVIEWER_MAX_CRITIQUE_CHARS", 5000),
		PromptTemplateDir:   getEnv("PROMPT_TEMPLATE_DIR", ""),
		AnswerCacheSize:     getEnvInt("ANSWER_CACHE_SIZE", 128),
		AnswerCacheTTLMin:   getEnvInt("ANSWER_CACHE_TTL_MINUTES", 60),
		ClassifierMaxRPS:    getEnvFloat("CLASSIFIER_MAX_RPS", 5),
		OTelEnabled:         getEnv("OTEL_ENABLED", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
