package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port              string
	CORSAllowOrigin   []string
	DatabaseURL       string
	Env               string
	LogLevel          string
	RedisAddr         string
	RedisPassword     string
	UsageStore        string
	UsageExpiryPolicy string
	TiersConfigPath   string
	DefaultTier       string
	MockUserID        string
	LLMProvider       string
	LLMModel          string
	LLMVisionModel    string
	LLMPreviewModel   string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAITimeout     time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	model := getEnv("LLM_MODEL", "gpt-4o-mini")

	return Config{
		Port:              getEnv("PORT", "8080"),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		DatabaseURL:       dbURL,
		Env:               env,
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		UsageStore:        normalizeUsageStore(getEnv("USAGE_STORE", ""), dbURL),
		UsageExpiryPolicy: normalizeExpiryPolicy(getEnv("USAGE_EXPIRY_POLICY", "renew")),
		TiersConfigPath:   getEnv("TIERS_CONFIG_PATH", ""),
		DefaultTier:       getEnv("DEFAULT_TIER", "free"),
		MockUserID:        getEnv("MOCK_USER_ID", "user-123"),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:          model,
		LLMVisionModel:    getEnv("LLM_VISION_MODEL", model),
		LLMPreviewModel:   getEnv("LLM_PREVIEW_MODEL", model),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAITimeout:     time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 120)) * time.Second,
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 10),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeUsageStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "memory":
		return "memory"
	case "postgres", "pg":
		return "postgres"
	case "redis":
		return "redis"
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return "memory"
}

func normalizeExpiryPolicy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return "strict"
	default:
		return "renew"
	}
}
