package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the server and pipeline settings read from the environment
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string
	LogLevel  string

	ModelPath         string
	DecisionThreshold float64
	RelationThreshold float64
	MinConfidence     float64
	DedupPolicy       string
	RouteCacheTTL     time.Duration

	ClinicianUsername string
	ClinicianPassword string
	JWTSecret         string
	TokenTTL          time.Duration

	AI *AIConfig
}

// Load reads the configuration and validates thresholds
func Load() (*Config, error) {
	cfg := &Config{
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGO_DB", "divorcerisk"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ModelPath:         getEnv("MODEL_PATH", "models/divorce_xgb.json"),
		DedupPolicy:       getEnv("DEDUP_POLICY", "best"),
		ClinicianUsername: getEnv("CLINICIAN_USERNAME", "clinician"),
		ClinicianPassword: getEnv("CLINICIAN_PASSWORD", "clinician"),
		JWTSecret:         getEnv("JWT_SECRET", "change-me"),
		AI:                DefaultAIConfig(),
	}

	var err error
	if cfg.DecisionThreshold, err = getUnit("DECISION_THRESHOLD", 0.5); err != nil {
		return nil, err
	}
	if cfg.RelationThreshold, err = getUnit("RELATION_THRESHOLD", 0.65); err != nil {
		return nil, err
	}
	if cfg.MinConfidence, err = getUnit("MIN_CONFIDENCE", 0.70); err != nil {
		return nil, err
	}
	if cfg.RouteCacheTTL, err = getDuration("ROUTE_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AI.TimeoutMS, err = getInt("GEMINI_TIMEOUT_MS", cfg.AI.TimeoutMS); err != nil {
		return nil, err
	}
	if cfg.DedupPolicy != "best" && cfg.DedupPolicy != "avg" {
		return nil, fmt.Errorf("DEDUP_POLICY: want best or avg, got %q", cfg.DedupPolicy)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getUnit(key string, defaultVal float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("%s: %v outside [0,1]", key, v)
	}
	return v, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
