package config

import (
	"os"
	"time"
)

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// Router maps free-text answers onto the item bank (JSON output, deterministic)
	Router string `json:"router"`

	// Personalize writes the 4-week program text
	Personalize string `json:"personalize"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey    string       `json:"-"` // Never serialize
	Models    GeminiModels `json:"models"`
	TimeoutMS int          `json:"timeoutMs"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Models: GeminiModels{
			Router:      getEnvOrDefault("GEMINI_ROUTER_MODEL", "gemini-1.5-flash"),
			Personalize: getEnvOrDefault("GEMINI_PERSONALIZE_MODEL", "gemini-1.5-flash"),
		},
		TimeoutMS: 60000,
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// Timeout bounds a single Gemini request
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
