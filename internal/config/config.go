package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// Storage
	ChatsDir  string
	SkillsDir string
	// Gateway configuration
	GatewayBaseURL  string
	DefaultModel    string
	ExtractionModel string
	// Attachment limits (0 = unlimited)
	MaxAttachmentBytes int64
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		ChatsDir:    getEnv("CHATS_DIR", "chats"),
		SkillsDir:   getEnv("SKILLS_DIR", "skills"),
		// Gateway configuration
		GatewayBaseURL:  getEnv("GATEWAY_BASE_URL", "https://gen.pollinations.ai"),
		DefaultModel:    getEnv("DEFAULT_MODEL", "claude-large"),
		ExtractionModel: getEnv("EXTRACTION_MODEL", "claude-large"),
		// Attachment limits
		MaxAttachmentBytes: getEnvInt64("MAX_ATTACHMENT_BYTES", 0),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
