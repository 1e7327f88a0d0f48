// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Responder settings
	ResponderProvider string
	WebhookURL        string
	WebhookSecret     string
	ResponderTimeout  time.Duration
	OpenAIAPIKey      string
	AnthropicAPIKey   string

	// Session settings
	JWTSecret  string
	SessionTTL time.Duration
	// Users is the demo credential table: "email:password" pairs,
	// comma separated.
	Users map[string]string

	// Workspace settings
	WorkspaceTTL time.Duration
	SeedDemo     bool

	// NATS settings
	NATSURL       string
	NATSToken     string
	EventsEnabled bool

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from the environment, consulting a local
// .env file first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Responder
		ResponderProvider: getEnv("RESPONDER_PROVIDER", "webhook"),
		WebhookURL:        getEnv("WEBHOOK_URL", "http://localhost:5678/webhook/chat"),
		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),
		ResponderTimeout:  getDurationEnv("RESPONDER_TIMEOUT", 60*time.Second),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),

		// Session
		JWTSecret:  getEnv("JWT_SECRET", "development-secret-change-in-production"),
		SessionTTL: getDurationEnv("SESSION_TTL", 24*time.Hour),
		Users:      parseUsers(getEnv("USERS", "demo@example.com:demo")),

		// Workspace
		WorkspaceTTL: getDurationEnv("WORKSPACE_TTL", 12*time.Hour),
		SeedDemo:     getBoolEnv("SEED_DEMO", false),

		// NATS
		NATSURL:       getEnv("NATS_URL", "nats://localhost:4222"),
		NATSToken:     getEnv("NATS_TOKEN", ""),
		EventsEnabled: getBoolEnv("EVENTS_ENABLED", false),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func parseUsers(raw string) map[string]string {
	users := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		email, password, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if ok && email != "" {
			users[email] = password
		}
	}
	return users
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
