package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Port              string
	DatabaseURL       string
	LLMProvider       string
	OpenAIAPIKey      string
	OpenAIModel       string
	AnthropicAPIKey   string
	AnthropicModel    string
	PineconeAPIKey    string
	PineconeIndexName string
	TranscribeURL     string
	AllowedOrigin     string
	LogLevel          string
	CapabilityTimeout time.Duration
	SessionIdleTTL    time.Duration
	Policy            *Policy
}

// Load reads ENV_FILE (or ./.env when present) into the process environment
// and builds the configuration from it.
func Load() (*Config, error) {
	if err := loadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8000"),
		DatabaseURL:       os.Getenv("DB_URL"),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		PineconeAPIKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndexName: getEnv("PINECONE_INDEX_NAME", "interview-question-bank"),
		TranscribeURL:     os.Getenv("TRANSCRIBE_URL"),
		AllowedOrigin:     getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Policy:            DefaultPolicy(),
	}

	var err error
	if cfg.CapabilityTimeout, err = getDuration("CAPABILITY_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", 2*time.Hour); err != nil {
		return nil, err
	}

	if roles := os.Getenv("NO_CODING_ROLES"); roles != "" {
		cfg.Policy.NoCodingRoles = splitList(roles)
	}

	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DB_URL environment variable is required")
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.CapabilityTimeout <= 0 {
		return fmt.Errorf("CAPABILITY_TIMEOUT must be positive")
	}

	return nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		return nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}

	// bare integers are seconds
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return time.Duration(secs) * time.Second, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
