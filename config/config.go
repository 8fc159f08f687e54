package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"sweetsteps/modelapi"

	"github.com/joho/godotenv"
)

const defaultPort = "80"

const (
	minAttemptTimeout = time.Second
	maxAttemptTimeout = 60 * time.Second
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Port       string
	Production bool

	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	AttemptTimeout time.Duration

	AllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	port := getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	provider := strings.ToLower(strings.TrimSpace(getenv("LLM_PROVIDER")))
	if provider == "" {
		provider = modelapi.PROVIDER_GROQ
	}

	cfg := &Config{
		Port:           port,
		Production:     getenv("PRODUCTION") != "",
		Provider:       provider,
		Model:          getenv("LLM_MODEL"),
		AttemptTimeout: modelapi.DEFAULT_ATTEMPT_TIMEOUT,
		AllowedOrigins: []string{"*"},
	}

	switch provider {
	case modelapi.PROVIDER_GROQ:
		cfg.APIKey = getenv("GROQ_API_KEY")
		cfg.BaseURL = getenv("GROQ_BASE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = modelapi.GROQ_BASE_URL
		}
	case modelapi.PROVIDER_OPENAI:
		cfg.APIKey = getenv("OPENAI_API_KEY")
		cfg.BaseURL = getenv("OPENAI_BASE_URL")
		if cfg.BaseURL == "" {
			cfg.BaseURL = modelapi.OPENAI_BASE_URL
		}
	case modelapi.PROVIDER_GEMINI:
		cfg.APIKey = getenv("GEMINI_API_KEY")
		cfg.BaseURL = getenv("GEMINI_BASE_URL")
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}

	if cfg.Model == "" {
		cfg.Model = modelapi.DefaultModel(provider)
	}

	if raw := getenv("LLM_ATTEMPT_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse LLM_ATTEMPT_TIMEOUT: %w", err)
		}
		cfg.AttemptTimeout = clampTimeout(d)
	}

	if raw := getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}

	return cfg, nil
}

func clampTimeout(d time.Duration) time.Duration {
	if d < minAttemptTimeout {
		return minAttemptTimeout
	}
	if d > maxAttemptTimeout {
		return maxAttemptTimeout
	}
	return d
}
