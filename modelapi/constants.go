package modelapi

import "time"

const (
	SYSTEM = "system"
	USER   = "user"
)

const (
	PROVIDER_GROQ   = "groq"
	PROVIDER_OPENAI = "openai"
	PROVIDER_GEMINI = "gemini"
)

const (
	GROQ_BASE_URL   = "https://api.groq.com/openai/v1"
	OPENAI_BASE_URL = "https://api.openai.com/v1"

	GROQ_DEFAULT_MODEL   = "llama-3.1-8b-instant"
	OPENAI_DEFAULT_MODEL = "gpt-4o-mini"
	GEMINI_DEFAULT_MODEL = "gemini-2.5-flash"
)

// Sampling temperature used for every coaching generation.
const TEMPERATURE = 0.7

const DEFAULT_ATTEMPT_TIMEOUT = 20 * time.Second

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case PROVIDER_OPENAI:
		return OPENAI_DEFAULT_MODEL
	case PROVIDER_GEMINI:
		return GEMINI_DEFAULT_MODEL
	default:
		return GROQ_DEFAULT_MODEL
	}
}
