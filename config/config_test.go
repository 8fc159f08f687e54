package config

import (
	"testing"
	"time"

	"sweetsteps/modelapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"GROQ_API_KEY": "gk"}))
	require.NoError(t, err)

	assert.Equal(t, "80", cfg.Port)
	assert.False(t, cfg.Production)
	assert.Equal(t, modelapi.PROVIDER_GROQ, cfg.Provider)
	assert.Equal(t, "gk", cfg.APIKey)
	assert.Equal(t, modelapi.GROQ_BASE_URL, cfg.BaseURL)
	assert.Equal(t, modelapi.GROQ_DEFAULT_MODEL, cfg.Model)
	assert.Equal(t, 20*time.Second, cfg.AttemptTimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestFromEnvProviders(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		cfg, err := FromEnv(envMap(map[string]string{
			"LLM_PROVIDER":    "OpenAI",
			"OPENAI_API_KEY":  "ok",
			"OPENAI_BASE_URL": "https://api.deepinfra.com/v1/openai",
			"LLM_MODEL":       "meta-llama/Meta-Llama-3.1-8B-Instruct",
		}))
		require.NoError(t, err)
		assert.Equal(t, modelapi.PROVIDER_OPENAI, cfg.Provider)
		assert.Equal(t, "ok", cfg.APIKey)
		assert.Equal(t, "https://api.deepinfra.com/v1/openai", cfg.BaseURL)
		assert.Equal(t, "meta-llama/Meta-Llama-3.1-8B-Instruct", cfg.Model)
	})

	t.Run("gemini", func(t *testing.T) {
		cfg, err := FromEnv(envMap(map[string]string{"LLM_PROVIDER": "gemini", "GEMINI_API_KEY": "gem"}))
		require.NoError(t, err)
		assert.Equal(t, "gem", cfg.APIKey)
		assert.Equal(t, modelapi.GEMINI_DEFAULT_MODEL, cfg.Model)
		assert.Empty(t, cfg.BaseURL)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := FromEnv(envMap(map[string]string{"LLM_PROVIDER": "llamafile"}))
		assert.Error(t, err)
	})
}

func TestFromEnvAttemptTimeout(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"LLM_ATTEMPT_TIMEOUT": "15s"}))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.AttemptTimeout)

	cfg, err = FromEnv(envMap(map[string]string{"LLM_ATTEMPT_TIMEOUT": "5m"}))
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.AttemptTimeout)

	cfg, err = FromEnv(envMap(map[string]string{"LLM_ATTEMPT_TIMEOUT": "10ms"}))
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.AttemptTimeout)

	_, err = FromEnv(envMap(map[string]string{"LLM_ATTEMPT_TIMEOUT": "soon"}))
	assert.Error(t, err)
}

func TestFromEnvOriginsAndFlags(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":                 "8080",
		"PRODUCTION":           "1",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example ,",
	}))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Production)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}
