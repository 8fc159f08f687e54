package geminiapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"sweetsteps/logger"
	"sweetsteps/modelapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCompleteRequestsJSONMimeType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cfg, _ := body["generationConfig"].(map[string]any)
		assert.Equal(t, "application/json", cfg["responseMimeType"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"name\":\"n\"}"}]}}]}`))
	}))
	defer server.Close()

	g, err := Connect(context.Background(), GeminiConnectProps{
		Logger:  logger.Wrap(zaptest.NewLogger(t)),
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	out, err := g.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"n"}`, out)
}

func TestCompleteServerErrorIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
	}))
	defer server.Close()

	g, err := Connect(context.Background(), GeminiConnectProps{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), "sys", "usr")
	var te *modelapi.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, modelapi.PROVIDER_GEMINI, te.Provider)
}

func TestCompleteLive(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY environment variable not set, skipping test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	g, err := Connect(ctx, GeminiConnectProps{APIKey: apiKey})
	require.NoError(t, err)

	out, err := g.Complete(ctx, `Reply with the JSON object {"ok": true}.`, "ping")
	require.NoError(t, err)
	t.Logf("Response received: %s", out)
}
