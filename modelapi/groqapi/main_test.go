package groqapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"sweetsteps/logger"
	"sweetsteps/modelapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestGroq(t *testing.T, url string) *Groq {
	t.Helper()
	return Connect(context.Background(), GroqConnectProps{
		Logger:  logger.Wrap(zaptest.NewLogger(t)),
		APIKey:  "test-key",
		BaseURL: url,
	})
}

func TestCompleteSendsJSONModeRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body ChatRequestInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, modelapi.GROQ_DEFAULT_MODEL, body.Model)
		assert.InDelta(t, 0.7, body.Temperature, 1e-9)
		if assert.NotNil(t, body.ResponseFormat) {
			assert.Equal(t, "json_object", body.ResponseFormat.Type)
		}
		assert.Equal(t, []ChatCompletionInputMessage{
			{Role: modelapi.SYSTEM, Content: "sys"},
			{Role: modelapi.USER, Content: "usr"},
		}, body.Messages)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama","choices":[{"index":0,"message":{"role":"assistant","content":"{\"name\":\"x\"}"}}]}`))
	}))
	defer server.Close()

	out, err := newTestGroq(t, server.URL).Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"x"}`, out)
}

func TestCompleteNon2xxIsTransportError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer server.Close()

	_, err := newTestGroq(t, server.URL).Complete(context.Background(), "sys", "usr")
	require.Error(t, err)

	var te *modelapi.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "client must not retry on its own")
}

func TestCompleteEnvelopeFailures(t *testing.T) {
	cases := map[string]string{
		"malformed":      `not json`,
		"no choices":     `{"choices":[]}`,
		"empty content":  `{"choices":[{"message":{"content":"  "}}]}`,
		"upstream error": `{"error":{"message":"model decommissioned"}}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(payload))
			}))
			defer server.Close()

			_, err := newTestGroq(t, server.URL).Complete(context.Background(), "sys", "usr")
			var te *modelapi.TransportError
			require.True(t, errors.As(err, &te), "got %v", err)
		})
	}
}

func TestCompleteTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestGroq(t, server.URL).Complete(ctx, "sys", "usr")
	var te *modelapi.TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Timeout())
}

func TestCompleteWithoutAPIKey(t *testing.T) {
	g := Connect(context.Background(), GroqConnectProps{BaseURL: "http://127.0.0.1:1"})
	_, err := g.Complete(context.Background(), "sys", "usr")
	var te *modelapi.TransportError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Error(), "api key")
}

func TestCompleteLive(t *testing.T) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		t.Skip("GROQ_API_KEY environment variable not set, skipping test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	groq := Connect(ctx, GroqConnectProps{Logger: logger.Wrap(zaptest.NewLogger(t)), APIKey: apiKey})

	response, err := groq.Complete(ctx, `Reply with the JSON object {"ok": true}.`, "ping")
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(response), &out))
	t.Logf("Response received: %s", response)
}
