package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/agents"
	"github.com/helixir/research-desk/internal/domain"
)

const completionBody = `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-4o",
  "choices":[{"index":0,"message":{"role":"assistant","content":"  Transformers use attention.  "},"finish_reason":"stop"}],
  "usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`

func newTestAgent(t *testing.T, h http.HandlerFunc) *Agent {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	a, err := NewAgent(agents.Deps{APIKey: "sk-test", BaseURL: srv.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return a
}

// ---------------------------------------------------------------------------
// TestNew
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("missing key fails", func(t *testing.T) {
		t.Parallel()
		_, err := New(context.Background(), agents.Deps{})
		assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	})

	t.Run("with key", func(t *testing.T) {
		t.Parallel()
		a, err := New(context.Background(), agents.Deps{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, "openai", a.Slug())
	})
}

// ---------------------------------------------------------------------------
// TestAgent_GetLLMResponse
// ---------------------------------------------------------------------------

func TestAgent_GetLLMResponse(t *testing.T) {
	t.Parallel()

	t.Run("sends system and user with forced temperature", func(t *testing.T) {
		t.Parallel()
		a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gpt-4o-mini", body["model"])
			assert.Equal(t, 1.0, body["temperature"])

			msgs := body["messages"].([]any)
			require.Len(t, msgs, 2)
			assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
			assert.Equal(t, agents.DefaultSystemPrompt, msgs[0].(map[string]any)["content"])
			assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
			assert.Equal(t, "Explain transformers", msgs[1].(map[string]any)["content"])

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completionBody))
		})

		temp := 0.2
		res, err := a.GetLLMResponse(context.Background(), agents.Request{
			User:        "Explain transformers",
			Model:       "gpt-4o-mini",
			Temperature: &temp,
		})

		require.NoError(t, err)
		assert.False(t, res.IsErr())
		assert.Equal(t, "Transformers use attention.", res.Display())
	})

	t.Run("empty user is an error result without a call", func(t *testing.T) {
		t.Parallel()
		called := false
		a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		res, err := a.GetLLMResponse(context.Background(), agents.Request{User: "  "})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Display(), "[Error generating LLM response:"))
		assert.False(t, called)
	})

	t.Run("auth failure becomes error result", func(t *testing.T) {
		t.Parallel()
		a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
		})

		res, err := a.GetLLMResponse(context.Background(), agents.Request{User: "hi"})

		require.NoError(t, err)
		require.True(t, res.IsErr())
		assert.Contains(t, res.Display(), "Incorrect API key provided")
	})

	t.Run("no choices becomes error result", func(t *testing.T) {
		t.Parallel()
		a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
		})

		res, err := a.GetLLMResponse(context.Background(), agents.Request{User: "hi"})

		require.NoError(t, err)
		assert.ErrorIs(t, res.Err(), agents.ErrEmptyCompletion)
	})
}
