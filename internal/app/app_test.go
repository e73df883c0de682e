package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/agents"
	"github.com/helixir/research-desk/internal/config"
	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:           config.DriverSQLite,
			SQLitePath:       filepath.Join(t.TempDir(), "desk.db"),
			MigrationAutoRun: true,
		},
		Search: config.SearchConfig{
			Timeout:           time.Minute,
			DefaultMaxResults: 7,
			DefaultRetriever:  domain.RetrieverExa,
			UserAgent:         "desk-test/1.0",
			Mailto:            "ops@example.org",
		},
		Retrievers: map[string]config.RetrieverConfig{
			domain.RetrieverSemanticScholar: {
				BaseURL:     "http://127.0.0.1:9/",
				MinInterval: 2 * time.Second,
				MaxRetries:  2,
				RetryDelay:  500 * time.Millisecond,
				MaxResults:  25,
			},
		},
		Agents: config.AgentsConfig{
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
			RetryDelay:  10 * time.Millisecond,
			Claude:      config.AgentEndpoint{BaseURL: "http://claude.local"},
		},
	}
}

func TestRetrieverDeps(t *testing.T) {
	cfg := testConfig(t)

	t.Run("overrides from the retriever section", func(t *testing.T) {
		deps := RetrieverDeps(cfg, domain.RetrieverSemanticScholar)

		assert.Equal(t, "http://127.0.0.1:9/", deps.BaseURL)
		assert.Equal(t, 25, deps.MaxResults)
		assert.Equal(t, 2*time.Second, deps.HTTP.MinInterval)
		assert.Equal(t, 3, deps.HTTP.Retry.MaxAttempts)
		assert.Equal(t, 500*time.Millisecond, deps.HTTP.Retry.BaseDelay)
		assert.Equal(t, "desk-test/1.0", deps.HTTP.UserAgent)
		assert.Equal(t, "ops@example.org", deps.Mailto)
	})

	t.Run("unset section keeps adapter defaults", func(t *testing.T) {
		deps := RetrieverDeps(cfg, domain.RetrieverArXiv)

		assert.Empty(t, deps.BaseURL)
		assert.Equal(t, 7, deps.MaxResults)
		assert.Zero(t, deps.HTTP.Retry.MaxAttempts)
		assert.Zero(t, deps.HTTP.RateLimit)
		assert.Equal(t, domain.RetrieverArXiv, deps.HTTP.Source)
	})
}

func TestSearchConfig(t *testing.T) {
	sc := SearchConfig(testConfig(t))

	assert.Equal(t, time.Minute, sc.Timeout)
	assert.Equal(t, domain.RetrieverExa, sc.DefaultRetriever)
	assert.Len(t, sc.Deps, len(config.RetrieverSlugs))
	assert.IsType(t, retrievers.Deps{}, sc.Deps[domain.RetrieverNCBI])
}

func TestAgentConfig(t *testing.T) {
	cfg := testConfig(t)

	ac := AgentConfig(cfg)
	assert.Equal(t, 30*time.Second, ac.Timeout)
	assert.Equal(t, 3, ac.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, ac.Retry.BaseDelay)
	assert.Equal(t, map[string]string{domain.AgentClaude: "http://claude.local"}, ac.BaseURLs)

	cfg.Agents.MaxAttempts = 0
	assert.Equal(t, 1, AgentConfig(cfg).Retry.MaxAttempts)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := Open(ctx, cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Ping(ctx))
	require.NotNil(t, a.Search)
	require.NotNil(t, a.Agents)

	t.Run("empty store yields no active agent", func(t *testing.T) {
		out := a.Agents.ProcessQuery(ctx, agents.Request{User: "hello"})
		assert.Regexp(t, `^\[AI Error:`, out)
	})

	t.Run("empty store yields empty search", func(t *testing.T) {
		assert.Empty(t, a.Search.ProcessSearch(ctx, []string{"graphene"}, retrievers.Options{}))
	})

	t.Run("close is idempotent", func(t *testing.T) {
		b, err := Open(ctx, cfg, nil, zerolog.Nop())
		require.NoError(t, err)
		b.Close()
		assert.NotPanics(t, b.Close)
	})
}

func TestOpen_BadSQLitePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "missing", "desk.db")
	cfg.Database.MigrationAutoRun = false

	_, err := Open(context.Background(), cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestPing_Uninitialized(t *testing.T) {
	assert.Error(t, (&App{}).Ping(context.Background()))
}
