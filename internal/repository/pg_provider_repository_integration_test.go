//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/helixir/research-desk/internal/config"
	"github.com/helixir/research-desk/internal/database"
	"github.com/helixir/research-desk/internal/domain"
)

// startPostgres runs a throwaway PostgreSQL container with the schema applied.
func startPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("research_desk"),
		postgres.WithUsername("researchdesk"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Driver:            config.DriverPostgres,
		Host:              host,
		Port:              port.Int(),
		User:              "researchdesk",
		Password:          "password",
		Name:              "research_desk",
		SSLMode:           config.SSLModeDisable,
		MaxConns:          4,
		MinConns:          1,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   time.Minute,
		HealthCheckPeriod: 30 * time.Second,
		ConnectTimeout:    10 * time.Second,
	}

	db, err := database.New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	m, err := database.NewPostgresMigrator(db, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	return db
}

func TestPgProviderRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewPgProviderRepository(startPostgres(t))

	for _, slug := range []string{domain.AgentClaude, domain.AgentGemini, domain.AgentOpenAI} {
		require.NoError(t, repo.UpsertAgent(ctx, &domain.AIAgent{Slug: slug, AvailableModels: []string{slug + "-model"}}))
	}

	t.Run("activation is exclusive", func(t *testing.T) {
		require.NoError(t, repo.ActivateAgent(ctx, domain.AgentClaude))
		require.NoError(t, repo.ActivateAgent(ctx, domain.AgentOpenAI))

		agents, err := repo.ListAgents(ctx)
		require.NoError(t, err)

		var active []string
		for _, a := range agents {
			if a.IsActive {
				active = append(active, a.Slug)
			}
		}
		assert.Equal(t, []string{domain.AgentOpenAI}, active)
	})

	t.Run("models round trip as text array", func(t *testing.T) {
		got, err := repo.GetAgentBySlug(ctx, domain.AgentGemini)
		require.NoError(t, err)
		assert.Equal(t, []string{"gemini-model"}, got.AvailableModels)
	})

	t.Run("retrievers", func(t *testing.T) {
		require.NoError(t, repo.UpsertRetriever(ctx, &domain.SearchRetriever{Slug: domain.RetrieverCORE, KeyValue: "k", IsActive: true}))
		require.NoError(t, repo.SetRetrieverActive(ctx, domain.RetrieverCORE, false))

		got, err := repo.GetRetrieverBySlug(ctx, domain.RetrieverCORE)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.Equal(t, "k", got.KeyValue)
	})
}
