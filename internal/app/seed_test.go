package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/agents/openai"
	"github.com/helixir/research-desk/internal/config"
	"github.com/helixir/research-desk/internal/domain"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()

	a, err := Open(ctx, testConfig(t), nil, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	t.Run("first run creates every provider", func(t *testing.T) {
		report, err := Seed(ctx, a.Store, map[string]string{
			domain.AgentClaude: "sk-ant",
			domain.RetrieverExa: "exa-key",
		}, "")
		require.NoError(t, err)

		assert.Equal(t, config.AgentSlugs, report.Agents)
		assert.Equal(t, config.RetrieverSlugs, report.Retrievers)
		assert.Equal(t, domain.AgentClaude, report.Activated)

		openaiRec, err := a.Store.GetAgentBySlug(ctx, domain.AgentOpenAI)
		require.NoError(t, err)
		assert.Equal(t, openai.DefaultModel, openaiRec.SelectedModel)
		assert.False(t, openaiRec.HasKey())

		exa, err := a.Store.GetRetrieverBySlug(ctx, domain.RetrieverExa)
		require.NoError(t, err)
		assert.Equal(t, "exa-key", exa.KeyValue)
		assert.True(t, exa.IsActive)
	})

	t.Run("second run keeps keys, flags and the active agent", func(t *testing.T) {
		require.NoError(t, a.Store.SetRetrieverActive(ctx, domain.RetrieverPLOS, false))

		report, err := Seed(ctx, a.Store, map[string]string{domain.AgentOpenAI: "sk-openai"}, "")
		require.NoError(t, err)
		assert.Empty(t, report.Activated)

		claudeRec, err := a.Store.GetAgentBySlug(ctx, domain.AgentClaude)
		require.NoError(t, err)
		assert.Equal(t, "sk-ant", claudeRec.KeyValue)
		assert.True(t, claudeRec.IsActive)

		plos, err := a.Store.GetRetrieverBySlug(ctx, domain.RetrieverPLOS)
		require.NoError(t, err)
		assert.False(t, plos.IsActive)
	})

	t.Run("explicit activation switches agents", func(t *testing.T) {
		report, err := Seed(ctx, a.Store, nil, domain.AgentOpenAI)
		require.NoError(t, err)
		assert.Equal(t, domain.AgentOpenAI, report.Activated)

		all, err := a.Store.ListAgents(ctx)
		require.NoError(t, err)
		for _, ag := range all {
			assert.Equal(t, ag.Slug == domain.AgentOpenAI, ag.IsActive, ag.Slug)
		}
	})

	t.Run("unknown agent to activate", func(t *testing.T) {
		_, err := Seed(ctx, a.Store, nil, "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSeed_NoKeysLeavesAgentsInactive(t *testing.T) {
	ctx := context.Background()

	a, err := Open(ctx, testConfig(t), nil, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	report, err := Seed(ctx, a.Store, nil, "")
	require.NoError(t, err)
	assert.Empty(t, report.Activated)

	all, err := a.Store.ListAgents(ctx)
	require.NoError(t, err)
	for _, ag := range all {
		assert.False(t, ag.IsActive)
	}
}
