package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixir/research-desk/internal/agents/claude"
	"github.com/helixir/research-desk/internal/agents/gemini"
	"github.com/helixir/research-desk/internal/agents/openai"
	"github.com/helixir/research-desk/internal/config"
	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/repository"
)

// builtinModels lists the models offered for each agent, default first.
var builtinModels = map[string][]string{
	domain.AgentOpenAI: {openai.DefaultModel, "gpt-4o-mini", "gpt-4-turbo"},
	domain.AgentClaude: {claude.DefaultModel, "claude-3-5-haiku-latest", "claude-3-opus-latest"},
	domain.AgentGemini: {gemini.DefaultModel, "gemini-1.5-pro"},
}

// SeedReport describes what Seed wrote.
type SeedReport struct {
	Agents     []string
	Retrievers []string
	// Activated is the agent made active by this run, if any.
	Activated string
}

// Seed makes sure every built-in agent and retriever has a stored record.
//
// Keys come from keys, indexed by slug; an absent key keeps whatever is
// stored. New retrievers start active. Existing records keep their active
// flag and selected model. When activate is non-empty that agent becomes the
// active one; otherwise, if no agent is active, the first agent holding a
// key is activated.
func Seed(ctx context.Context, store repository.ProviderRepository, keys map[string]string, activate string) (SeedReport, error) {
	var report SeedReport

	for _, slug := range config.AgentSlugs {
		agent, err := store.GetAgentBySlug(ctx, slug)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			models := builtinModels[slug]
			agent = &domain.AIAgent{Slug: slug, AvailableModels: models}
			if len(models) > 0 {
				agent.SelectedModel = models[0]
			}
		case err != nil:
			return report, fmt.Errorf("load agent %q: %w", slug, err)
		}
		if key, ok := keys[slug]; ok && key != "" {
			agent.KeyValue = key
		}
		if len(agent.AvailableModels) == 0 {
			agent.AvailableModels = builtinModels[slug]
		}
		if err := store.UpsertAgent(ctx, agent); err != nil {
			return report, fmt.Errorf("seed agent %q: %w", slug, err)
		}
		report.Agents = append(report.Agents, slug)
	}

	for _, slug := range config.RetrieverSlugs {
		ret, err := store.GetRetrieverBySlug(ctx, slug)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			ret = &domain.SearchRetriever{Slug: slug, IsActive: true, Type: domain.RetrieverTypeSearch}
		case err != nil:
			return report, fmt.Errorf("load retriever %q: %w", slug, err)
		}
		if key, ok := keys[slug]; ok && key != "" {
			ret.KeyValue = key
		}
		if err := store.UpsertRetriever(ctx, ret); err != nil {
			return report, fmt.Errorf("seed retriever %q: %w", slug, err)
		}
		report.Retrievers = append(report.Retrievers, slug)
	}

	if activate == "" {
		var err error
		activate, err = pickActive(ctx, store)
		if err != nil {
			return report, err
		}
	}
	if activate != "" {
		if err := store.ActivateAgent(ctx, activate); err != nil {
			return report, fmt.Errorf("activate agent %q: %w", activate, err)
		}
		report.Activated = activate
	}
	return report, nil
}

// pickActive returns the first keyed agent when none is active, or "".
func pickActive(ctx context.Context, store repository.ProviderReader) (string, error) {
	all, err := store.ListAgents(ctx)
	if err != nil {
		return "", fmt.Errorf("list agents: %w", err)
	}
	byslug := make(map[string]domain.AIAgent, len(all))
	for _, a := range all {
		if a.IsActive {
			return "", nil
		}
		byslug[a.Slug] = a
	}
	for _, slug := range config.AgentSlugs {
		if a, ok := byslug[slug]; ok && a.HasKey() {
			return slug, nil
		}
	}
	return "", nil
}
