package dispatch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/agents"
	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/observability"
	"github.com/helixir/research-desk/internal/retry"
)

// AgentConfig tunes the agent dispatcher.
type AgentConfig struct {
	// Timeout bounds one provider call.
	Timeout time.Duration

	// Retry governs retries of transient agent failures.
	Retry retry.Policy

	// SystemPrompt replaces agents.DefaultSystemPrompt when set.
	SystemPrompt string

	// BaseURLs overrides provider endpoints by slug.
	BaseURLs map[string]string
}

// AgentDispatcher routes generation requests to the active agent.
type AgentDispatcher struct {
	registry *agents.Registry
	lookup   Lookup
	cfg      AgentConfig
	metrics  Recorder
	logger   zerolog.Logger
}

// NewAgentDispatcher creates an agent dispatcher. A nil recorder discards metrics.
func NewAgentDispatcher(registry *agents.Registry, lookup Lookup, cfg AgentConfig, metrics Recorder, logger zerolog.Logger) *AgentDispatcher {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &AgentDispatcher{
		registry: registry,
		lookup:   lookup,
		cfg:      cfg,
		metrics:  metrics,
		logger:   observability.WithComponent(logger, "agent_dispatcher"),
	}
}

// ProcessQuery sends req to the active agent. It never fails: any error is
// rendered as "[AI Error: <message>]".
func (d *AgentDispatcher) ProcessQuery(ctx context.Context, req agents.Request) string {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, d.logger)

	slug, res, err := d.query(ctx, req)
	if slug == "" {
		slug = "unknown"
	}
	if err != nil {
		logger.Error().Err(err).Str("agent", slug).Msg("query failed")
		d.metrics.RecordLLMRequest(slug, "error", time.Since(start))
		return "[AI Error: " + err.Error() + "]"
	}

	outcome := "ok"
	if res.IsErr() {
		outcome = "provider_error"
	}
	d.metrics.RecordLLMRequest(slug, outcome, time.Since(start))
	return res.Display()
}

func (d *AgentDispatcher) query(ctx context.Context, req agents.Request) (slug string, res agents.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = agents.Result{}, fmt.Errorf("agent %q panicked: %v", slug, p)
		}
	}()

	rec, err := d.activeAgent(ctx)
	if err != nil {
		return "", agents.Result{}, err
	}
	slug = rec.Slug

	factory, ok := d.registry.Get(rec.Slug)
	if !ok {
		return rec.Slug, agents.Result{}, fmt.Errorf("%w: agent %q", domain.ErrUnsupportedProvider, rec.Slug)
	}

	model := rec.SelectedModel
	if req.Model != "" {
		model = req.Model
	}
	agent, err := factory(ctx, agents.Deps{
		APIKey:       rec.KeyValue,
		Model:        rec.SelectedModel,
		BaseURL:      d.cfg.BaseURLs[rec.Slug],
		Timeout:      d.cfg.Timeout,
		SystemPrompt: d.cfg.SystemPrompt,
		Logger:       observability.WithAgentContext(observability.LoggerFromContext(ctx, d.logger), rec.Slug, model),
	})
	if err != nil {
		return rec.Slug, agents.Result{}, fmt.Errorf("creating agent %q: %w", rec.Slug, err)
	}
	if c, ok := agent.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				d.logger.Warn().Err(cerr).Str("agent", rec.Slug).Msg("closing agent")
			}
		}()
	}

	err = retry.Do(ctx, d.cfg.Retry, agents.IsTransient, func(ctx context.Context) error {
		r, err := agent.GetLLMResponse(ctx, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return rec.Slug, agents.Result{}, err
	}
	return rec.Slug, res, nil
}

// activeAgent returns the full record of the single active agent.
func (d *AgentDispatcher) activeAgent(ctx context.Context) (*domain.AIAgent, error) {
	all, err := d.lookup.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}

	var active *domain.AIAgent
	for i := range all {
		if !all[i].IsActive {
			continue
		}
		if active != nil {
			d.logger.Warn().Str("agent", all[i].Slug).Str("using", active.Slug).Msg("more than one active agent")
			continue
		}
		active = &all[i]
	}
	if active == nil {
		return nil, fmt.Errorf("%w: no agent is active", domain.ErrNoActiveProvider)
	}

	rec, err := d.lookup.GetAgentBySlug(ctx, active.Slug)
	if err != nil {
		return nil, fmt.Errorf("loading agent %q: %w", active.Slug, err)
	}
	return rec, nil
}
