// Package openai implements the OpenAI chat completions agent.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/helixir/research-desk/internal/agents"
	"github.com/helixir/research-desk/internal/domain"
)

const (
	// DefaultModel is used when neither the request nor the stored agent names one.
	DefaultModel = "gpt-4o"

	// forcedTemperature is sent on every call regardless of the request.
	// TODO(agents): honour Request.Temperature once reasoning models that
	// reject other values are filtered out by model name.
	forcedTemperature = 1
)

// Agent calls the OpenAI Chat Completions API.
type Agent struct {
	client *goopenai.Client
	deps   agents.Deps
	logger zerolog.Logger
}

var _ agents.Agent = (*Agent)(nil)

// New creates an OpenAI agent. It fails when no API key is configured.
func New(_ context.Context, deps agents.Deps) (agents.Agent, error) {
	a, err := NewAgent(deps)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// NewAgent creates an OpenAI agent with a concrete return type.
func NewAgent(deps agents.Deps) (*Agent, error) {
	if strings.TrimSpace(deps.APIKey) == "" {
		return nil, domain.NewMissingKeyError(domain.AgentOpenAI)
	}

	config := goopenai.DefaultConfig(deps.APIKey)
	if deps.BaseURL != "" {
		config.BaseURL = strings.TrimRight(deps.BaseURL, "/")
	}

	return &Agent{
		client: goopenai.NewClientWithConfig(config),
		deps:   deps,
		logger: deps.Logger.With().Str("agent", domain.AgentOpenAI).Logger(),
	}, nil
}

// Slug returns the provider identifier.
func (a *Agent) Slug() string {
	return domain.AgentOpenAI
}

// GetLLMResponse sends a system and user message pair. Every failure is
// reported as an error Result.
func (a *Agent) GetLLMResponse(ctx context.Context, req agents.Request) (agents.Result, error) {
	if !req.HasUser() {
		return agents.Err(agents.ErrEmptyUser), nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.deps.TimeoutOr())
	defer cancel()

	model := a.deps.ModelFor(req, DefaultModel)
	if req.Temperature != nil && *req.Temperature != forcedTemperature {
		a.logger.Debug().Float64("requested", *req.Temperature).Msg("temperature overridden to 1")
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemOr(a.deps.SystemPrompt)},
			{Role: goopenai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: forcedTemperature,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		a.logger.Warn().Err(err).Str("model", model).Msg("chat completion failed")
		return agents.Err(fmt.Errorf("openai: %w", err)), nil
	}
	if len(resp.Choices) == 0 {
		return agents.Err(fmt.Errorf("openai: no response choices: %w", agents.ErrEmptyCompletion)), nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return agents.Err(fmt.Errorf("openai: %w", agents.ErrEmptyCompletion)), nil
	}
	return agents.Ok(text), nil
}
