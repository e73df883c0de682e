// Package claude implements the Anthropic Messages API agent.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/agents"
	"github.com/helixir/research-desk/internal/domain"
)

const (
	// DefaultModel is used when neither the request nor the stored agent names one.
	DefaultModel = "claude-3-5-sonnet-latest"

	// DefaultMaxTokens is the completion budget when the request sets none.
	DefaultMaxTokens = 4096
)

// Agent calls the Anthropic Messages API.
type Agent struct {
	client *anthropic.Client
	deps   agents.Deps
	logger zerolog.Logger
}

var _ agents.Agent = (*Agent)(nil)

// New creates a Claude agent. It fails when no API key is configured.
func New(_ context.Context, deps agents.Deps) (agents.Agent, error) {
	a, err := NewAgent(deps)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// NewAgent creates a Claude agent with a concrete return type.
func NewAgent(deps agents.Deps) (*Agent, error) {
	if strings.TrimSpace(deps.APIKey) == "" {
		return nil, domain.NewMissingKeyError(domain.AgentClaude)
	}

	var opts []anthropic.ClientOption
	if deps.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(deps.BaseURL, "/")))
	}

	return &Agent{
		client: anthropic.NewClient(deps.APIKey, opts...),
		deps:   deps,
		logger: deps.Logger.With().Str("agent", domain.AgentClaude).Logger(),
	}, nil
}

// Slug returns the provider identifier.
func (a *Agent) Slug() string {
	return domain.AgentClaude
}

// GetLLMResponse sends the system and user text as one user message.
func (a *Agent) GetLLMResponse(ctx context.Context, req agents.Request) (agents.Result, error) {
	if !req.HasUser() {
		return agents.Err(agents.ErrEmptyUser), nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.deps.TimeoutOr())
	defer cancel()

	model := a.deps.ModelFor(req, DefaultModel)
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	msgReq := anthropic.MessagesRequest{
		Model: anthropic.Model(model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(Prompt(req, a.deps.SystemPrompt)),
				},
			},
		},
		MaxTokens: maxTokens,
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		msgReq.Temperature = &t
	}

	resp, err := a.client.CreateMessages(ctx, msgReq)
	if err != nil {
		a.logger.Warn().Err(err).Str("model", model).Msg("create message failed")
		return agents.Err(fmt.Errorf("claude: %w", err)), nil
	}

	var b strings.Builder
	for _, c := range resp.Content {
		if c.Text != nil {
			b.WriteString(*c.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return agents.Err(fmt.Errorf("claude: %w", agents.ErrEmptyCompletion)), nil
	}
	return agents.Ok(text), nil
}

// Prompt joins the system preamble and user text into a single message.
func Prompt(req agents.Request, defaultSystem string) string {
	return req.SystemOr(defaultSystem) + "\n\n" + strings.TrimSpace(req.User)
}
