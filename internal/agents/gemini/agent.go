// Package gemini implements the Google Gemini agent.
//
// Gemini answers fall into four classes: text, an explicit prompt block, a
// non-STOP finish (safety, recitation), and failures. Blocks and stops are
// returned as bracketed text results. Failures that look transient are
// returned as errors so the caller can retry; the rest become error results.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/helixir/research-desk/internal/agents"
	"github.com/helixir/research-desk/internal/domain"
)

// DefaultModel is used when neither the request nor the stored agent names one.
const DefaultModel = "gemini-1.5-flash"

// errMissingText marks a candidate that carried no text parts.
var errMissingText = errors.New("response has no text")

// errMissingResponse marks a call that returned neither a response nor an error.
var errMissingResponse = errors.New("missing response")

// transientMarkers are substrings of provider errors worth retrying.
var transientMarkers = []string{"503", "network", "timeout"}

// callConfig is the per-call model configuration.
type callConfig struct {
	Model       string
	System      string
	Temperature *float32
	MaxTokens   int32
	Safety      []*genai.SafetySetting
}

// contentGenerator is the slice of the SDK the agent uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, cfg callConfig, prompt string) (*genai.GenerateContentResponse, error)
	Close() error
}

// sdkGenerator adapts *genai.Client to contentGenerator.
type sdkGenerator struct {
	client *genai.Client
}

func (g sdkGenerator) GenerateContent(ctx context.Context, cfg callConfig, prompt string) (*genai.GenerateContentResponse, error) {
	model := g.client.GenerativeModel(cfg.Model)
	model.SafetySettings = cfg.Safety
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(cfg.System)}}
	if cfg.Temperature != nil {
		model.SetTemperature(*cfg.Temperature)
	}
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(cfg.MaxTokens)
	}
	return model.GenerateContent(ctx, genai.Text(prompt))
}

func (g sdkGenerator) Close() error {
	return g.client.Close()
}

// Agent calls the Gemini API.
type Agent struct {
	gen    contentGenerator
	deps   agents.Deps
	logger zerolog.Logger
}

var (
	_ agents.Agent = (*Agent)(nil)
	_ io.Closer    = (*Agent)(nil)
)

// New creates a Gemini agent. It fails when no API key is configured.
func New(ctx context.Context, deps agents.Deps) (agents.Agent, error) {
	if strings.TrimSpace(deps.APIKey) == "" {
		return nil, domain.NewMissingKeyError(domain.AgentGemini)
	}

	opts := []option.ClientOption{option.WithAPIKey(deps.APIKey)}
	if deps.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(deps.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newAgent(sdkGenerator{client: client}, deps), nil
}

func newAgent(gen contentGenerator, deps agents.Deps) *Agent {
	return &Agent{
		gen:    gen,
		deps:   deps,
		logger: deps.Logger.With().Str("agent", domain.AgentGemini).Logger(),
	}
}

// Slug returns the provider identifier.
func (a *Agent) Slug() string {
	return domain.AgentGemini
}

// Close releases the underlying SDK client.
func (a *Agent) Close() error {
	return a.gen.Close()
}

// SafetySettings blocks medium-and-above harm in every category.
func SafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, &genai.SafetySetting{Category: c, Threshold: genai.HarmBlockMediumAndAbove})
	}
	return out
}

// GetLLMResponse generates content for req.
func (a *Agent) GetLLMResponse(ctx context.Context, req agents.Request) (agents.Result, error) {
	if !req.HasUser() {
		return agents.Err(agents.ErrEmptyUser), nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.deps.TimeoutOr())
	defer cancel()

	cfg := callConfig{
		Model:  a.deps.ModelFor(req, DefaultModel),
		System: req.SystemOr(a.deps.SystemPrompt),
		Safety: SafetySettings(),
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		cfg.MaxTokens = int32(req.MaxTokens)
	}

	resp, err := a.gen.GenerateContent(ctx, cfg, req.User)
	res, err := classify(resp, err)
	if err != nil {
		a.logger.Warn().Err(err).Str("model", cfg.Model).Msg("transient generation failure")
		return agents.Result{}, agents.NewTransientError(domain.AgentGemini, err)
	}
	if res.IsErr() {
		a.logger.Warn().Err(res.Err()).Str("model", cfg.Model).Msg("generation failed")
	}
	return res, nil
}

// classify maps an SDK outcome to a result, or to an error when the failure
// is worth retrying.
func classify(resp *genai.GenerateContentResponse, err error) (agents.Result, error) {
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			if blocked.PromptFeedback != nil {
				return blockedResult(blocked.PromptFeedback.BlockReason), nil
			}
			if blocked.Candidate != nil {
				return stoppedResult(blocked.Candidate.FinishReason), nil
			}
		}
		if isTransient(err) {
			return agents.Result{}, err
		}
		return agents.Err(fmt.Errorf("gemini: %w", err)), nil
	}

	if resp == nil {
		return agents.Result{}, errMissingResponse
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return blockedResult(fb.BlockReason), nil
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return agents.Result{}, errMissingText
	}

	cand := resp.Candidates[0]
	if cand.FinishReason != genai.FinishReasonUnspecified && cand.FinishReason != genai.FinishReasonStop {
		return stoppedResult(cand.FinishReason), nil
	}

	text := candidateText(cand)
	if text == "" {
		return agents.Result{}, errMissingText
	}
	return agents.Ok(text), nil
}

func candidateText(c *genai.Candidate) string {
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func blockedResult(reason genai.BlockReason) agents.Result {
	return agents.Ok("[blocked: " + enumName(reason.String(), "BlockReason") + "]")
}

func stoppedResult(reason genai.FinishReason) agents.Result {
	return agents.Ok("[stopped: " + enumName(reason.String(), "FinishReason") + "]")
}

// enumName turns "FinishReasonSafety" into "SAFETY".
func enumName(s, prefix string) string {
	return strings.ToUpper(strings.TrimPrefix(s, prefix))
}
