// Package agents defines the contract shared by the LLM provider adapters.
//
// Adapters never fail past their boundary for ordinary provider errors: a
// bad key, a malformed completion or an empty prompt all come back as an
// error Result. The Go error return is reserved for transient failures the
// caller may retry.
package agents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSystemPrompt is used when a request carries no system text.
const DefaultSystemPrompt = "You are a helpful research assistant."

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 120 * time.Second

var (
	// ErrEmptyUser is returned in a Result when the user prompt is blank.
	ErrEmptyUser = errors.New("user prompt is required")

	// ErrEmptyCompletion is returned in a Result when the provider answered
	// without any text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Request is a single-turn generation request.
type Request struct {
	System      string   `json:"system,omitempty"`
	User        string   `json:"user"`
	Temperature *float64 `json:"temperature,omitempty"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// SystemOr returns the request's system text, or def when it is blank.
func (r Request) SystemOr(def string) string {
	if s := strings.TrimSpace(r.System); s != "" {
		return s
	}
	if def == "" {
		return DefaultSystemPrompt
	}
	return def
}

// HasUser reports whether the request carries a non-blank user prompt.
func (r Request) HasUser() bool {
	return strings.TrimSpace(r.User) != ""
}

// Result is either generated text or a provider error.
type Result struct {
	text string
	err  error
}

// Ok wraps generated text. Surrounding whitespace is trimmed.
func Ok(text string) Result {
	return Result{text: strings.TrimSpace(text)}
}

// Err wraps a provider failure.
func Err(err error) Result {
	if err == nil {
		err = ErrEmptyCompletion
	}
	return Result{err: err}
}

// Text returns the generated text, empty for error results.
func (r Result) Text() string { return r.text }

// Err returns the failure, nil for text results.
func (r Result) Err() error { return r.err }

// IsErr reports whether the result holds a failure.
func (r Result) IsErr() bool { return r.err != nil }

// Display renders the result as the string shown to users.
func (r Result) Display() string {
	if r.err != nil {
		return "[Error generating LLM response: " + r.err.Error() + "]"
	}
	return r.text
}

// Agent is an LLM provider adapter.
//
// An agent that holds connections may also implement io.Closer. Agents are
// built per call, and the caller closes them once the call returns.
type Agent interface {
	// Slug returns the provider identifier.
	Slug() string

	// GetLLMResponse generates a completion for req. The error is non-nil
	// only for transient failures; see IsTransient.
	GetLLMResponse(ctx context.Context, req Request) (Result, error)
}

// Deps carries what an adapter needs at construction time.
type Deps struct {
	APIKey       string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	SystemPrompt string
	Logger       zerolog.Logger
}

// ModelFor picks the request model, then the configured model, then def.
func (d Deps) ModelFor(req Request, def string) string {
	if m := strings.TrimSpace(req.Model); m != "" {
		return m
	}
	if m := strings.TrimSpace(d.Model); m != "" {
		return m
	}
	return def
}

// TimeoutOr returns the configured timeout or DefaultTimeout.
func (d Deps) TimeoutOr() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

// Factory builds an Agent. Factories fail with domain.ErrMissingAPIKey when
// no key is configured.
type Factory func(ctx context.Context, deps Deps) (Agent, error)
