// Package retrievers defines the contract shared by literature search adapters.
//
// Each provider (arXiv, Crossref, Semantic Scholar, ...) lives in its own
// subpackage and implements Retriever. Adapters turn a provider response into
// canonical domain.Resource values and never fail a whole search because one
// query failed: the query is logged and contributes no results.
//
// Example usage:
//
//	r, _ := dblp.New(retrievers.Deps{Logger: logger})
//	resources, err := r.Search(ctx, retrievers.Params{
//		Queries: []string{"machine learning"},
//		Options: retrievers.Options{MaxResults: 10},
//	})
package retrievers

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/domain"
)

// DefaultMaxResults bounds results per query when the caller gives no limit.
const DefaultMaxResults = 10

// MaxResultsLimit is the largest per-query limit accepted from callers.
const MaxResultsLimit = 100

// Options carries the per-search knobs callers may set.
type Options struct {
	// Retriever selects an adapter by slug. Empty means "the active one".
	Retriever string `json:"retriever,omitempty"`

	// MaxResults bounds results per query.
	MaxResults int `json:"maxResults,omitempty"`

	// LinksPerQuery is an older spelling of MaxResults, used when MaxResults is zero.
	LinksPerQuery int `json:"linksPerQuery,omitempty"`

	// Exa-only knobs.
	UseAutoprompt *bool  `json:"useAutoprompt,omitempty"`
	Type          string `json:"type,omitempty"`
	Category      string `json:"category,omitempty"`
}

// Limit resolves the per-query result bound.
func (o Options) Limit(def int) int {
	switch {
	case o.MaxResults > 0:
		return o.MaxResults
	case o.LinksPerQuery > 0:
		return o.LinksPerQuery
	case def > 0:
		return def
	default:
		return DefaultMaxResults
	}
}

// Params is the input of a single adapter invocation.
type Params struct {
	ProjectTitle string
	Queries      []string
	Keywords     []string
	Options      Options
}

// Retriever is implemented by every literature search adapter.
type Retriever interface {
	// Search runs every query built from params sequentially and returns the
	// accumulated resources. Failed queries are logged and skipped; the only
	// error returned is context cancellation.
	Search(ctx context.Context, params Params) ([]domain.Resource, error)

	// Slug returns the identifier used in configuration and dispatch.
	Slug() string

	// Name returns a human-readable provider name.
	Name() string

	// IsEnabled reports whether the adapter has what it needs to query the
	// provider. A disabled adapter returns empty results.
	IsEnabled() bool
}

// QueryRecorder receives one observation per executed query.
type QueryRecorder interface {
	RecordSourceQuery(retriever string, resources int, err error)
}

// Deps is everything a factory needs to build an adapter.
type Deps struct {
	// HTTP configures the shared client.
	HTTP HTTPClientConfig

	// BaseURL overrides the provider's default endpoint (tests, proxies).
	BaseURL string

	// APIKey is the key stored for the retriever, possibly empty.
	APIKey string

	// MaxResults is the configured default bound per query.
	MaxResults int

	// Mailto identifies the caller to providers with a polite pool.
	Mailto string

	Logger   zerolog.Logger
	Recorder QueryRecorder
}

// Factory builds an adapter. Retriever factories do not fail on a missing
// key; they return an adapter that logs a warning and yields no results.
type Factory func(deps Deps) (Retriever, error)

// ClientConfig merges the caller's HTTP settings over an adapter's defaults.
// Zero-valued fields in d.HTTP keep the adapter default.
func (d Deps) ClientConfig(defaults HTTPClientConfig) HTTPClientConfig {
	cfg := defaults
	h := d.HTTP
	if h.Timeout > 0 {
		cfg.Timeout = h.Timeout
	}
	if h.RateLimit > 0 {
		cfg.RateLimit = h.RateLimit
	}
	if h.BurstSize > 0 {
		cfg.BurstSize = h.BurstSize
	}
	if h.MinInterval > 0 {
		cfg.MinInterval = h.MinInterval
	}
	if h.Retry.MaxAttempts > 0 {
		cfg.Retry = h.Retry
	}
	if h.UserAgent != "" {
		cfg.UserAgent = h.UserAgent
	}
	cfg.Logger = d.Logger
	return cfg
}

// BaseURLOr returns the configured base URL without a trailing slash, or def.
func (d Deps) BaseURLOr(def string) string {
	if d.BaseURL == "" {
		return def
	}
	return strings.TrimRight(d.BaseURL, "/")
}
