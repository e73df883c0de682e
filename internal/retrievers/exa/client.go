package exa

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

const (
	// DefaultBaseURL is the Exa API base URL.
	DefaultBaseURL = "https://api.exa.ai"

	// DefaultRateLimit is the default requests per second.
	DefaultRateLimit = 5.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchType lets Exa choose between neural and keyword search.
	DefaultSearchType = "auto"

	// DefaultCategory restricts results to papers.
	DefaultCategory = "research paper"

	// summaryChars bounds the page text returned per result.
	summaryChars = 1000

	// maxNumResults is the provider cap on numResults.
	maxNumResults = 100

	apiKeyHeader = "x-api-key"

	sourceName = "Exa"
)

// Client implements retrievers.Retriever for Exa.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	apiKey     string
	maxResults int
	runner     retrievers.Runner
	logger     zerolog.Logger
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates an Exa retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates an Exa client.
func NewClient(deps retrievers.Deps) *Client {
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:       domain.RetrieverExa,
		Timeout:      DefaultTimeout,
		RateLimit:    DefaultRateLimit,
		BurstSize:    5,
		APIKey:       deps.APIKey,
		APIKeyHeader: apiKeyHeader,
	})
	runner := retrievers.NewRunner(domain.RetrieverExa, deps)
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		apiKey:     deps.APIKey,
		maxResults: deps.MaxResults,
		runner:     runner,
		logger:     runner.Logger,
	}
}

// Search sends one Exa search per query, honouring the autoprompt, type and
// category options.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	if !c.IsEnabled() {
		c.logger.Warn().Msg("Exa API key not configured, returning no results")
		return []domain.Resource{}, nil
	}

	opts := params.Options
	fn := func(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
		return c.searchQuery(ctx, newRequest(query, limit, opts))
	}
	return c.runner.Run(ctx, queries, opts.Limit(c.maxResults), fn)
}

func newRequest(query string, limit int, opts retrievers.Options) SearchRequest {
	req := SearchRequest{
		Query:         query,
		NumResults:    min(limit, maxNumResults),
		UseAutoprompt: true,
		Type:          DefaultSearchType,
		Category:      DefaultCategory,
		Contents:      &Contents{Text: TextOptions{MaxCharacters: summaryChars}},
	}
	if opts.UseAutoprompt != nil {
		req.UseAutoprompt = *opts.UseAutoprompt
	}
	if opts.Type != "" {
		req.Type = opts.Type
	}
	if opts.Category != "" {
		req.Category = opts.Category
	}
	return req
}

func (c *Client) searchQuery(ctx context.Context, req SearchRequest) ([]domain.Resource, error) {
	var resp SearchResponse
	if err := c.httpClient.SendJSON(ctx, http.MethodPost, c.baseURL+"/search", nil, req, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Resource, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, toResource(r))
	}
	return retrievers.Truncate(out, req.NumResults), nil
}

func toResource(r Result) domain.Resource {
	summary := r.Summary
	if summary == "" {
		summary = r.Text
	}
	uid := r.ID
	if uid == "" {
		uid = domain.GeneratedUID(domain.RetrieverExa, r.URL)
	}
	return domain.Resource{
		UID:           uid,
		Title:         retrievers.CollapseSpace(r.Title),
		URL:           r.URL,
		PublishedDate: r.PublishedDate,
		Author:        r.Author,
		Score:         r.Score,
		Summary:       retrievers.CollapseSpace(summary),
	}
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverExa
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether an API key is configured.
func (c *Client) IsEnabled() bool {
	return c.apiKey != ""
}
