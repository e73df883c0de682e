package core

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

const (
	// DefaultBaseURL is the default CORE API base URL.
	DefaultBaseURL = "https://api.core.ac.uk/v3"

	// DefaultRateLimit matches the free tier allowance.
	DefaultRateLimit = 5.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	sourceName = "CORE"
)

// Client implements retrievers.Retriever for CORE.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	apiKey     string
	maxResults int
	runner     retrievers.Runner
	logger     zerolog.Logger
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates a CORE retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates a CORE client that authenticates with a bearer token.
func NewClient(deps retrievers.Deps) *Client {
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:       domain.RetrieverCORE,
		Timeout:      DefaultTimeout,
		RateLimit:    DefaultRateLimit,
		BurstSize:    1,
		APIKey:       deps.APIKey,
		APIKeyHeader: "Authorization",
		APIKeyPrefix: "Bearer ",
	})
	runner := retrievers.NewRunner(domain.RetrieverCORE, deps)
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		apiKey:     deps.APIKey,
		maxResults: deps.MaxResults,
		runner:     runner,
		logger:     runner.Logger,
	}
}

// Search runs each query against /search/works.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	if !c.IsEnabled() {
		c.logger.Warn().Msg("CORE API key not configured, returning no results")
		return []domain.Resource{}, nil
	}
	return c.runner.Run(ctx, queries, params.Options.Limit(c.maxResults), c.searchQuery)
}

func (c *Client) searchQuery(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/search/works?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Resource, 0, len(resp.Results))
	for _, w := range resp.Results {
		out = append(out, toResource(w))
	}
	return retrievers.Truncate(out, limit), nil
}

func toResource(w Work) domain.Resource {
	names := make([]string, 0, len(w.Authors))
	for _, a := range w.Authors {
		names = append(names, a.Name)
	}

	published := w.PublishedDate
	if i := strings.IndexByte(published, 'T'); i > 0 {
		published = published[:i]
	}
	if published == "" && w.YearPublished > 0 {
		published = strconv.Itoa(w.YearPublished)
	}

	id := strconv.FormatInt(w.ID, 10)
	link := w.DownloadURL
	if link == "" {
		link = "https://core.ac.uk/works/" + id
	}

	return domain.Resource{
		UID:           id,
		Title:         retrievers.CollapseSpace(w.Title),
		URL:           domain.PreferDOI(w.DOI, link),
		PublishedDate: published,
		Author:        domain.JoinAuthors(names),
		Summary:       retrievers.CollapseSpace(w.Abstract),
	}
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverCORE
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether an API key is configured.
func (c *Client) IsEnabled() bool {
	return c.apiKey != ""
}
