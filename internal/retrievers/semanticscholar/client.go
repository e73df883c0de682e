package semanticscholar

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retry"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultMinInterval is the pause enforced between consecutive requests,
	// across pages and across queries.
	DefaultMinInterval = 1000 * time.Millisecond

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the largest page the search endpoint accepts.
	MaxPageSize = 100

	// maxOffset is the provider-side cap on offset+limit for relevance search.
	maxOffset = 1000

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the list of fields to request from the API.
	paperFields = "paperId,externalIds,title,abstract,year,publicationDate,authors,url"

	sourceName = "Semantic Scholar"
)

// Client implements retrievers.Retriever for Semantic Scholar.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	apiKey     string
	maxResults int
	runner     retrievers.Runner
	logger     zerolog.Logger
}

// Compile-time check that Client implements retrievers.Retriever.
var _ retrievers.Retriever = (*Client)(nil)

// New creates a Semantic Scholar retriever. A missing API key yields a
// client that logs a warning and returns no results.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates a Semantic Scholar client.
func NewClient(deps retrievers.Deps) *Client {
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:       domain.RetrieverSemanticScholar,
		Timeout:      DefaultTimeout,
		MinInterval:  DefaultMinInterval,
		Retry:        retry.SemanticScholar(),
		APIKey:       deps.APIKey,
		APIKeyHeader: apiKeyHeader,
	})

	runner := retrievers.NewRunner(domain.RetrieverSemanticScholar, deps)
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		apiKey:     deps.APIKey,
		maxResults: deps.MaxResults,
		runner:     runner,
		logger:     runner.Logger,
	}
}

// Search runs each query in turn, paginating until the limit is reached or
// the provider returns a short page.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	if !c.IsEnabled() {
		c.logger.Warn().Msg("Semantic Scholar API key not configured, returning no results")
		return []domain.Resource{}, nil
	}
	return c.runner.Run(ctx, queries, params.Options.Limit(c.maxResults), c.searchQuery)
}

func (c *Client) searchQuery(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	out := make([]domain.Resource, 0, min(limit, MaxPageSize))
	offset := 0

	for len(out) < limit && offset < maxOffset {
		size := min(MaxPageSize, limit-len(out), maxOffset-offset)

		page, err := c.fetchPage(ctx, query, offset, size)
		if err != nil {
			if len(out) == 0 {
				return nil, err
			}
			c.logger.Warn().Err(err).Str("query", query).Int("offset", offset).
				Msg("pagination stopped early, keeping fetched pages")
			break
		}

		for _, p := range page.Data {
			out = append(out, toResource(p))
		}
		offset += len(page.Data)

		if len(page.Data) < size {
			break
		}
	}
	return retrievers.Truncate(out, limit), nil
}

func (c *Client) fetchPage(ctx context.Context, query string, offset, limit int) (*SearchResponse, error) {
	u, err := url.JoinPath(c.baseURL, "paper", "search")
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", paperFields)

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, u+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func toResource(p PaperResult) domain.Resource {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}

	var doi string
	if p.ExternalIDs != nil {
		doi = p.ExternalIDs.DOI
	}

	published := p.PublicationDate
	if published == "" && p.Year > 0 {
		published = strconv.Itoa(p.Year)
	}

	link := p.URL
	if link == "" && p.PaperID != "" {
		link = "https://www.semanticscholar.org/paper/" + p.PaperID
	}

	return domain.Resource{
		UID:           p.PaperID,
		Title:         retrievers.CollapseSpace(p.Title),
		URL:           domain.PreferDOI(doi, link),
		PublishedDate: published,
		Author:        domain.JoinAuthors(names),
		Summary:       p.Abstract,
	}
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverSemanticScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether an API key is configured.
func (c *Client) IsEnabled() bool {
	return c.apiKey != ""
}
