package europepmc

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

const (
	// DefaultBaseURL is the default Europe PMC REST base URL.
	DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

	// DefaultRateLimit is the default rate limit.
	DefaultRateLimit = 5.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// maxPageSize is the provider cap for pageSize.
	maxPageSize = 1000

	sourceName = "Europe PMC"
)

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// Client implements retrievers.Retriever for Europe PMC.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	maxResults int
	runner     retrievers.Runner
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates a Europe PMC retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates a Europe PMC client.
func NewClient(deps retrievers.Deps) *Client {
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:    domain.RetrieverEuropePMC,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		BurstSize: 5,
	})
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		maxResults: deps.MaxResults,
		runner:     retrievers.NewRunner(domain.RetrieverEuropePMC, deps),
	}
}

// Search queries the search endpoint once per query.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	return c.runner.Run(ctx, queries, params.Options.Limit(c.maxResults), c.searchQuery)
}

func (c *Client) searchQuery(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("format", "json")
	q.Set("resultType", "core")
	q.Set("pageSize", strconv.Itoa(min(limit, maxPageSize)))

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	results := resp.ResultList.Result
	out := make([]domain.Resource, 0, len(results))
	for _, r := range results {
		out = append(out, toResource(r))
	}
	return retrievers.Truncate(out, limit), nil
}

func toResource(r Result) domain.Resource {
	published := r.FirstPublicationDate
	if published == "" {
		published = r.PubYear
	}

	link := ""
	if r.Source != "" && r.ID != "" {
		link = "https://europepmc.org/article/" + r.Source + "/" + r.ID
	}

	uid := r.ID
	if r.Source != "" && r.ID != "" {
		uid = r.Source + ":" + r.ID
	}

	return domain.Resource{
		UID:           uid,
		Title:         cleanText(r.Title),
		URL:           domain.PreferDOI(r.DOI, link),
		PublishedDate: published,
		Author:        strings.TrimSuffix(strings.TrimSpace(r.AuthorString), "."),
		Summary:       cleanText(r.AbstractText),
	}
}

func cleanText(s string) string {
	return retrievers.CollapseSpace(htmlTag.ReplaceAllString(s, " "))
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverEuropePMC
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled always returns true; Europe PMC is keyless.
func (c *Client) IsEnabled() bool {
	return true
}
