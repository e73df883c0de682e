package dblp

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

const (
	// DefaultBaseURL is the default DBLP base URL.
	DefaultBaseURL = "https://dblp.org"

	// DefaultRateLimit is the default rate limit.
	DefaultRateLimit = 2.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// maxHits is the provider cap for the h parameter.
	maxHits = 1000

	sourceName = "DBLP"
)

// Client implements retrievers.Retriever for DBLP.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	maxResults int
	runner     retrievers.Runner
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates a DBLP retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates a DBLP client.
func NewClient(deps retrievers.Deps) *Client {
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:    domain.RetrieverDBLP,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		BurstSize: 2,
	})
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		maxResults: deps.MaxResults,
		runner:     retrievers.NewRunner(domain.RetrieverDBLP, deps),
	}
}

// Search queries the publication search endpoint once per query.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	return c.runner.Run(ctx, queries, params.Options.Limit(c.maxResults), c.searchQuery)
}

func (c *Client) searchQuery(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("h", strconv.Itoa(min(limit, maxHits)))

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/search/publ/api?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	hits := resp.Result.Hits.Hit
	out := make([]domain.Resource, 0, len(hits))
	for _, h := range hits {
		out = append(out, hitToResource(h))
	}
	return retrievers.Truncate(out, limit), nil
}

func hitToResource(h Hit) domain.Resource {
	info := h.Info

	names := make([]string, 0, len(info.Authors.Author))
	for _, a := range info.Authors.Author {
		names = append(names, stripHomonymSuffix(a.Text))
	}

	link := info.URL
	if len(info.EE) > 0 {
		link = info.EE[0]
	}

	uid := info.Key
	if uid == "" {
		uid = h.ID
	}
	if uid == "" {
		uid = domain.GeneratedUID(domain.RetrieverDBLP, link+info.Title)
	}

	res := domain.Resource{
		UID:           uid,
		Title:         retrievers.CollapseSpace(info.Title),
		URL:           domain.PreferDOI(info.DOI, link),
		PublishedDate: info.Year,
		Author:        domain.JoinAuthors(names),
		Summary:       info.Venue,
	}
	if s, err := strconv.ParseFloat(h.Score, 64); err == nil {
		res.Score = domain.Float64Ptr(s)
	}
	return res
}

// stripHomonymSuffix drops DBLP's disambiguation number, e.g. "Wei Wang 0001".
func stripHomonymSuffix(name string) string {
	fields := strings.Fields(name)
	if n := len(fields); n > 1 {
		if _, err := strconv.Atoi(fields[n-1]); err == nil && len(fields[n-1]) == 4 {
			fields = fields[:n-1]
		}
	}
	return strings.Join(fields, " ")
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverDBLP
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled always returns true; DBLP is keyless.
func (c *Client) IsEnabled() bool {
	return true
}
