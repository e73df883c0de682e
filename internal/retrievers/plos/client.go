package plos

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
	// DefaultBaseURL is the default PLOS API base URL.
	DefaultBaseURL = "https://api.plos.org"

	// DefaultRateLimit keeps well under the published 10 requests per minute.
	DefaultRateLimit = 0.16

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	fieldList = "id,title,title_display,author_display,abstract,publication_date,journal,score"

	articleBaseURL = "https://journals.plos.org/plosone/article?id="

	sourceName = "PLOS"
)

// Client implements retrievers.Retriever for PLOS.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	maxResults int
	runner     retrievers.Runner
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates a PLOS retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates a PLOS client.
func NewClient(deps retrievers.Deps) *Client {
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:    domain.RetrieverPLOS,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		BurstSize: 3,
	})
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		maxResults: deps.MaxResults,
		runner:     retrievers.NewRunner(domain.RetrieverPLOS, deps),
	}
}

// Search runs one Solr query per search string.
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
	q.Set("rows", strconv.Itoa(limit))
	q.Set("fl", fieldList)
	q.Set("wt", "json")

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Resource, 0, len(resp.Response.Docs))
	for _, d := range resp.Response.Docs {
		out = append(out, toResource(d))
	}
	return retrievers.Truncate(out, limit), nil
}

func toResource(d Doc) domain.Resource {
	title := d.TitleDisplay
	if title == "" {
		title = d.Title
	}

	published := d.PublicationDate
	if i := strings.IndexByte(published, 'T'); i > 0 {
		published = published[:i]
	}

	return domain.Resource{
		UID:           d.ID,
		Title:         retrievers.CollapseSpace(stripMarkup(title)),
		URL:           domain.PreferDOI(d.ID, articleBaseURL+url.QueryEscape(d.ID)),
		PublishedDate: published,
		Author:        domain.JoinAuthors(d.AuthorDisplay),
		Score:         d.Score,
		Summary:       retrievers.CollapseSpace(strings.Join(d.Abstract, " ")),
	}
}

// stripMarkup removes the inline HTML PLOS keeps in title_display.
func stripMarkup(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverPLOS
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled always returns true.
func (c *Client) IsEnabled() bool {
	return true
}
