package ncbi

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
	// DefaultBaseURL is the E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the NCBI limit without an API key.
	DefaultRateLimit = 3.0

	// KeyedRateLimit is the NCBI limit with an API key.
	KeyedRateLimit = 10.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// maxRetMax bounds ESearch retmax for JSON output.
	maxRetMax = 10000

	pubmedURL = "https://pubmed.ncbi.nlm.nih.gov/"

	sourceName = "NCBI PubMed"
)

// Client implements retrievers.Retriever for PubMed.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	apiKey     string
	maxResults int
	runner     retrievers.Runner
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates an NCBI retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates an NCBI client. The API key is optional and raises the
// rate limit.
func NewClient(deps retrievers.Deps) *Client {
	limit := DefaultRateLimit
	if deps.APIKey != "" {
		limit = KeyedRateLimit
	}
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:    domain.RetrieverNCBI,
		Timeout:   DefaultTimeout,
		RateLimit: limit,
		BurstSize: 1,
	})
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		apiKey:     deps.APIKey,
		maxResults: deps.MaxResults,
		runner:     retrievers.NewRunner(domain.RetrieverNCBI, deps),
	}
}

// Search runs ESearch followed by ESummary for each query.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	return c.runner.Run(ctx, queries, params.Options.Limit(c.maxResults), c.searchQuery)
}

func (c *Client) searchQuery(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	ids, err := c.esearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Resource{}, nil
	}

	summaries, err := c.esummary(ctx, ids)
	if err != nil {
		return nil, err
	}

	// ESummary order is not guaranteed to follow relevance.
	out := make([]domain.Resource, 0, len(ids))
	for _, id := range ids {
		doc, ok := summaries.Summaries[id]
		if !ok {
			continue
		}
		out = append(out, toResource(id, doc))
	}
	return retrievers.Truncate(out, limit), nil
}

func (c *Client) esearch(ctx context.Context, query string, limit int) ([]string, error) {
	q := c.baseParams()
	q.Set("term", query)
	q.Set("retmax", strconv.Itoa(min(limit, maxRetMax)))
	q.Set("sort", "relevance")

	var resp ESearchResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/esearch.fcgi?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if msg := resp.ESearchResult.Error; msg != "" {
		return nil, domain.NewExternalAPIError(domain.RetrieverNCBI, 0, msg, nil)
	}
	return resp.ESearchResult.IDList, nil
}

func (c *Client) esummary(ctx context.Context, ids []string) (*ESummaryResult, error) {
	q := c.baseParams()
	q.Set("id", strings.Join(ids, ","))

	var resp ESummaryResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/esummary.fcgi?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

func (c *Client) baseParams() url.Values {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("retmode", "json")
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	return q
}

func toResource(id string, doc DocSummary) domain.Resource {
	names := make([]string, 0, len(doc.Authors))
	for _, a := range doc.Authors {
		names = append(names, a.Name)
	}

	published := doc.PubDate
	if published == "" {
		published = doc.EPubDate
	}

	return domain.Resource{
		UID:           id,
		Title:         retrievers.CollapseSpace(doc.Title),
		URL:           domain.PreferDOI(docDOI(doc), pubmedURL+id+"/"),
		PublishedDate: published,
		Author:        domain.JoinAuthors(names),
		Summary:       doc.FullJournalName,
	}
}

// docDOI prefers the typed article id and falls back to elocationid,
// which looks like "doi: 10.1000/xyz".
func docDOI(doc DocSummary) string {
	for _, a := range doc.ArticleIDs {
		if a.IDType == "doi" {
			return a.Value
		}
	}
	if i := strings.Index(doc.ELocationID, "doi:"); i >= 0 {
		rest := strings.TrimSpace(doc.ELocationID[i+len("doi:"):])
		if f := strings.Fields(rest); len(f) > 0 {
			return f[0]
		}
	}
	return ""
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverNCBI
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled always returns true; the key only raises the rate limit.
func (c *Client) IsEnabled() bool {
	return true
}
