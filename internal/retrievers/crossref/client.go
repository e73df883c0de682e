package crossref

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

const (
	// DefaultBaseURL is the default Crossref API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit stays well inside the public pool allowance.
	DefaultRateLimit = 5.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// FixedScore is assigned to every Crossref result.
	FixedScore = 1.0

	// selectFields limits the payload to what the mapping needs.
	selectFields = "DOI,URL,title,published,author,abstract"

	sourceName = "Crossref"
)

// jatsTag matches the JATS markup Crossref embeds in abstracts.
var jatsTag = regexp.MustCompile(`<[^>]+>`)

// Client implements retrievers.Retriever for Crossref.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	mailto     string
	maxResults int
	runner     retrievers.Runner
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates a Crossref retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates a Crossref client. When deps.Mailto is set the client
// identifies itself so requests are routed to the polite pool.
func NewClient(deps retrievers.Deps) *Client {
	defaults := retrievers.HTTPClientConfig{
		Source:    domain.RetrieverCrossref,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		BurstSize: 5,
	}
	if deps.Mailto != "" {
		defaults.UserAgent = fmt.Sprintf("%s (mailto:%s)", retrievers.DefaultUserAgent, deps.Mailto)
	}
	return &Client{
		httpClient: retrievers.NewHTTPClient(deps.ClientConfig(defaults)),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		mailto:     deps.Mailto,
		maxResults: deps.MaxResults,
		runner:     retrievers.NewRunner(domain.RetrieverCrossref, deps),
	}
}

// Search queries the /works endpoint once per query.
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
	q.Set("rows", strconv.Itoa(limit))
	q.Set("select", selectFields)
	if c.mailto != "" {
		q.Set("mailto", c.mailto)
	}

	var resp WorksResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/works?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Resource, 0, len(resp.Message.Items))
	for _, w := range resp.Message.Items {
		out = append(out, workToResource(w))
	}
	return retrievers.Truncate(out, limit), nil
}

func workToResource(w Work) domain.Resource {
	var title string
	if len(w.Title) > 0 {
		title = w.Title[0]
	}

	names := make([]string, 0, len(w.Author))
	for _, a := range w.Author {
		if a.Name != "" {
			names = append(names, a.Name)
			continue
		}
		names = append(names, strings.TrimSpace(a.Given+" "+a.Family))
	}

	uid := w.DOI
	if uid == "" {
		uid = domain.GeneratedUID(domain.RetrieverCrossref, w.URL+title)
	}

	return domain.Resource{
		UID:           uid,
		Title:         retrievers.CollapseSpace(title),
		URL:           domain.PreferDOI(w.DOI, w.URL),
		PublishedDate: formatDateParts(w.Published),
		Author:        domain.JoinAuthors(names),
		Score:         domain.Float64Ptr(FixedScore),
		Summary:       stripJATS(w.Abstract),
	}
}

// formatDateParts renders a Crossref partial date as YYYY, YYYY-MM or YYYY-MM-DD.
func formatDateParts(d *DateInfo) string {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return ""
	}
	p := d.DateParts[0]
	switch len(p) {
	case 1:
		return fmt.Sprintf("%04d", p[0])
	case 2:
		return fmt.Sprintf("%04d-%02d", p[0], p[1])
	default:
		return fmt.Sprintf("%04d-%02d-%02d", p[0], p[1], p[2])
	}
}

func stripJATS(s string) string {
	return retrievers.CollapseSpace(jatsTag.ReplaceAllString(s, " "))
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverCrossref
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled always returns true; Crossref is keyless.
func (c *Client) IsEnabled() bool {
	return true
}
