package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit follows arXiv's request to stay under one request every three seconds
	// for bulk use; interactive searches get a small burst.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	sourceName = "arXiv"
)

// arxivIDRegex extracts the arXiv ID from the full URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Client implements retrievers.Retriever for arXiv.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	maxResults int
	runner     retrievers.Runner
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates an arXiv retriever. arXiv needs no API key.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates an arXiv client.
func NewClient(deps retrievers.Deps) *Client {
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:    domain.RetrieverArXiv,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		BurstSize: DefaultBurstSize,
	})
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		maxResults: deps.MaxResults,
		runner:     retrievers.NewRunner(domain.RetrieverArXiv, deps),
	}
}

// Search queries arXiv once per query, ordered by relevance.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	return c.runner.Run(ctx, queries, params.Options.Limit(c.maxResults), c.searchQuery)
}

func (c *Client) searchQuery(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	searchURL, err := c.buildSearchURL(query, limit)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, "malformed Atom feed", err)
	}

	out := make([]domain.Resource, 0, len(feed.Entries))
	for i := range feed.Entries {
		if isErrorEntry(&feed.Entries[i]) {
			return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode,
				retrievers.CollapseSpace(feed.Entries[i].Summary.String()), nil)
		}
		out = append(out, entryToResource(&feed.Entries[i]))
	}
	return retrievers.Truncate(out, limit), nil
}

func (c *Client) buildSearchURL(query string, limit int) (string, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	q := url.Values{}
	q.Set("search_query", "all:"+query)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(limit))
	q.Set("sortBy", "relevance")
	q.Set("sortOrder", "descending")

	baseURL.RawQuery = q.Encode()
	return baseURL.String(), nil
}

// isErrorEntry detects the single-entry feed arXiv returns for malformed queries.
func isErrorEntry(e *Entry) bool {
	return strings.Contains(e.ID, "arxiv.org/api/errors")
}

func entryToResource(e *Entry) domain.Resource {
	names := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		names = append(names, a.Name)
	}

	id := extractArXivID(e.ID)
	uid := id
	if uid == "" {
		uid = domain.GeneratedUID(domain.RetrieverArXiv, e.ID+e.Title)
	}

	return domain.Resource{
		UID:           uid,
		Title:         retrievers.CollapseSpace(e.Title),
		URL:           domain.PreferDOI(e.DOI, absLink(e)),
		PublishedDate: e.Published,
		Author:        domain.JoinAuthors(names),
		Summary:       retrievers.CollapseSpace(e.Summary.String()),
	}
}

// absLink prefers the HTML abstract page over the raw entry id.
func absLink(e *Entry) string {
	for _, l := range e.Links {
		if l.Rel == "alternate" && l.Href != "" {
			return l.Href
		}
	}
	return e.ID
}

func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverArXiv
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled always returns true; arXiv is keyless.
func (c *Client) IsEnabled() bool {
	return true
}
