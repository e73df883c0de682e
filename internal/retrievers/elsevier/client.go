package elsevier

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

const (
	// DefaultBaseURL is the Elsevier content API root.
	DefaultBaseURL = "https://api.elsevier.com/content"

	// DefaultRateLimit is the default requests per second across both sub-APIs.
	DefaultRateLimit = 6.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// maxScopusCount is the largest page Scopus serves to standard keys.
	maxScopusCount = 25

	// maxSciDirectShow is the largest page ScienceDirect serves.
	maxSciDirectShow = 100

	apiKeyHeader = "X-ELS-APIKey"

	sourceName = "Elsevier"
)

// Client implements retrievers.Retriever for Elsevier.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	apiKey     string
	maxResults int
	runner     retrievers.Runner
	logger     zerolog.Logger
}

var _ retrievers.Retriever = (*Client)(nil)

// New creates an Elsevier retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates an Elsevier client.
func NewClient(deps retrievers.Deps) *Client {
	cfg := deps.ClientConfig(retrievers.HTTPClientConfig{
		Source:       domain.RetrieverElsevier,
		Timeout:      DefaultTimeout,
		RateLimit:    DefaultRateLimit,
		BurstSize:    2,
		APIKey:       deps.APIKey,
		APIKeyHeader: apiKeyHeader,
	})
	runner := retrievers.NewRunner(domain.RetrieverElsevier, deps)
	return &Client{
		httpClient: retrievers.NewHTTPClient(cfg),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		apiKey:     deps.APIKey,
		maxResults: deps.MaxResults,
		runner:     runner,
		logger:     runner.Logger,
	}
}

// Search queries ScienceDirect and Scopus concurrently for each query and
// merges the deduplicated results.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	if !c.IsEnabled() {
		c.logger.Warn().Msg("Elsevier API key not configured, returning no results")
		return []domain.Resource{}, nil
	}
	return c.runner.Run(ctx, queries, params.Options.Limit(c.maxResults), c.searchQuery)
}

// searchQuery fails only when both sub-APIs fail.
func (c *Client) searchQuery(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	var (
		sciDirect, scopus       []domain.Resource
		sciDirectErr, scopusErr error
		g                       errgroup.Group
	)

	g.Go(func() error {
		sciDirect, sciDirectErr = c.searchScienceDirect(ctx, query, limit)
		if sciDirectErr != nil {
			c.logger.Warn().Err(sciDirectErr).Str("query", query).Msg("ScienceDirect search failed")
		}
		return nil
	})
	g.Go(func() error {
		scopus, scopusErr = c.searchScopus(ctx, query, limit)
		if scopusErr != nil {
			c.logger.Warn().Err(scopusErr).Str("query", query).Msg("Scopus search failed")
		}
		return nil
	})
	_ = g.Wait()

	if sciDirectErr != nil && scopusErr != nil {
		return nil, sciDirectErr
	}
	return Merge(limit, sciDirect, scopus), nil
}

func (c *Client) searchScienceDirect(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	body := sciDirectRequest{
		Query:   query,
		Display: sciDirectDisplay{Offset: 0, Show: min(limit, maxSciDirectShow)},
	}

	var resp SciDirectResponse
	if err := c.httpClient.SendJSON(ctx, http.MethodPut, c.baseURL+"/search/sciencedirect", nil, body, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Resource, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, sciDirectToResource(r))
	}
	return out, nil
}

func (c *Client) searchScopus(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	q := url.Values{}
	q.Set("query", "TITLE-ABS-KEY("+query+")")
	q.Set("count", strconv.Itoa(min(limit, maxScopusCount)))

	var resp ScopusResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/search/scopus?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Resource, 0, len(resp.SearchResults.Entry))
	for _, e := range resp.SearchResults.Entry {
		if e.Error != "" {
			continue
		}
		out = append(out, scopusToResource(e))
	}
	return out, nil
}

func sciDirectToResource(r SciDirectResult) domain.Resource {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		names = append(names, a.Name)
	}

	link := r.URI
	if link == "" && r.PII != "" {
		link = "https://www.sciencedirect.com/science/article/pii/" + r.PII
	}

	uid := r.PII
	if uid == "" {
		uid = domain.NormalizeDOI(r.DOI)
	}

	return domain.Resource{
		UID:           uid,
		Title:         retrievers.CollapseSpace(r.Title),
		URL:           domain.PreferDOI(r.DOI, link),
		PublishedDate: r.PublicationDate,
		Author:        domain.JoinAuthors(names),
		Summary:       r.SourceTitle,
	}
}

func scopusToResource(e ScopusEntry) domain.Resource {
	return domain.Resource{
		UID:           strings.TrimPrefix(e.Identifier, "SCOPUS_ID:"),
		Title:         retrievers.CollapseSpace(e.Title),
		URL:           domain.PreferDOI(e.DOI, e.URL),
		PublishedDate: e.CoverDate,
		Author:        strings.TrimSpace(e.Creator),
		Summary:       retrievers.CollapseSpace(e.Description),
	}
}

// Merge concatenates result lists in order, dropping untitled records and
// records already seen by DOI or, when a record has no DOI, by normalized
// title and date. The output holds at most limit records.
func Merge(limit int, lists ...[]domain.Resource) []domain.Resource {
	total := 0
	for _, list := range lists {
		total += len(list)
	}
	seen := make(map[string]struct{}, total)
	out := make([]domain.Resource, 0, max(0, min(limit, total)))
	for _, list := range lists {
		for _, r := range list {
			if len(out) >= limit {
				return out
			}
			if !r.HasTitle() {
				continue
			}
			key := dedupKey(r)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func dedupKey(r domain.Resource) string {
	if doi := doiFromURL(r.URL); doi != "" {
		return "doi:" + strings.ToLower(doi)
	}
	title := strings.ToLower(strings.Join(strings.Fields(r.Title), " "))
	return "title:" + title + "|" + r.PublishedDate
}

func doiFromURL(u string) string {
	if !strings.HasPrefix(u, "https://doi.org/") {
		return ""
	}
	return domain.NormalizeDOI(u)
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverElsevier
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled reports whether an API key is configured.
func (c *Client) IsEnabled() bool {
	return c.apiKey != ""
}
