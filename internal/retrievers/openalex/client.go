package openalex

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit stays under the polite-pool ceiling of 10 req/s.
	DefaultRateLimit = 10.0
	DefaultBurstSize = 10
	DefaultTimeout   = 30 * time.Second

	maxPerPage       = 200
	openAlexIDPrefix = "https://openalex.org/"

	sourceName = "OpenAlex"
)

// Client implements retrievers.Retriever for OpenAlex.
type Client struct {
	httpClient *retrievers.HTTPClient
	baseURL    string
	mailto     string
	maxResults int
	runner     retrievers.Runner
}

// Ensure Client implements Retriever interface.
var _ retrievers.Retriever = (*Client)(nil)

// New creates an OpenAlex retriever.
func New(deps retrievers.Deps) (retrievers.Retriever, error) {
	return NewClient(deps), nil
}

// NewClient creates a new OpenAlex client. When deps.Mailto is set, requests
// join the polite pool.
func NewClient(deps retrievers.Deps) *Client {
	defaults := retrievers.HTTPClientConfig{
		Source:    domain.RetrieverOpenAlex,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		BurstSize: DefaultBurstSize,
	}
	if deps.Mailto != "" {
		defaults.UserAgent = retrievers.DefaultUserAgent + " (mailto:" + deps.Mailto + ")"
	}

	return &Client{
		httpClient: retrievers.NewHTTPClient(deps.ClientConfig(defaults)),
		baseURL:    deps.BaseURLOr(DefaultBaseURL),
		mailto:     deps.Mailto,
		maxResults: deps.MaxResults,
		runner:     retrievers.NewRunner(domain.RetrieverOpenAlex, deps),
	}
}

// Search queries OpenAlex once per query.
func (c *Client) Search(ctx context.Context, params retrievers.Params) ([]domain.Resource, error) {
	queries := retrievers.BuildQueries(params)
	if len(queries) == 0 {
		return []domain.Resource{}, nil
	}
	return c.runner.Run(ctx, queries, params.Options.Limit(c.maxResults), c.searchQuery)
}

func (c *Client) searchQuery(ctx context.Context, query string, limit int) ([]domain.Resource, error) {
	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, c.buildSearchURL(query, limit), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Resource, 0, len(resp.Results))
	for i := range resp.Results {
		out = append(out, workToResource(&resp.Results[i]))
	}
	return retrievers.Truncate(out, limit), nil
}

// buildSearchURL constructs the search API URL with query parameters.
func (c *Client) buildSearchURL(query string, limit int) string {
	q := url.Values{}
	q.Set("search", query)
	q.Set("per-page", strconv.Itoa(min(limit, maxPerPage)))
	q.Set("select", selectFields)
	if c.mailto != "" {
		q.Set("mailto", c.mailto)
	}
	return c.baseURL + "/works?" + q.Encode()
}

// workToResource converts an OpenAlex Work to a Resource.
func workToResource(work *Work) domain.Resource {
	doi := work.DOI
	if doi == "" {
		doi = work.IDs.DOI
	}

	openAlexID := normalizeOpenAlexID(work.ID)
	if openAlexID == "" {
		openAlexID = normalizeOpenAlexID(work.IDs.OpenAlex)
	}

	// display_name is usually cleaner
	title := work.DisplayName
	if title == "" {
		title = work.Title
	}

	names := make([]string, 0, len(work.Authorships))
	for _, a := range work.Authorships {
		names = append(names, a.Author.DisplayName)
	}

	published := work.PublicationDate
	if published == "" && work.PublicationYear > 0 {
		published = strconv.Itoa(work.PublicationYear)
	}

	link := work.ID
	if work.PrimaryLocation != nil && work.PrimaryLocation.LandingPageURL != "" {
		link = work.PrimaryLocation.LandingPageURL
	}

	uid := openAlexID
	if uid == "" {
		uid = domain.GeneratedUID(domain.RetrieverOpenAlex, title)
	}

	return domain.Resource{
		UID:           uid,
		Title:         retrievers.CollapseSpace(title),
		URL:           domain.PreferDOI(doi, link),
		PublishedDate: published,
		Author:        domain.JoinAuthors(names),
		Score:         work.RelevanceScore,
		Summary:       reconstructAbstract(work.AbstractInvertedIndex),
	}
}

// normalizeOpenAlexID extracts the short ID from full OpenAlex URLs.
func normalizeOpenAlexID(id string) string {
	return strings.TrimSpace(strings.TrimPrefix(id, openAlexIDPrefix))
}

// maxAbstractWords caps the positions accepted from one inverted index.
const maxAbstractWords = 100_000

// reconstructAbstract rebuilds abstract text from the word -> positions index.
// Oversized indexes yield an empty abstract.
func reconstructAbstract(index map[string][]int) string {
	n := 0
	for _, positions := range index {
		n += len(positions)
	}
	if n == 0 || n > maxAbstractWords {
		return ""
	}

	type token struct {
		pos  int
		word string
	}
	tokens := make([]token, 0, n)
	for word, positions := range index {
		for _, pos := range positions {
			tokens = append(tokens, token{pos, word})
		}
	}
	slices.SortFunc(tokens, func(a, b token) int { return cmp.Compare(a.pos, b.pos) })

	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.word
	}
	return strings.Join(words, " ")
}

// Slug returns the retriever identifier.
func (c *Client) Slug() string {
	return domain.RetrieverOpenAlex
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled always returns true; OpenAlex needs no key.
func (c *Client) IsEnabled() bool {
	return true
}
