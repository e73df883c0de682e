package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retrievers/retrievertest"
	"github.com/helixir/research-desk/internal/retry"
)

// testDeps mirrors the production policy shape with short delays.
func testDeps(baseURL, key string) retrievers.Deps {
	deps := retrievertest.Deps(baseURL, key)
	deps.HTTP.Retry = retry.Policy{MaxAttempts: 5, BaseDelay: 5 * time.Millisecond, RespectRetryAfter: true}
	return deps
}

func writePage(t *testing.T, w http.ResponseWriter, offset, n int) {
	t.Helper()
	resp := SearchResponse{Offset: offset}
	for i := 0; i < n; i++ {
		resp.Data = append(resp.Data, PaperResult{
			PaperID: fmt.Sprintf("p%d", offset+i),
			Title:   fmt.Sprintf("Paper %d", offset+i),
			Year:    2021,
			Authors: []Author{{Name: "Ada Lovelace"}, {Name: "Alan Turing"}},
		})
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func search(t *testing.T, c *Client, max int, queries ...string) []domain.Resource {
	t.Helper()
	got, err := c.Search(context.Background(), retrievers.Params{
		Queries: queries,
		Options: retrievers.Options{MaxResults: max},
	})
	require.NoError(t, err)
	retrievertest.AssertWellFormed(t, got)
	return got
}

func TestNewClient(t *testing.T) {
	t.Run("applies provider defaults", func(t *testing.T) {
		c := NewClient(retrievers.Deps{APIKey: "k"})

		assert.Equal(t, DefaultBaseURL, c.baseURL)
		assert.Equal(t, retry.SemanticScholar(), c.httpClient.Policy())
		assert.True(t, c.IsEnabled())
		assert.Equal(t, "semanticscholar", c.Slug())
		assert.Equal(t, "Semantic Scholar", c.Name())
	})

	t.Run("disabled without key", func(t *testing.T) {
		assert.False(t, NewClient(retrievers.Deps{}).IsEnabled())
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("empty query list makes no request", func(t *testing.T) {
		retrievertest.AssertEmptyQueriesSkipNetwork(t, New, "key")
	})

	t.Run("missing key returns empty without request", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			writePage(t, w, 0, 1)
		})
		c := NewClient(testDeps(srv.URL, ""))

		got := search(t, c, 10, "graphs")
		assert.Empty(t, got)
		assert.Equal(t, 0, srv.Calls())
	})

	t.Run("maps papers and sends api key", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/paper/search", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("x-api-key"))
			assert.Equal(t, "transformers", r.URL.Query().Get("query"))
			assert.Contains(t, r.URL.Query().Get("fields"), "externalIds")
			w.Write([]byte(`{"total":2,"offset":0,"data":[
				{"paperId":"abc","title":"Attention  Is All\nYou Need","abstract":"We propose","year":2017,
				 "publicationDate":"2017-06-12","url":"https://s2/abc",
				 "authors":[{"name":"Ashish Vaswani"},{"name":"Noam Shazeer"}],
				 "externalIds":{"DOI":"10.5555/3295222"}},
				{"paperId":"def","title":"","year":2018},
				{"paperId":"ghi","title":"BERT","year":2018,"authors":[]}
			]}`))
		})
		c := NewClient(testDeps(srv.URL, "secret"))

		got := search(t, c, 10, "transformers")

		require.Len(t, got, 2)
		assert.Equal(t, "abc", got[0].UID)
		assert.Equal(t, "Attention Is All You Need", got[0].Title)
		assert.Equal(t, "https://doi.org/10.5555/3295222", got[0].URL)
		assert.Equal(t, "2017-06-12", got[0].PublishedDate)
		assert.Equal(t, "Ashish Vaswani, Noam Shazeer", got[0].Author)
		assert.Equal(t, "We propose", got[0].Summary)
		assert.Equal(t, "BERT", got[1].Title)
		assert.Equal(t, "2018", got[1].PublishedDate)
		assert.Equal(t, "https://www.semanticscholar.org/paper/ghi", got[1].URL)
		assert.Equal(t, 2, got[1].Index)
	})
}

func TestClient_Pagination(t *testing.T) {
	t.Run("pages until limit", func(t *testing.T) {
		var seen []string
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			seen = append(seen, fmt.Sprintf("%d/%d", offset, limit))
			writePage(t, w, offset, limit)
		})
		c := NewClient(testDeps(srv.URL, "k"))

		got := search(t, c, 150, "q")

		assert.Len(t, got, 150)
		assert.Equal(t, []string{"0/100", "100/50"}, seen)
		assert.Equal(t, 150, got[149].Index)
	})

	t.Run("short page ends pagination", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			writePage(t, w, 0, 30)
		})
		c := NewClient(testDeps(srv.URL, "k"))

		got := search(t, c, 250, "q")

		assert.Len(t, got, 30)
		assert.Equal(t, 1, srv.Calls())
	})

	t.Run("oversized limit stops at offset ceiling", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			writePage(t, w, offset, limit)
		})
		c := NewClient(testDeps(srv.URL, "k"))

		var got []domain.Resource
		require.NotPanics(t, func() { got = search(t, c, 1<<50, "q") })

		assert.Len(t, got, maxOffset)
		assert.Equal(t, maxOffset/MaxPageSize, srv.Calls())
	})

	t.Run("failure on later page keeps earlier pages", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("offset") != "0" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writePage(t, w, 0, 100)
		})
		c := NewClient(testDeps(srv.URL, "k"))

		got := search(t, c, 200, "q")
		assert.Len(t, got, 100)
	})
}

func TestClient_RetryPolicy(t *testing.T) {
	t.Run("429 then 200 without retry-after", func(t *testing.T) {
		calls := 0
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writePage(t, w, 0, 2)
		})
		c := NewClient(testDeps(srv.URL, "k"))

		got := search(t, c, 2, "q")

		assert.Len(t, got, 2)
		assert.Equal(t, 2, srv.Calls())
	})

	t.Run("429 then 200 with retry-after", func(t *testing.T) {
		calls := 0
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writePage(t, w, 0, 1)
		})
		c := NewClient(testDeps(srv.URL, "k"))

		start := time.Now()
		got := search(t, c, 1, "q")

		assert.Len(t, got, 1)
		assert.Equal(t, "Paper 0", got[0].Title)
		assert.Equal(t, 2, srv.Calls())
		assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	})

	t.Run("403 is a single attempt", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		c := NewClient(testDeps(srv.URL, "bad-key"))

		got := search(t, c, 10, "q")

		assert.Empty(t, got)
		assert.Equal(t, 1, srv.Calls())
	})

	t.Run("other 4xx is terminal", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		c := NewClient(testDeps(srv.URL, "k"))

		assert.Empty(t, search(t, c, 10, "q"))
		assert.Equal(t, 1, srv.Calls())
	})

	t.Run("persistent 5xx exhausts five attempts then moves on", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("query") == "broken" {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			writePage(t, w, 0, 1)
		})
		c := NewClient(testDeps(srv.URL, "k"))

		got := search(t, c, 1, "broken", "fine")

		require.Len(t, got, 1)
		assert.Equal(t, "fine", got[0].SourceQuery)
		assert.Equal(t, 6, srv.Calls())
	})
}

func TestClient_RepeatedQuery(t *testing.T) {
	srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		writePage(t, w, 0, 2)
	})
	c := NewClient(testDeps(srv.URL, "k"))

	got := search(t, c, 2, "q", "q")

	require.Len(t, got, 4)
	assert.Equal(t, []int{1, 2, 1, 2}, []int{got[0].Index, got[1].Index, got[2].Index, got[3].Index})
	assert.Equal(t, 2, srv.Calls())
}

func TestClient_Pacing(t *testing.T) {
	srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		writePage(t, w, 0, 1)
	})
	deps := testDeps(srv.URL, "k")
	deps.HTTP.MinInterval = 100 * time.Millisecond
	c := NewClient(deps)

	start := time.Now()
	got := search(t, c, 1, "a", "b", "c")

	assert.Len(t, got, 3)
	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}
