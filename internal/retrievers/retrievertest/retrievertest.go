// Package retrievertest provides helpers shared by adapter tests.
package retrievertest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retry"
)

// TestingT is the subset of *testing.T the assertions need.
type TestingT interface {
	assert.TestingT
	Helper()
}

// Server is an httptest.Server that counts requests.
type Server struct {
	*httptest.Server
	calls atomic.Int32
}

// NewServer starts a counting test server. It is closed on test cleanup.
func NewServer(t *testing.T, h http.HandlerFunc) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Calls returns how many requests the server has received.
func (s *Server) Calls() int {
	return int(s.calls.Load())
}

// Deps returns adapter dependencies pointed at baseURL with fast retries and no pacing.
func Deps(baseURL, apiKey string) retrievers.Deps {
	return retrievers.Deps{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP: retrievers.HTTPClientConfig{
			Timeout:     5 * time.Second,
			RateLimit:   1000,
			BurstSize:   100,
			MinInterval: time.Millisecond,
			Retry:       retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		},
		Logger: zerolog.Nop(),
	}
}

// AssertEmptyQueriesSkipNetwork checks that a search with only blank queries
// returns an empty result without contacting the provider.
func AssertEmptyQueriesSkipNetwork(t *testing.T, factory retrievers.Factory, apiKey string) {
	t.Helper()
	srv := NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r, err := factory(Deps(srv.URL, apiKey))
	require.NoError(t, err)

	got, err := r.Search(context.Background(), retrievers.Params{
		Queries:  []string{"", "  "},
		Keywords: []string{""},
	})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, srv.Calls())
}

// AssertWellFormed checks the invariants every adapter result must satisfy:
// non-empty titles, the paper discriminator, and a contiguous 1-based index
// within each query's contribution. A query's run starts at index 1, so the
// same query text may appear in more than one run.
func AssertWellFormed(t TestingT, resources []domain.Resource) {
	t.Helper()
	for i, r := range resources {
		assert.NotEmpty(t, r.Title, "resource %d has no title", i)
		assert.Equal(t, domain.ResourceTypePaper, r.ResourceType)
		assert.NotEmpty(t, r.SourceQuery)

		if i == 0 || r.Index == 1 {
			assert.Equal(t, 1, r.Index, "resource %d index", i)
			continue
		}
		prev := resources[i-1]
		assert.Equal(t, prev.SourceQuery, r.SourceQuery, "resource %d continues another query's run", i)
		assert.Equal(t, prev.Index+1, r.Index, "resource %d index", i)
	}
}
