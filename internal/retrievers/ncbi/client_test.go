package ncbi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retrievers/retrievertest"
)

const esummaryBody = `{"header":{"type":"esummary","version":"0.3"},"result":{
  "uids":["200","100"],
  "100":{"uid":"100","title":"Second by relevance","pubdate":"2019 Mar",
         "authors":[{"name":"Smith J","authtype":"Author"}],
         "elocationid":"pii: S1. doi: 10.1000/elocation.1",
         "fulljournalname":"Journal of Tests"},
  "200":{"uid":"200","title":"First by relevance","pubdate":"2021 Jan 5",
         "authors":[{"name":"Doe A"},{"name":"Roe B"}],
         "articleids":[{"idtype":"pubmed","value":"200"},{"idtype":"doi","value":"10.1000/typed.2"}]}
}}`

func TestClient_Search(t *testing.T) {
	t.Run("empty query list makes no request", func(t *testing.T) {
		retrievertest.AssertEmptyQueriesSkipNetwork(t, New, "")
	})

	t.Run("esearch then esummary", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "pubmed", q.Get("db"))
			assert.Equal(t, "json", q.Get("retmode"))
			assert.Equal(t, "k", q.Get("api_key"))
			switch r.URL.Path {
			case "/esearch.fcgi":
				assert.Equal(t, "crispr", q.Get("term"))
				assert.Equal(t, "5", q.Get("retmax"))
				w.Write([]byte(`{"esearchresult":{"count":"2","retmax":"2","idlist":["100","200","300"]}}`))
			case "/esummary.fcgi":
				assert.Equal(t, "100,200,300", q.Get("id"))
				w.Write([]byte(esummaryBody))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})
		c := NewClient(retrievertest.Deps(srv.URL, "k"))

		got, err := c.Search(context.Background(), retrievers.Params{
			Queries: []string{"crispr"},
			Options: retrievers.Options{MaxResults: 5},
		})

		require.NoError(t, err)
		retrievertest.AssertWellFormed(t, got)
		require.Len(t, got, 2)
		assert.Equal(t, 2, srv.Calls())

		assert.Equal(t, "100", got[0].UID)
		assert.Equal(t, "https://doi.org/10.1000/elocation.1", got[0].URL)
		assert.Equal(t, "2019 Mar", got[0].PublishedDate)
		assert.Equal(t, "Journal of Tests", got[0].Summary)

		assert.Equal(t, "200", got[1].UID)
		assert.Equal(t, "https://doi.org/10.1000/typed.2", got[1].URL)
		assert.Equal(t, "Doe A, Roe B", got[1].Author)
	})

	t.Run("zero ids skips esummary", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/esearch.fcgi", r.URL.Path)
			w.Write([]byte(`{"esearchresult":{"count":"0","idlist":[]}}`))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{Queries: []string{"nothing"}})

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, 1, srv.Calls())
	})

	t.Run("pubmed link when no doi", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/esearch.fcgi" {
				assert.Empty(t, r.URL.Query().Get("api_key"))
				w.Write([]byte(`{"esearchresult":{"idlist":["42"]}}`))
				return
			}
			w.Write([]byte(`{"result":{"uids":["42"],"42":{"uid":"42","title":"Bare record"}}}`))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{Queries: []string{"bare"}})

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/42/", got[0].URL)
	})

	t.Run("esearch error message skips query", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"esearchresult":{"ERROR":"Invalid query"}}`))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{Queries: []string{"(("}})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 1, srv.Calls())
	})
}

func TestESummaryResult_UnmarshalJSON(t *testing.T) {
	var r ESummaryResult
	require.NoError(t, json.Unmarshal([]byte(`{"uids":["1"],"1":{"uid":"1","title":"T"},"extra":5}`), &r))

	assert.Equal(t, []string{"1"}, r.UIDs)
	require.Contains(t, r.Summaries, "1")
	assert.Equal(t, "T", r.Summaries["1"].Title)
	assert.NotContains(t, r.Summaries, "extra")
}

func TestNewClient(t *testing.T) {
	c := NewClient(retrievers.Deps{})

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.True(t, c.IsEnabled())
	assert.Equal(t, "ncbi", c.Slug())
	assert.Equal(t, "NCBI PubMed", c.Name())
}
