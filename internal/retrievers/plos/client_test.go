package plos

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retrievers/retrievertest"
)

const docsBody = `{"response":{"numFound":2,"start":0,"maxScore":6.1,"docs":[
  {"id":"10.1371/journal.pone.0000001","title":"Plain title",
   "title_display":"Gene <i>X</i> expression","journal":"PLoS ONE",
   "author_display":["A. Author","B. Author"],
   "abstract":["\nFirst paragraph.","Second paragraph. "],
   "publication_date":"2007-01-01T00:00:00Z","score":6.1},
  {"id":"10.1371/journal.pone.0000002","title":"","publication_date":"2008-02-02T00:00:00Z"}
]}}`

func TestClient_Search(t *testing.T) {
	t.Run("empty query list makes no request", func(t *testing.T) {
		retrievertest.AssertEmptyQueriesSkipNetwork(t, New, "")
	})

	t.Run("maps solr docs", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "gene expression", r.URL.Query().Get("q"))
			assert.Equal(t, "4", r.URL.Query().Get("rows"))
			assert.Equal(t, "json", r.URL.Query().Get("wt"))
			assert.Equal(t, fieldList, r.URL.Query().Get("fl"))
			w.Write([]byte(docsBody))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{
			Queries: []string{"gene expression"},
			Options: retrievers.Options{MaxResults: 4},
		})

		require.NoError(t, err)
		retrievertest.AssertWellFormed(t, got)
		require.Len(t, got, 1)

		assert.Equal(t, "10.1371/journal.pone.0000001", got[0].UID)
		assert.Equal(t, "Gene X expression", got[0].Title)
		assert.Equal(t, "https://doi.org/10.1371/journal.pone.0000001", got[0].URL)
		assert.Equal(t, "2007-01-01", got[0].PublishedDate)
		assert.Equal(t, "A. Author, B. Author", got[0].Author)
		assert.Equal(t, "First paragraph. Second paragraph.", got[0].Summary)
		require.NotNil(t, got[0].Score)
		assert.Equal(t, 6.1, *got[0].Score)
	})

	t.Run("missing response object yields nothing", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{Queries: []string{"q"}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "H2O and CO2", stripMarkup("H<sub>2</sub>O and CO<sub>2</sub>"))
	assert.Equal(t, "plain", stripMarkup("plain"))
}
