package europepmc

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retrievers/retrievertest"
)

const searchBody = `{"hitCount":3,"resultList":{"result":[
  {"id":"33301246","source":"MED","pmid":"33301246","doi":"10.1056/NEJMoa2034577",
   "title":"Safety and Efficacy of the BNT162b2 mRNA Covid-19 Vaccine.",
   "authorString":"Polack FP, Thomas SJ, Kitchin N.","pubYear":"2020",
   "firstPublicationDate":"2020-12-10","abstractText":"<h4>Background</h4>Severe acute respiratory syndrome"},
  {"id":"PPR123","source":"PPR","title":"A preprint","pubYear":"2021"},
  {"id":"X","source":"MED","title":""}
]}}`

func TestClient_Search(t *testing.T) {
	t.Run("empty query list makes no request", func(t *testing.T) {
		retrievertest.AssertEmptyQueriesSkipNetwork(t, New, "")
	})

	t.Run("maps result list", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "covid vaccine", r.URL.Query().Get("query"))
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, "core", r.URL.Query().Get("resultType"))
			assert.Equal(t, "3", r.URL.Query().Get("pageSize"))
			w.Write([]byte(searchBody))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{
			Keywords: []string{"covid vaccine"},
			Options:  retrievers.Options{MaxResults: 3},
		})

		require.NoError(t, err)
		retrievertest.AssertWellFormed(t, got)
		require.Len(t, got, 2)

		assert.Equal(t, "MED:33301246", got[0].UID)
		assert.Equal(t, "https://doi.org/10.1056/NEJMoa2034577", got[0].URL)
		assert.Equal(t, "2020-12-10", got[0].PublishedDate)
		assert.Equal(t, "Polack FP, Thomas SJ, Kitchin N", got[0].Author)
		assert.Equal(t, "Background Severe acute respiratory syndrome", got[0].Summary)

		assert.Equal(t, "https://europepmc.org/article/PPR/PPR123", got[1].URL)
		assert.Equal(t, "2021", got[1].PublishedDate)
	})

	t.Run("malformed payload skips query", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"resultList":`))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{Queries: []string{"x"}})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 1, srv.Calls())
	})
}
