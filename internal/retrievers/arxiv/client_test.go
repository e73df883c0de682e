package arxiv

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retrievers/retrievertest"
)

const twoEntryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <opensearch:totalResults>2</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models
      are based on recurrent networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:doi>10.48550/arXiv.1706.03762</arxiv:doi>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/hep-th/9901001v1</id>
    <published>1999-01-01T00:00:00Z</published>
    <title>String <i>theory</i> notes</title>
    <summary>Uses <b>bold</b> claims.</summary>
    <author><name>Ed Witten</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/0000.00000v1</id>
    <title>   </title>
  </entry>
</feed>`

const singleEntryFeed = `<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.12345v2</id>
    <title>Only One</title>
    <summary>Lonely abstract</summary>
    <author><name>Solo Author</name></author>
  </entry>
</feed>`

const errorFeed = `<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format</id>
    <title>Error</title>
    <summary>incorrect id format</summary>
  </entry>
</feed>`

func TestClient_Search(t *testing.T) {
	t.Run("empty query list makes no request", func(t *testing.T) {
		retrievertest.AssertEmptyQueriesSkipNetwork(t, New, "")
	})

	t.Run("maps multiple entries", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/query", r.URL.Path)
			assert.Equal(t, "all:attention", r.URL.Query().Get("search_query"))
			assert.Equal(t, "5", r.URL.Query().Get("max_results"))
			w.Write([]byte(twoEntryFeed))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{
			Queries: []string{"attention"},
			Options: retrievers.Options{MaxResults: 5},
		})

		require.NoError(t, err)
		retrievertest.AssertWellFormed(t, got)
		require.Len(t, got, 2)

		assert.Equal(t, "1706.03762", got[0].UID)
		assert.Equal(t, "Attention Is All You Need", got[0].Title)
		assert.Equal(t, "https://doi.org/10.48550/arXiv.1706.03762", got[0].URL)
		assert.Equal(t, "The dominant sequence transduction models are based on recurrent networks.", got[0].Summary)
		assert.Equal(t, "Ashish Vaswani, Noam Shazeer", got[0].Author)
		assert.Equal(t, "2017-06-12T17:57:34Z", got[0].PublishedDate)

		assert.Equal(t, "hep-th/9901001", got[1].UID)
		assert.Equal(t, "http://arxiv.org/abs/hep-th/9901001v1", got[1].URL)
		assert.Contains(t, got[1].Summary, "bold")
	})

	t.Run("handles a single entry feed", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(singleEntryFeed))
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{ProjectTitle: "solo"})

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Only One", got[0].Title)
		assert.Equal(t, "Lonely abstract", got[0].Summary)
		assert.Equal(t, "solo", got[0].SourceQuery)
	})

	t.Run("error feed and malformed xml contribute nothing", func(t *testing.T) {
		srv := retrievertest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("search_query") {
			case "all:bad":
				w.Write([]byte(errorFeed))
			case "all:garbage":
				w.Write([]byte("<feed><entry>"))
			default:
				w.Write([]byte(singleEntryFeed))
			}
		})
		c := NewClient(retrievertest.Deps(srv.URL, ""))

		got, err := c.Search(context.Background(), retrievers.Params{
			Queries: []string{"bad", "garbage", "good"},
		})

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "good", got[0].SourceQuery)
		assert.Equal(t, 1, got[0].Index)
	})
}

func TestExtractArXivID(t *testing.T) {
	assert.Equal(t, "2301.12345", extractArXivID("http://arxiv.org/abs/2301.12345v1"))
	assert.Equal(t, "hep-th/9901001", extractArXivID("http://arxiv.org/abs/hep-th/9901001v3"))
	assert.Empty(t, extractArXivID("https://example.com/paper"))
}
