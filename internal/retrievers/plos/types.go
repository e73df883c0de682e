// Package plos provides a retriever for the PLOS Solr search API.
//
// API Documentation: https://api.plos.org/solr/faq/
package plos

// SearchResponse is the Solr envelope returned by /search?wt=json.
type SearchResponse struct {
	Response struct {
		NumFound int   `json:"numFound"`
		Start    int   `json:"start"`
		Docs     []Doc `json:"docs"`
	} `json:"response"`
}

// Doc is a single PLOS article. The id field is the article DOI.
type Doc struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	TitleDisplay    string   `json:"title_display"`
	AuthorDisplay   []string `json:"author_display"`
	Abstract        []string `json:"abstract"`
	PublicationDate string   `json:"publication_date"`
	Journal         string   `json:"journal"`
	Score           *float64 `json:"score"`
}
