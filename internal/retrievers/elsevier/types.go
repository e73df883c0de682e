// Package elsevier provides a retriever that fans out to the ScienceDirect
// and Scopus search APIs and merges their results.
//
// API Documentation: https://dev.elsevier.com/api_docs.html
package elsevier

// sciDirectRequest is the PUT body for the ScienceDirect search API.
type sciDirectRequest struct {
	Query   string           `json:"qs"`
	Display sciDirectDisplay `json:"display"`
}

type sciDirectDisplay struct {
	Offset int `json:"offset"`
	Show   int `json:"show"`
}

// SciDirectResponse is the ScienceDirect search envelope.
type SciDirectResponse struct {
	ResultsFound int               `json:"resultsFound"`
	Results      []SciDirectResult `json:"results"`
}

// SciDirectResult is a single ScienceDirect hit.
type SciDirectResult struct {
	DOI             string            `json:"doi"`
	Title           string            `json:"title"`
	URI             string            `json:"uri"`
	PII             string            `json:"pii"`
	PublicationDate string            `json:"publicationDate"`
	SourceTitle     string            `json:"sourceTitle"`
	Authors         []SciDirectAuthor `json:"authors"`
}

// SciDirectAuthor is an author entry in a ScienceDirect hit.
type SciDirectAuthor struct {
	Order int    `json:"order"`
	Name  string `json:"name"`
}

// ScopusResponse is the Scopus search envelope.
type ScopusResponse struct {
	SearchResults struct {
		TotalResults string        `json:"opensearch:totalResults"`
		Entry        []ScopusEntry `json:"entry"`
	} `json:"search-results"`
}

// ScopusEntry is a single Scopus record. An empty result set comes back as
// one entry carrying only an "error" field.
type ScopusEntry struct {
	Identifier  string `json:"dc:identifier"`
	Title       string `json:"dc:title"`
	Creator     string `json:"dc:creator"`
	Description string `json:"dc:description"`
	DOI         string `json:"prism:doi"`
	CoverDate   string `json:"prism:coverDate"`
	URL         string `json:"prism:url"`
	Publication string `json:"prism:publicationName"`
	Error       string `json:"error"`
}
