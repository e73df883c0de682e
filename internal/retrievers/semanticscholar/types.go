// Package semanticscholar provides a retriever for the Semantic Scholar Graph API.
//
// Semantic Scholar is the strictest provider the desk talks to: it rate limits
// unauthenticated and low-tier keys aggressively, so the adapter paces every
// request at least one second apart and retries 429, 5xx and transport errors
// with exponential backoff. A 403 means the key is invalid and is never retried.
//
// API Documentation: https://api.semanticscholar.org/api-docs/graph
package semanticscholar

// SearchResponse represents the response from the paper search endpoint.
type SearchResponse struct {
	// Total is the number of papers matching the query.
	Total int `json:"total"`

	// Offset is the position of the first item in Data.
	Offset int `json:"offset"`

	// Next is the offset of the following page; absent on the last page.
	Next int `json:"next"`

	// Data contains the papers on this page.
	Data []PaperResult `json:"data"`
}

// PaperResult represents a single paper in a search response.
type PaperResult struct {
	PaperID         string       `json:"paperId"`
	Title           string       `json:"title"`
	Abstract        string       `json:"abstract"`
	Year            int          `json:"year"`
	PublicationDate string       `json:"publicationDate"`
	URL             string       `json:"url"`
	Authors         []Author     `json:"authors"`
	ExternalIDs     *ExternalIDs `json:"externalIds,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	DOI   string `json:"DOI,omitempty"`
	ArXiv string `json:"ArXiv,omitempty"`
}

// Author represents a paper author.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
