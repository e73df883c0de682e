// Package crossref provides a retriever for the Crossref REST API.
//
// Crossref does not rank results with a comparable relevance score, so every
// resource it produces carries the same fixed score.
//
// API Documentation: https://api.crossref.org/swagger-ui/index.html
package crossref

// WorksResponse is the envelope of the /works endpoint.
type WorksResponse struct {
	Status  string      `json:"status"`
	Message WorksResult `json:"message"`
}

// WorksResult holds the page of works.
type WorksResult struct {
	TotalResults int    `json:"total-results"`
	Items        []Work `json:"items"`
}

// Work is a single Crossref record restricted to the selected fields.
type Work struct {
	DOI       string    `json:"DOI"`
	URL       string    `json:"URL"`
	Title     []string  `json:"title"`
	Abstract  string    `json:"abstract"`
	Author    []Author  `json:"author"`
	Published *DateInfo `json:"published"`
}

// Author is a Crossref contributor.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"` // organizations
}

// DateInfo carries Crossref's partial dates as [[year, month, day]].
type DateInfo struct {
	DateParts [][]int `json:"date-parts"`
}
