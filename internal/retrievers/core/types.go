// Package core provides a retriever for the CORE v3 aggregation API.
//
// API Documentation: https://api.core.ac.uk/docs/v3
package core

// SearchResponse is the envelope of /search/works.
type SearchResponse struct {
	TotalHits int    `json:"totalHits"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	Results   []Work `json:"results"`
}

// Work is a single CORE output record.
type Work struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	Authors       []Author `json:"authors"`
	DOI           string   `json:"doi"`
	PublishedDate string   `json:"publishedDate"`
	YearPublished int      `json:"yearPublished"`
	DownloadURL   string   `json:"downloadUrl"`
}

// Author is a CORE author entry.
type Author struct {
	Name string `json:"name"`
}
