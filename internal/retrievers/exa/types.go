// Package exa provides a retriever for the Exa neural search API. Exa is
// the default retriever when a caller does not name a provider.
//
// API Documentation: https://docs.exa.ai/reference/search
package exa

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query         string    `json:"query"`
	NumResults    int       `json:"numResults"`
	UseAutoprompt bool      `json:"useAutoprompt"`
	Type          string    `json:"type,omitempty"`
	Category      string    `json:"category,omitempty"`
	Contents      *Contents `json:"contents,omitempty"`
}

// Contents asks Exa to return page text alongside each result.
type Contents struct {
	Text TextOptions `json:"text"`
}

// TextOptions bounds returned page text.
type TextOptions struct {
	MaxCharacters int `json:"maxCharacters"`
}

// SearchResponse is the Exa search envelope.
type SearchResponse struct {
	RequestID          string   `json:"requestId"`
	AutopromptString   string   `json:"autopromptString"`
	ResolvedSearchType string   `json:"resolvedSearchType"`
	Results            []Result `json:"results"`
}

// Result is a single Exa hit.
type Result struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Score         *float64 `json:"score"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Text          string   `json:"text"`
	Summary       string   `json:"summary"`
}
