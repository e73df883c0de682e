// Package ncbi provides a PubMed retriever over the NCBI E-utilities.
//
// A search is two calls: ESearch resolves a query to PubMed UIDs, then
// ESummary fetches document summaries for those UIDs.
//
// API Documentation: https://www.ncbi.nlm.nih.gov/books/NBK25499/
package ncbi

import (
	"encoding/json"
	"fmt"
)

// ESearchResponse is the JSON envelope of esearch.fcgi.
type ESearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		RetMax string   `json:"retmax"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
}

// ESummaryResponse is the JSON envelope of esummary.fcgi. The result object
// holds a "uids" array plus one summary object keyed by each UID.
type ESummaryResponse struct {
	Result ESummaryResult `json:"result"`
}

// ESummaryResult is the decoded result object.
type ESummaryResult struct {
	UIDs      []string
	Summaries map[string]DocSummary
}

// UnmarshalJSON splits the mixed-shape result object.
func (r *ESummaryResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Summaries = make(map[string]DocSummary, len(raw))
	for key, msg := range raw {
		if key == "uids" {
			if err := json.Unmarshal(msg, &r.UIDs); err != nil {
				return fmt.Errorf("decoding uids: %w", err)
			}
			continue
		}
		var doc DocSummary
		if err := json.Unmarshal(msg, &doc); err != nil {
			// Unknown non-object keys are skipped.
			continue
		}
		r.Summaries[key] = doc
	}
	return nil
}

// DocSummary is a PubMed document summary.
type DocSummary struct {
	UID             string      `json:"uid"`
	Title           string      `json:"title"`
	PubDate         string      `json:"pubdate"`
	EPubDate        string      `json:"epubdate"`
	SortPubDate     string      `json:"sortpubdate"`
	FullJournalName string      `json:"fulljournalname"`
	ELocationID     string      `json:"elocationid"`
	Authors         []DocAuthor `json:"authors"`
	ArticleIDs      []ArticleID `json:"articleids"`
}

// DocAuthor is an author in a document summary.
type DocAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

// ArticleID is a typed identifier such as a DOI or PMC id.
type ArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}
