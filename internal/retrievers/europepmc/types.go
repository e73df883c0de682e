// Package europepmc provides a retriever for the Europe PMC REST search API.
//
// API Documentation: https://europepmc.org/RestfulWebService
package europepmc

// SearchResponse is the envelope of /search?format=json.
type SearchResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []Result `json:"result"`
	} `json:"resultList"`
}

// Result is a single Europe PMC record (resultType=core).
type Result struct {
	ID                   string `json:"id"`
	Source               string `json:"source"`
	PMID                 string `json:"pmid"`
	PMCID                string `json:"pmcid"`
	DOI                  string `json:"doi"`
	Title                string `json:"title"`
	AuthorString         string `json:"authorString"`
	JournalTitle         string `json:"journalTitle"`
	PubYear              string `json:"pubYear"`
	FirstPublicationDate string `json:"firstPublicationDate"`
	AbstractText         string `json:"abstractText"`
}
