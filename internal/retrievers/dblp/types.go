// Package dblp provides a retriever for the DBLP publication search API.
//
// DBLP results are returned exactly as the provider lists them: two hits with
// the same title but different URLs are both kept.
//
// API Documentation: https://dblp.org/faq/How+to+use+the+dblp+search+API.html
package dblp

import (
	"bytes"
	"encoding/json"
)

// SearchResponse is the envelope of /search/publ/api?format=json.
type SearchResponse struct {
	Result struct {
		Hits struct {
			Total string `json:"@total"`
			Hit   []Hit  `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

// Hit is one search hit.
type Hit struct {
	Score string `json:"@score"`
	ID    string `json:"@id"`
	Info  Info   `json:"info"`
}

// Info holds the bibliographic fields of a hit.
type Info struct {
	Authors Authors `json:"authors"`
	Title   string  `json:"title"`
	Venue   string  `json:"venue"`
	Year    string  `json:"year"`
	Type    string  `json:"type"`
	Key     string  `json:"key"`
	DOI     string  `json:"doi"`
	EE      EE      `json:"ee"`
	URL     string  `json:"url"`
}

// Authors wraps the author list, which DBLP encodes as a single object when
// there is one author and as an array otherwise.
type Authors struct {
	Author AuthorList `json:"author"`
}

// AuthorList decodes either form into a slice.
type AuthorList []Author

// Author is a DBLP person reference. Older payloads use a bare string.
type Author struct {
	PID  string `json:"@pid"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts an object, a string, or an array of either.
func (l *AuthorList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, r := range raw {
			a, err := decodeAuthor(r)
			if err != nil {
				return err
			}
			*l = append(*l, a)
		}
		return nil
	}
	a, err := decodeAuthor(data)
	if err != nil {
		return err
	}
	*l = AuthorList{a}
	return nil
}

func decodeAuthor(data json.RawMessage) (Author, error) {
	var a Author
	if len(data) > 0 && data[0] == '"' {
		err := json.Unmarshal(data, &a.Text)
		return a, err
	}
	err := json.Unmarshal(data, &a)
	return a, err
}

// EE is the electronic edition link, a string or an array of strings.
type EE []string

// UnmarshalJSON accepts a string or an array of strings.
func (e *EE) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*e = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*e = EE{s}
	return nil
}
