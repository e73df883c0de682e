// Package domain provides the canonical models shared by retrievers, agents and storage.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ResourceTypePaper is the discriminator carried by every search result.
const ResourceTypePaper = "paper"

// doiResolver is the base URL used for DOI-resolved links.
const doiResolver = "https://doi.org/"

// uidNamespace seeds generated resource identifiers so that the same
// provider record always maps to the same UID.
var uidNamespace = uuid.MustParse("5b0f7a8e-2f5c-4d7a-9c1e-6a3d2b8e4f10")

// Resource is the normalized search result produced by every retriever.
type Resource struct {
	UID           string   `json:"uid"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Score         *float64 `json:"score,omitempty"`
	Summary       string   `json:"summary"`
	SourceQuery   string   `json:"sourceQuery"`
	Index         int      `json:"index"`
	ResourceType  string   `json:"resource_type"`
}

// HasTitle reports whether the resource passes the acceptance gate.
func (r Resource) HasTitle() bool {
	return strings.TrimSpace(r.Title) != ""
}

// NormalizeDOI strips resolver prefixes and whitespace from a DOI.
// It returns an empty string if the input does not look like a DOI.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(lower, prefix) {
			doi = doi[len(prefix):]
			lower = lower[len(prefix):]
		}
	}
	doi = strings.TrimSpace(doi)
	if !strings.HasPrefix(doi, "10.") {
		return ""
	}
	return doi
}

// DOIURL returns the resolver URL for a DOI, or an empty string when no DOI is known.
func DOIURL(doi string) string {
	if doi = NormalizeDOI(doi); doi == "" {
		return ""
	}
	return doiResolver + doi
}

// PreferDOI returns the DOI-resolved link when available, otherwise fallback.
func PreferDOI(doi, fallback string) string {
	if u := DOIURL(doi); u != "" {
		return u
	}
	return strings.TrimSpace(fallback)
}

// GeneratedUID derives a stable identifier for records without a provider ID.
func GeneratedUID(source, key string) string {
	return uuid.NewSHA1(uidNamespace, []byte(source+":"+strings.ToLower(strings.TrimSpace(key)))).String()
}

// JoinAuthors flattens author names into a single comma-separated string.
func JoinAuthors(names []string) string {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.Join(strings.Fields(n), " "); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return strings.Join(cleaned, ", ")
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
