package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.1000/xyz", "10.1000/xyz"},
		{"  https://doi.org/10.1000/xyz ", "10.1000/xyz"},
		{"http://dx.doi.org/10.1000/xyz", "10.1000/xyz"},
		{"DOI:10.1000/xyz", "10.1000/xyz"},
		{"HTTPS://DOI.ORG/10.1000/ABC", "10.1000/ABC"},
		{"arXiv:2101.00001", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDOI(tt.in), "input %q", tt.in)
	}
}

func TestDOIURLAndPreferDOI(t *testing.T) {
	assert.Equal(t, "https://doi.org/10.1000/xyz", DOIURL("doi:10.1000/xyz"))
	assert.Empty(t, DOIURL("not-a-doi"))

	assert.Equal(t, "https://doi.org/10.1000/xyz", PreferDOI("10.1000/xyz", "https://example.org/p"))
	assert.Equal(t, "https://example.org/p", PreferDOI("", " https://example.org/p "))
}

func TestGeneratedUID(t *testing.T) {
	a := GeneratedUID("dblp", "Attention Is All You Need")
	b := GeneratedUID("dblp", "  attention is all you need ")
	c := GeneratedUID("crossref", "Attention Is All You Need")

	assert.Equal(t, a, b, "same source and key should map to the same UID")
	assert.NotEqual(t, a, c, "source is part of the identity")
	assert.Len(t, a, 36)
}

func TestJoinAuthors(t *testing.T) {
	assert.Equal(t, "Ada Lovelace, Alan Turing", JoinAuthors([]string{" Ada  Lovelace", "", "Alan Turing "}))
	assert.Empty(t, JoinAuthors(nil))
}

func TestResourceHasTitle(t *testing.T) {
	assert.True(t, Resource{Title: "x"}.HasTitle())
	assert.False(t, Resource{Title: "  \t"}.HasTitle())
}

func TestProviderHasKey(t *testing.T) {
	var nilAgent *AIAgent
	assert.False(t, nilAgent.HasKey())
	assert.True(t, (&AIAgent{KeyValue: "k"}).HasKey())

	var nilRetriever *SearchRetriever
	assert.False(t, nilRetriever.HasKey())
	assert.False(t, (&SearchRetriever{}).HasKey())
}
