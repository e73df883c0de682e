package retrievertest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/research-desk/internal/domain"
)

// recordingT collects assertion failures instead of failing the test.
type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recordingT) Helper() {}

func res(query string, index int) domain.Resource {
	return domain.Resource{Title: "T", ResourceType: domain.ResourceTypePaper, SourceQuery: query, Index: index}
}

func TestAssertWellFormed(t *testing.T) {
	tests := []struct {
		name      string
		resources []domain.Resource
		ok        bool
	}{
		{"empty", nil, true},
		{"single run", []domain.Resource{res("a", 1), res("a", 2), res("a", 3)}, true},
		{"two queries", []domain.Resource{res("a", 1), res("a", 2), res("b", 1)}, true},
		{"repeated query text", []domain.Resource{res("q", 1), res("q", 2), res("q", 1), res("q", 2)}, true},
		{"starts past one", []domain.Resource{res("a", 2)}, false},
		{"gap in run", []domain.Resource{res("a", 1), res("a", 3)}, false},
		{"run switches query mid-way", []domain.Resource{res("a", 1), res("b", 2)}, false},
		{"missing title", []domain.Resource{{ResourceType: domain.ResourceTypePaper, SourceQuery: "a", Index: 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingT{}
			AssertWellFormed(rec, tt.resources)
			assert.Equal(t, tt.ok, len(rec.errors) == 0, rec.errors)
		})
	}
}
