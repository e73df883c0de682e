// Package openalex searches the OpenAlex catalog of scholarly works through
// its /works endpoint.
//
// API Documentation: https://docs.openalex.org/
package openalex

// selectFields limits the works payload to what workToResource reads.
const selectFields = "id,doi,title,display_name,publication_year,publication_date," +
	"relevance_score,authorships,primary_location,ids,abstract_inverted_index"

// SearchResponse is the envelope of /works?search=.
type SearchResponse struct {
	Results []Work `json:"results"`
}

// Work is the subset of an OpenAlex work used to build a resource.
type Work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationYear int          `json:"publication_year"`
	PublicationDate string       `json:"publication_date"`
	RelevanceScore  *float64     `json:"relevance_score"`
	Authorships     []Authorship `json:"authorships"`
	PrimaryLocation *Location    `json:"primary_location"`
	IDs             struct {
		OpenAlex string `json:"openalex"`
		DOI      string `json:"doi"`
	} `json:"ids"`

	// AbstractInvertedIndex maps each abstract word to its positions.
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

type Authorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type Location struct {
	LandingPageURL string `json:"landing_page_url"`
}
