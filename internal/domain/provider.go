package domain

import "time"

// Retriever slugs.
const (
	RetrieverArXiv           = "arxiv"
	RetrieverCrossref        = "crossref"
	RetrieverDBLP            = "dblp"
	RetrieverEuropePMC       = "europepmc"
	RetrieverOpenAlex        = "openalex"
	RetrieverPLOS            = "plos"
	RetrieverSemanticScholar = "semanticscholar"
	RetrieverCORE            = "core"
	RetrieverElsevier        = "elsevier"
	RetrieverNCBI            = "ncbi"
	RetrieverExa             = "exa"
)

// Agent slugs.
const (
	AgentOpenAI = "openai"
	AgentClaude = "claude"
	AgentGemini = "gemini"
)

// RetrieverTypeSearch is the type assigned to literature search retrievers.
const RetrieverTypeSearch = "search"

// AIAgent is the stored configuration of an LLM provider.
// At most one agent is active at a time; the repository enforces this.
type AIAgent struct {
	Slug            string    `json:"slug"`
	IsActive        bool      `json:"is_active"`
	KeyValue        string    `json:"-"`
	SelectedModel   string    `json:"selected_model"`
	AvailableModels []string  `json:"available_models"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasKey reports whether an API key is stored for the agent.
func (a *AIAgent) HasKey() bool {
	return a != nil && a.KeyValue != ""
}

// SearchRetriever is the stored configuration of a literature search provider.
// Several retrievers may be active simultaneously.
type SearchRetriever struct {
	Slug      string    `json:"slug"`
	KeyValue  string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasKey reports whether an API key is stored for the retriever.
func (r *SearchRetriever) HasKey() bool {
	return r != nil && r.KeyValue != ""
}
