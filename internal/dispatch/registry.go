package dispatch

import (
	"github.com/helixir/research-desk/internal/agents"
	"github.com/helixir/research-desk/internal/agents/claude"
	"github.com/helixir/research-desk/internal/agents/gemini"
	"github.com/helixir/research-desk/internal/agents/openai"
	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retrievers/arxiv"
	"github.com/helixir/research-desk/internal/retrievers/core"
	"github.com/helixir/research-desk/internal/retrievers/crossref"
	"github.com/helixir/research-desk/internal/retrievers/dblp"
	"github.com/helixir/research-desk/internal/retrievers/elsevier"
	"github.com/helixir/research-desk/internal/retrievers/europepmc"
	"github.com/helixir/research-desk/internal/retrievers/exa"
	"github.com/helixir/research-desk/internal/retrievers/ncbi"
	"github.com/helixir/research-desk/internal/retrievers/openalex"
	"github.com/helixir/research-desk/internal/retrievers/plos"
	"github.com/helixir/research-desk/internal/retrievers/semanticscholar"
)

// DefaultRetrievers returns a registry holding every built-in retriever.
func DefaultRetrievers() *retrievers.Registry {
	r := retrievers.NewRegistry()
	r.Register(domain.RetrieverArXiv, arxiv.New)
	r.Register(domain.RetrieverCrossref, crossref.New)
	r.Register(domain.RetrieverDBLP, dblp.New)
	r.Register(domain.RetrieverEuropePMC, europepmc.New)
	r.Register(domain.RetrieverOpenAlex, openalex.New)
	r.Register(domain.RetrieverPLOS, plos.New)
	r.Register(domain.RetrieverSemanticScholar, semanticscholar.New)
	r.Register(domain.RetrieverCORE, core.New)
	r.Register(domain.RetrieverElsevier, elsevier.New)
	r.Register(domain.RetrieverNCBI, ncbi.New)
	r.Register(domain.RetrieverExa, exa.New)
	return r
}

// DefaultAgents returns a registry holding every built-in agent.
func DefaultAgents() *agents.Registry {
	r := agents.NewRegistry()
	r.Register(domain.AgentOpenAI, openai.New)
	r.Register(domain.AgentClaude, claude.New)
	r.Register(domain.AgentGemini, gemini.New)
	return r
}
