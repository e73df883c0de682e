package httpserver

import (
	"time"

	"github.com/helixir/research-desk/internal/domain"
)

type searchResponse struct {
	Resources []domain.Resource `json:"resources"`
	Count     int               `json:"count"`
}

type queryResponse struct {
	Text string `json:"text"`
}

// Provider listings never carry keys, only whether one is stored.

type agentResponse struct {
	Slug            string    `json:"slug"`
	IsActive        bool      `json:"is_active"`
	HasKey          bool      `json:"has_key"`
	SelectedModel   string    `json:"selected_model,omitempty"`
	AvailableModels []string  `json:"available_models"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type retrieverResponse struct {
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	HasKey    bool      `json:"has_key"`
	Type      string    `json:"type"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listAgentsResponse struct {
	Agents []agentResponse `json:"agents"`
}

type listRetrieversResponse struct {
	Retrievers []retrieverResponse `json:"retrievers"`
}

func domainAgentToResponse(a *domain.AIAgent) agentResponse {
	models := a.AvailableModels
	if models == nil {
		models = []string{}
	}
	return agentResponse{
		Slug:            a.Slug,
		IsActive:        a.IsActive,
		HasKey:          a.HasKey(),
		SelectedModel:   a.SelectedModel,
		AvailableModels: models,
		UpdatedAt:       a.UpdatedAt,
	}
}

func domainRetrieverToResponse(r *domain.SearchRetriever) retrieverResponse {
	return retrieverResponse{
		Slug:      r.Slug,
		IsActive:  r.IsActive,
		HasKey:    r.HasKey(),
		Type:      r.Type,
		UpdatedAt: r.UpdatedAt,
	}
}
