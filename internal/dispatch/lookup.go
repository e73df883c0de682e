package dispatch

import (
	"context"
	"time"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

// Lookup is the read-only view of stored provider configuration.
type Lookup interface {
	GetAgentBySlug(ctx context.Context, slug string) (*domain.AIAgent, error)
	ListAgents(ctx context.Context) ([]domain.AIAgent, error)
	GetRetrieverBySlug(ctx context.Context, slug string) (*domain.SearchRetriever, error)
	ListRetrievers(ctx context.Context) ([]domain.SearchRetriever, error)
}

// Recorder receives dispatcher metrics.
type Recorder interface {
	retrievers.QueryRecorder
	RecordSearch(retriever, status string, d time.Duration, resources int)
	RecordLLMRequest(agent, outcome string, d time.Duration)
}

// NopRecorder discards all metrics.
type NopRecorder struct{}

// RecordSourceQuery implements retrievers.QueryRecorder.
func (NopRecorder) RecordSourceQuery(string, int, error) {}

// RecordSearch implements Recorder.
func (NopRecorder) RecordSearch(string, string, time.Duration, int) {}

// RecordLLMRequest implements Recorder.
func (NopRecorder) RecordLLMRequest(string, string, time.Duration) {}
