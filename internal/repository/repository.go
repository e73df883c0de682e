// Package repository stores provider configuration: which LLM agents and
// search retrievers exist, their API keys, and which ones are active.
//
// The dispatchers only read through ProviderReader. Writes come from the
// CLI and administrative endpoints through ProviderWriter.
//
// # Implementations
//
//   - PgProviderRepository: PostgreSQL via pgx, for shared deployments.
//   - SQLiteProviderRepository: database/sql over mattn/go-sqlite3, the
//     single-user default.
//
// # Error Handling
//
// A missing slug yields a *domain.NotFoundError (errors.Is domain.ErrNotFound).
// Invalid input yields a *domain.ValidationError. Driver errors are wrapped
// with fmt.Errorf and %w.
//
// # Transactions
//
// ActivateAgent deactivates every other agent and activates the target in one
// transaction, so at most one agent is active at any time. Both schemas back
// this with a partial unique index.
package repository

import (
	"context"
	"strings"

	"github.com/helixir/research-desk/internal/database"
	"github.com/helixir/research-desk/internal/domain"
)

// DBTX is the pgx interface satisfied by both the pool and a transaction.
type DBTX = database.DBTX

// ProviderReader is the read-only view used by the dispatchers.
type ProviderReader interface {
	GetAgentBySlug(ctx context.Context, slug string) (*domain.AIAgent, error)
	ListAgents(ctx context.Context) ([]domain.AIAgent, error)
	GetRetrieverBySlug(ctx context.Context, slug string) (*domain.SearchRetriever, error)
	ListRetrievers(ctx context.Context) ([]domain.SearchRetriever, error)
}

// ProviderWriter mutates provider configuration.
type ProviderWriter interface {
	// UpsertAgent stores the agent's key and models. It never changes which
	// agent is active; use ActivateAgent for that.
	UpsertAgent(ctx context.Context, agent *domain.AIAgent) error

	// UpsertRetriever stores the retriever's key, type and active flag.
	UpsertRetriever(ctx context.Context, retriever *domain.SearchRetriever) error

	// ActivateAgent makes slug the only active agent.
	ActivateAgent(ctx context.Context, slug string) error

	// SetRetrieverActive flips one retriever's active flag.
	SetRetrieverActive(ctx context.Context, slug string, active bool) error
}

// ProviderRepository combines reads and writes.
type ProviderRepository interface {
	ProviderReader
	ProviderWriter
}

func validateSlug(slug string) error {
	if strings.TrimSpace(slug) == "" {
		return domain.NewValidationError("slug", "slug is required")
	}
	return nil
}

func validateAgent(a *domain.AIAgent) error {
	if a == nil {
		return domain.NewValidationError("agent", "agent cannot be nil")
	}
	return validateSlug(a.Slug)
}

func validateRetriever(r *domain.SearchRetriever) error {
	if r == nil {
		return domain.NewValidationError("retriever", "retriever cannot be nil")
	}
	if err := validateSlug(r.Slug); err != nil {
		return err
	}
	if r.Type == "" {
		r.Type = domain.RetrieverTypeSearch
	}
	return nil
}
