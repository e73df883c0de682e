package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/research-desk/internal/database"
	"github.com/helixir/research-desk/internal/domain"
)

// Compile-time interface verification.
var _ ProviderRepository = (*PgProviderRepository)(nil)

// PgProviderRepository is a PostgreSQL implementation of ProviderRepository.
type PgProviderRepository struct {
	db DBTX
}

// NewPgProviderRepository creates a new PostgreSQL provider repository.
func NewPgProviderRepository(db DBTX) *PgProviderRepository {
	return &PgProviderRepository{db: db}
}

const pgAgentColumns = `slug, is_active, key_value, selected_model, available_models, created_at, updated_at`

const pgRetrieverColumns = `slug, key_value, is_active, type, created_at, updated_at`

// GetAgentBySlug returns one agent.
func (r *PgProviderRepository) GetAgentBySlug(ctx context.Context, slug string) (*domain.AIAgent, error) {
	query := `SELECT ` + pgAgentColumns + ` FROM ai_agents WHERE slug = $1`

	agent, err := scanPgAgent(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("agent", slug)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

// ListAgents returns every agent ordered by slug.
func (r *PgProviderRepository) ListAgents(ctx context.Context) ([]domain.AIAgent, error) {
	query := `SELECT ` + pgAgentColumns + ` FROM ai_agents ORDER BY slug`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := []domain.AIAgent{}
	for rows.Next() {
		a, err := scanPgAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}
	return agents, nil
}

// GetRetrieverBySlug returns one retriever.
func (r *PgProviderRepository) GetRetrieverBySlug(ctx context.Context, slug string) (*domain.SearchRetriever, error) {
	query := `SELECT ` + pgRetrieverColumns + ` FROM search_retrievers WHERE slug = $1`

	ret, err := scanPgRetriever(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("retriever", slug)
		}
		return nil, fmt.Errorf("failed to get retriever: %w", err)
	}
	return ret, nil
}

// ListRetrievers returns every retriever ordered by slug.
func (r *PgProviderRepository) ListRetrievers(ctx context.Context) ([]domain.SearchRetriever, error) {
	query := `SELECT ` + pgRetrieverColumns + ` FROM search_retrievers ORDER BY slug`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list retrievers: %w", err)
	}
	defer rows.Close()

	retrievers := []domain.SearchRetriever{}
	for rows.Next() {
		ret, err := scanPgRetriever(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan retriever: %w", err)
		}
		retrievers = append(retrievers, *ret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating retrievers: %w", err)
	}
	return retrievers, nil
}

// UpsertAgent inserts or updates an agent. The stored active flag and
// timestamps are written back into agent.
func (r *PgProviderRepository) UpsertAgent(ctx context.Context, agent *domain.AIAgent) error {
	if err := validateAgent(agent); err != nil {
		return err
	}

	models := agent.AvailableModels
	if models == nil {
		models = []string{}
	}

	query := `
		INSERT INTO ai_agents (slug, key_value, selected_model, available_models)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET
			key_value = EXCLUDED.key_value,
			selected_model = EXCLUDED.selected_model,
			available_models = EXCLUDED.available_models,
			updated_at = NOW()
		RETURNING is_active, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, agent.Slug, agent.KeyValue, agent.SelectedModel, models).
		Scan(&agent.IsActive, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert agent: %w", err)
	}
	return nil
}

// UpsertRetriever inserts or updates a retriever.
func (r *PgProviderRepository) UpsertRetriever(ctx context.Context, ret *domain.SearchRetriever) error {
	if err := validateRetriever(ret); err != nil {
		return err
	}

	query := `
		INSERT INTO search_retrievers (slug, key_value, is_active, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET
			key_value = EXCLUDED.key_value,
			is_active = EXCLUDED.is_active,
			type = EXCLUDED.type,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, ret.Slug, ret.KeyValue, ret.IsActive, ret.Type).
		Scan(&ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert retriever: %w", err)
	}
	return nil
}

// ActivateAgent makes slug the only active agent. When the repository wraps
// a pool the two updates run in their own transaction.
func (r *PgProviderRepository) ActivateAgent(ctx context.Context, slug string) error {
	if err := validateSlug(slug); err != nil {
		return err
	}

	if beginner, ok := r.db.(database.TxBeginner); ok {
		return database.InTx(ctx, beginner, func(tx pgx.Tx) error {
			return activate(ctx, tx, slug)
		})
	}
	return activate(ctx, r.db, slug)
}

func activate(ctx context.Context, db DBTX, slug string) error {
	// Deactivate first so the single-active index never sees two rows.
	_, err := db.Exec(ctx,
		`UPDATE ai_agents SET is_active = FALSE, updated_at = NOW() WHERE is_active AND slug <> $1`, slug)
	if err != nil {
		return fmt.Errorf("failed to deactivate agents: %w", err)
	}

	tag, err := db.Exec(ctx,
		`UPDATE ai_agents SET is_active = TRUE, updated_at = NOW() WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("failed to activate agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("agent", slug)
	}
	return nil
}

// SetRetrieverActive flips one retriever's active flag.
func (r *PgProviderRepository) SetRetrieverActive(ctx context.Context, slug string, active bool) error {
	if err := validateSlug(slug); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE search_retrievers SET is_active = $2, updated_at = NOW() WHERE slug = $1`, slug, active)
	if err != nil {
		return fmt.Errorf("failed to update retriever: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("retriever", slug)
	}
	return nil
}

func scanPgAgent(row pgx.Row) (*domain.AIAgent, error) {
	var a domain.AIAgent
	if err := row.Scan(&a.Slug, &a.IsActive, &a.KeyValue, &a.SelectedModel, &a.AvailableModels,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanPgRetriever(row pgx.Row) (*domain.SearchRetriever, error) {
	var s domain.SearchRetriever
	if err := row.Scan(&s.Slug, &s.KeyValue, &s.IsActive, &s.Type, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
