package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/helixir/research-desk/internal/domain"
)

// Compile-time interface verification.
var _ ProviderRepository = (*SQLiteProviderRepository)(nil)

// SQLiteProviderRepository is a SQLite implementation of ProviderRepository.
// available_models is stored as a JSON array.
type SQLiteProviderRepository struct {
	db *sql.DB
}

// NewSQLiteProviderRepository creates a new SQLite provider repository.
func NewSQLiteProviderRepository(db *sql.DB) *SQLiteProviderRepository {
	return &SQLiteProviderRepository{db: db}
}

const sqliteAgentColumns = `slug, is_active, key_value, selected_model, available_models, created_at, updated_at`

const sqliteRetrieverColumns = `slug, key_value, is_active, type, created_at, updated_at`

// GetAgentBySlug returns one agent.
func (r *SQLiteProviderRepository) GetAgentBySlug(ctx context.Context, slug string) (*domain.AIAgent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteAgentColumns+` FROM ai_agents WHERE slug = ?`, slug)

	agent, err := scanSQLiteAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("agent", slug)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

// ListAgents returns every agent ordered by slug.
func (r *SQLiteProviderRepository) ListAgents(ctx context.Context) ([]domain.AIAgent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sqliteAgentColumns+` FROM ai_agents ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	agents := []domain.AIAgent{}
	for rows.Next() {
		a, err := scanSQLiteAgent(rows)
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
func (r *SQLiteProviderRepository) GetRetrieverBySlug(ctx context.Context, slug string) (*domain.SearchRetriever, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteRetrieverColumns+` FROM search_retrievers WHERE slug = ?`, slug)

	ret, err := scanSQLiteRetriever(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("retriever", slug)
		}
		return nil, fmt.Errorf("failed to get retriever: %w", err)
	}
	return ret, nil
}

// ListRetrievers returns every retriever ordered by slug.
func (r *SQLiteProviderRepository) ListRetrievers(ctx context.Context) ([]domain.SearchRetriever, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sqliteRetrieverColumns+` FROM search_retrievers ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to list retrievers: %w", err)
	}
	defer rows.Close()

	retrievers := []domain.SearchRetriever{}
	for rows.Next() {
		ret, err := scanSQLiteRetriever(rows)
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

// UpsertAgent inserts or updates an agent without touching its active flag,
// then reloads the stored timestamps into agent.
func (r *SQLiteProviderRepository) UpsertAgent(ctx context.Context, agent *domain.AIAgent) error {
	if err := validateAgent(agent); err != nil {
		return err
	}

	models := agent.AvailableModels
	if models == nil {
		models = []string{}
	}
	modelsJSON, err := json.Marshal(models)
	if err != nil {
		return fmt.Errorf("failed to marshal available models: %w", err)
	}

	query := `
		INSERT INTO ai_agents (slug, key_value, selected_model, available_models)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			key_value = excluded.key_value,
			selected_model = excluded.selected_model,
			available_models = excluded.available_models,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, agent.Slug, agent.KeyValue, agent.SelectedModel, string(modelsJSON)); err != nil {
		return fmt.Errorf("failed to upsert agent: %w", err)
	}

	stored, err := r.GetAgentBySlug(ctx, agent.Slug)
	if err != nil {
		return fmt.Errorf("failed to reload agent: %w", err)
	}
	agent.IsActive = stored.IsActive
	agent.CreatedAt = stored.CreatedAt
	agent.UpdatedAt = stored.UpdatedAt
	return nil
}

// UpsertRetriever inserts or updates a retriever.
func (r *SQLiteProviderRepository) UpsertRetriever(ctx context.Context, ret *domain.SearchRetriever) error {
	if err := validateRetriever(ret); err != nil {
		return err
	}

	query := `
		INSERT INTO search_retrievers (slug, key_value, is_active, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			key_value = excluded.key_value,
			is_active = excluded.is_active,
			type = excluded.type,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, ret.Slug, ret.KeyValue, ret.IsActive, ret.Type); err != nil {
		return fmt.Errorf("failed to upsert retriever: %w", err)
	}

	stored, err := r.GetRetrieverBySlug(ctx, ret.Slug)
	if err != nil {
		return fmt.Errorf("failed to reload retriever: %w", err)
	}
	ret.CreatedAt = stored.CreatedAt
	ret.UpdatedAt = stored.UpdatedAt
	return nil
}

// ActivateAgent makes slug the only active agent in one transaction.
func (r *SQLiteProviderRepository) ActivateAgent(ctx context.Context, slug string) error {
	if err := validateSlug(slug); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for activation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE ai_agents SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE is_active = 1 AND slug <> ?`, slug); err != nil {
		return fmt.Errorf("failed to deactivate agents: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE ai_agents SET is_active = 1, updated_at = CURRENT_TIMESTAMP WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to activate agent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("agent", slug)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}
	return nil
}

// SetRetrieverActive flips one retriever's active flag.
func (r *SQLiteProviderRepository) SetRetrieverActive(ctx context.Context, slug string, active bool) error {
	if err := validateSlug(slug); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE search_retrievers SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE slug = ?`, active, slug)
	if err != nil {
		return fmt.Errorf("failed to update retriever: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("retriever", slug)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAgent(row rowScanner) (*domain.AIAgent, error) {
	var (
		a      domain.AIAgent
		models string
	)
	if err := row.Scan(&a.Slug, &a.IsActive, &a.KeyValue, &a.SelectedModel, &models,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if models != "" {
		if err := json.Unmarshal([]byte(models), &a.AvailableModels); err != nil {
			return nil, fmt.Errorf("failed to decode available models for %s: %w", a.Slug, err)
		}
	}
	return &a, nil
}

func scanSQLiteRetriever(row rowScanner) (*domain.SearchRetriever, error) {
	var s domain.SearchRetriever
	if err := row.Scan(&s.Slug, &s.KeyValue, &s.IsActive, &s.Type, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
