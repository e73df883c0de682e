// Package app assembles the provider store and both dispatchers from
// configuration. The HTTP server and the CLI share it so they behave the
// same against the same config file.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/config"
	"github.com/helixir/research-desk/internal/database"
	"github.com/helixir/research-desk/internal/dispatch"
	"github.com/helixir/research-desk/internal/repository"
	"github.com/helixir/research-desk/internal/retrievers"
	"github.com/helixir/research-desk/internal/retry"
)

// App holds the wired components.
type App struct {
	Config *config.Config
	Store  repository.ProviderRepository
	Search *dispatch.SearchDispatcher
	Agents *dispatch.AgentDispatcher

	ping    func(ctx context.Context) error
	closers []func()
	logger  zerolog.Logger
}

// Open connects to the configured store, applies migrations when
// database.migration_auto_run is set, and builds the dispatchers.
// A nil recorder discards metrics.
func Open(ctx context.Context, cfg *config.Config, metrics dispatch.Recorder, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	var err error
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		err = a.openPostgres(ctx)
	default:
		err = a.openSQLite(ctx)
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Search = dispatch.NewSearchDispatcher(dispatch.DefaultRetrievers(), a.Store, SearchConfig(cfg), metrics, logger)
	a.Agents = dispatch.NewAgentDispatcher(dispatch.DefaultAgents(), a.Store, AgentConfig(cfg), metrics, logger)
	return a, nil
}

func (a *App) openPostgres(ctx context.Context) error {
	db, err := database.New(ctx, &a.Config.Database, a.logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.ping = db.Ping

	if a.Config.Database.MigrationAutoRun {
		m, err := database.NewPostgresMigrator(db, a.logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		if err := runMigrations(m, a.logger); err != nil {
			return err
		}
	}

	a.Store = repository.NewPgProviderRepository(db)
	return nil
}

func (a *App) openSQLite(ctx context.Context) error {
	path := a.Config.Database.SQLitePath

	// Migrate before opening the shared handle; the migrator holds its own.
	if a.Config.Database.MigrationAutoRun {
		m, err := database.NewSQLiteMigrator(path, a.logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		if err := runMigrations(m, a.logger); err != nil {
			return err
		}
	}

	db, err := database.OpenSQLite(ctx, path, a.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() {
		if err := db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close sqlite database")
		}
	})
	a.ping = db.PingContext

	a.Store = repository.NewSQLiteProviderRepository(db)
	return nil
}

func runMigrations(m *database.Migrator, logger zerolog.Logger) error {
	defer func() {
		if err := m.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close migrator")
		}
	}()
	if err := m.Up(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Ping checks that the store is reachable.
func (a *App) Ping(ctx context.Context) error {
	if a.ping == nil {
		return fmt.Errorf("store not initialized")
	}
	return a.ping(ctx)
}

// Close releases the store connection. It is safe to call more than once.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// SearchConfig derives the search dispatcher settings from cfg.
func SearchConfig(cfg *config.Config) dispatch.SearchConfig {
	deps := make(map[string]retrievers.Deps, len(config.RetrieverSlugs))
	for _, slug := range config.RetrieverSlugs {
		deps[slug] = RetrieverDeps(cfg, slug)
	}
	return dispatch.SearchConfig{
		Timeout:          cfg.Search.Timeout,
		DefaultRetriever: cfg.Search.DefaultRetriever,
		Deps:             deps,
	}
}

// RetrieverDeps builds the adapter settings for one retriever. Fields left
// at zero in the retriever's section keep the adapter's own defaults.
func RetrieverDeps(cfg *config.Config, slug string) retrievers.Deps {
	rc := cfg.Retrievers[slug]

	maxResults := rc.MaxResults
	if maxResults == 0 {
		maxResults = cfg.Search.DefaultMaxResults
	}

	var policy retry.Policy
	if rc.MaxRetries > 0 {
		policy = retry.Default()
		policy.MaxAttempts = rc.MaxRetries + 1
		if rc.RetryDelay > 0 {
			policy.BaseDelay = rc.RetryDelay
		}
	}

	return retrievers.Deps{
		HTTP: retrievers.HTTPClientConfig{
			Source:      slug,
			Timeout:     rc.Timeout,
			RateLimit:   rc.RateLimit,
			BurstSize:   rc.Burst,
			MinInterval: rc.MinInterval,
			Retry:       policy,
			UserAgent:   cfg.Search.UserAgent,
		},
		BaseURL:    rc.BaseURL,
		MaxResults: maxResults,
		Mailto:     cfg.Search.Mailto,
	}
}

// AgentConfig derives the agent dispatcher settings from cfg.
func AgentConfig(cfg *config.Config) dispatch.AgentConfig {
	attempts := cfg.Agents.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.Agents.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return dispatch.AgentConfig{
		Timeout: cfg.Agents.Timeout,
		Retry: retry.Policy{
			MaxAttempts: attempts,
			BaseDelay:   delay,
			MaxDelay:    30 * time.Second,
		},
		SystemPrompt: cfg.Agents.DefaultSystemPrompt,
		BaseURLs:     cfg.Agents.BaseURLs(),
	}
}
