// Command migrate applies the provider store schema for the configured
// driver (sqlite or postgres).
//
//	migrate -up
//	migrate -steps -1
//	migrate -force 1
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/config"
	"github.com/helixir/research-desk/internal/database"
	"github.com/helixir/research-desk/internal/observability"
)

// connectTimeout bounds the PostgreSQL connection attempt.
const connectTimeout = 30 * time.Second

var errNoAction = errors.New("no action specified")

// action is one migrator operation selected on the command line.
type action struct {
	name string
	run  func(m *database.Migrator) error
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	up := fs.Bool("up", false, "apply all pending migrations")
	down := fs.Bool("down", false, "roll back every migration")
	steps := fs.Int("steps", 0, "apply N migrations (negative rolls back)")
	version := fs.Bool("version", false, "print the current schema version")
	force := fs.Int("force", -1, "mark version V as applied without running it")
	configFile := fs.String("config", "", "config file (default: ./config.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	act, err := selectAction(*up, *down, *steps, *version, *force)
	if err != nil {
		if errors.Is(err, errNoAction) {
			fs.Usage()
		}
		return err
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}).With().Str("component", "migrate").Str("driver", cfg.Database.Driver).Logger()

	migrator, release, err := openMigrator(cfg, logger)
	if err != nil {
		return err
	}
	defer release()
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close migrator")
		}
	}()

	logger.Info().Str("action", act.name).Msg("migrating provider store")
	if err := act.run(migrator); err != nil {
		return fmt.Errorf("%s: %w", act.name, err)
	}
	logVersion(migrator, logger)
	return nil
}

// selectAction maps the flags onto exactly one migrator operation.
func selectAction(up, down bool, steps int, version bool, force int) (action, error) {
	var picked []action
	if up {
		picked = append(picked, action{"up", (*database.Migrator).Up})
	}
	if down {
		picked = append(picked, action{"down", (*database.Migrator).Down})
	}
	if steps != 0 {
		picked = append(picked, action{"steps", func(m *database.Migrator) error { return m.Steps(steps) }})
	}
	if version {
		picked = append(picked, action{"version", func(*database.Migrator) error { return nil }})
	}
	if force >= 0 {
		picked = append(picked, action{"force", func(m *database.Migrator) error { return m.Force(force) }})
	}

	switch len(picked) {
	case 0:
		return action{}, fmt.Errorf("%w: use one of -up, -down, -steps N, -version, -force V", errNoAction)
	case 1:
		return picked[0], nil
	default:
		return action{}, errors.New("specify only one action at a time")
	}
}

// openMigrator builds a migrator for the configured driver. The returned
// func releases the PostgreSQL pool, if one was opened.
func openMigrator(cfg *config.Config, logger zerolog.Logger) (*database.Migrator, func(), error) {
	if cfg.Database.Driver != config.DriverPostgres {
		m, err := database.NewSQLiteMigrator(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("create migrator: %w", err)
		}
		return m, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	m, err := database.NewPostgresMigrator(db, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, db.Close, nil
}

func logVersion(m *database.Migrator, logger zerolog.Logger) {
	v, dirty, err := m.Version()
	if err != nil {
		logger.Warn().Err(err).Msg("could not determine schema version")
		return
	}
	logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
}
