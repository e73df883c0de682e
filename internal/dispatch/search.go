package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/observability"
	"github.com/helixir/research-desk/internal/retrievers"
)

// SearchConfig tunes the search dispatcher.
type SearchConfig struct {
	// Timeout bounds a whole ProcessSearch call. Zero means no extra deadline.
	Timeout time.Duration

	// DefaultRetriever is used by SearchDefault. Empty means Exa.
	DefaultRetriever string

	// Deps holds per-slug adapter settings. The stored API key and the
	// dispatcher's logger and recorder are filled in at dispatch time.
	Deps map[string]retrievers.Deps
}

// SearchDispatcher routes searches to the configured retriever.
type SearchDispatcher struct {
	registry *retrievers.Registry
	lookup   Lookup
	cfg      SearchConfig
	metrics  Recorder
	logger   zerolog.Logger
}

// NewSearchDispatcher creates a search dispatcher. A nil recorder discards metrics.
func NewSearchDispatcher(registry *retrievers.Registry, lookup Lookup, cfg SearchConfig, metrics Recorder, logger zerolog.Logger) *SearchDispatcher {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	if cfg.DefaultRetriever == "" {
		cfg.DefaultRetriever = domain.RetrieverExa
	}
	return &SearchDispatcher{
		registry: registry,
		lookup:   lookup,
		cfg:      cfg,
		metrics:  metrics,
		logger:   observability.WithComponent(logger, "search_dispatcher"),
	}
}

// ProcessSearch runs queries against opts.Retriever, or the active retriever
// when none is named. It never fails: any error is logged and yields an
// empty slice.
func (d *SearchDispatcher) ProcessSearch(ctx context.Context, queries []string, opts retrievers.Options) []domain.Resource {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, d.logger)

	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	slug, resources, err := d.search(ctx, queries, opts)
	if slug == "" {
		slug = "unknown"
	}
	if err != nil {
		logger.Error().Err(err).Str("retriever", slug).Msg("search failed")
		d.metrics.RecordSearch(slug, observability.StatusError, time.Since(start), 0)
		return []domain.Resource{}
	}

	status := observability.StatusOK
	if len(resources) == 0 {
		status = observability.StatusEmpty
	}
	d.metrics.RecordSearch(slug, status, time.Since(start), len(resources))
	logger.Info().Str("retriever", slug).Int("queries", len(queries)).Int("resources", len(resources)).
		Dur("elapsed", time.Since(start)).Msg("search completed")
	return resources
}

// SearchDefault runs a single query against the default retriever.
func (d *SearchDispatcher) SearchDefault(ctx context.Context, query string, limit int) []domain.Resource {
	return d.ProcessSearch(ctx, []string{query}, retrievers.Options{
		Retriever:  d.cfg.DefaultRetriever,
		MaxResults: limit,
	})
}

func (d *SearchDispatcher) search(ctx context.Context, queries []string, opts retrievers.Options) (slug string, resources []domain.Resource, err error) {
	slug = opts.Retriever
	defer func() {
		if p := recover(); p != nil {
			resources, err = nil, fmt.Errorf("retriever %q panicked: %v", slug, p)
		}
	}()

	rec, err := d.resolve(ctx, opts.Retriever)
	if err != nil {
		return slug, nil, err
	}
	slug = rec.Slug

	factory, ok := d.registry.Get(rec.Slug)
	if !ok {
		return rec.Slug, nil, fmt.Errorf("%w: retriever %q", domain.ErrUnsupportedProvider, rec.Slug)
	}

	r, err := factory(d.depsFor(rec))
	if err != nil {
		return rec.Slug, nil, fmt.Errorf("creating retriever %q: %w", rec.Slug, err)
	}

	resources, err = r.Search(ctx, retrievers.Params{Queries: queries, Options: opts})
	if err != nil {
		return rec.Slug, nil, fmt.Errorf("searching %q: %w", rec.Slug, err)
	}
	if resources == nil {
		resources = []domain.Resource{}
	}
	return rec.Slug, resources, nil
}

// resolve finds the stored record for slug, or the active retriever when
// slug is empty. A named retriever missing from the store still runs, with
// no key.
func (d *SearchDispatcher) resolve(ctx context.Context, slug string) (*domain.SearchRetriever, error) {
	if slug != "" {
		rec, err := d.lookup.GetRetrieverBySlug(ctx, slug)
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.SearchRetriever{Slug: slug, Type: domain.RetrieverTypeSearch}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading retriever %q: %w", slug, err)
		}
		return rec, nil
	}

	all, err := d.lookup.ListRetrievers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing retrievers: %w", err)
	}
	for i := range all {
		if all[i].IsActive {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no retriever is active", domain.ErrNoActiveProvider)
}

func (d *SearchDispatcher) depsFor(rec *domain.SearchRetriever) retrievers.Deps {
	deps := d.cfg.Deps[rec.Slug]
	deps.APIKey = rec.KeyValue
	deps.Logger = d.logger
	deps.Recorder = d.metrics
	return deps
}
