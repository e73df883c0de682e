package retrievers

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/research-desk/internal/domain"
)

// BuildQueries concatenates the project title, explicit queries and keywords,
// dropping blank entries. Order is preserved and duplicates are kept.
func BuildQueries(p Params) []string {
	out := make([]string, 0, 1+len(p.Queries)+len(p.Keywords))
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	add(p.ProjectTitle)
	for _, q := range p.Queries {
		add(q)
	}
	for _, k := range p.Keywords {
		add(k)
	}
	return out
}

// QueryFunc fetches the raw resources for one query. Implementations do not
// need to set SourceQuery, Index or ResourceType.
type QueryFunc func(ctx context.Context, query string, limit int) ([]domain.Resource, error)

// Runner drives the sequential per-query loop shared by every adapter.
type Runner struct {
	Slug     string
	Logger   zerolog.Logger
	Recorder QueryRecorder
}

// NewRunner builds a Runner for the adapter identified by slug.
func NewRunner(slug string, deps Deps) Runner {
	return Runner{
		Slug:     slug,
		Logger:   deps.Logger.With().Str("retriever", slug).Logger(),
		Recorder: deps.Recorder,
	}
}

// Run executes fn for every query in order. A failing query is logged and
// contributes nothing; later queries still run. Context cancellation stops
// the loop and is returned together with whatever was collected.
func (r Runner) Run(ctx context.Context, queries []string, limit int, fn QueryFunc) ([]domain.Resource, error) {
	results := make([]domain.Resource, 0)
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		raw, err := fn(ctx, q, limit)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return results, ctxErr
				}
			}
			r.Logger.Warn().Err(err).Str("query", q).Msg("query failed, skipping")
			r.record(0, err)
			continue
		}

		page := Finalize(q, raw)
		r.Logger.Debug().Str("query", q).Int("results", len(page)).Msg("query completed")
		r.record(len(page), nil)
		results = append(results, page...)
	}
	return results, nil
}

func (r Runner) record(n int, err error) {
	if r.Recorder != nil {
		r.Recorder.RecordSourceQuery(r.Slug, n, err)
	}
}

// Finalize applies the acceptance gate to one query's results: entries
// without a title are dropped and the survivors are stamped with the query,
// the paper discriminator and a contiguous 1-based index.
func Finalize(query string, raw []domain.Resource) []domain.Resource {
	out := make([]domain.Resource, 0, len(raw))
	for _, res := range raw {
		res.Title = strings.TrimSpace(res.Title)
		if !res.HasTitle() {
			continue
		}
		res.SourceQuery = query
		res.ResourceType = domain.ResourceTypePaper
		res.Index = len(out) + 1
		out = append(out, res)
	}
	return out
}

// Truncate returns at most n resources.
func Truncate(in []domain.Resource, n int) []domain.Resource {
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}

// CollapseSpace joins whitespace runs into single spaces and trims the result.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
