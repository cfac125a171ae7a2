// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

// Package search runs the orchestration pass: dispatch queries to place
// search providers, collect whatever succeeds, deduplicate, filter by
// quality, truncate, then enrich and rank the final list. Provider failures
// degrade the result, they never fail the pass.
package search

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/venuescout/venuescout/internal/config"
	"github.com/venuescout/venuescout/internal/logging"
	"github.com/venuescout/venuescout/internal/metrics"
	"github.com/venuescout/venuescout/internal/models"
	"github.com/venuescout/venuescout/internal/providers"
)

// Orchestrator fans search queries out to the configured providers and
// reduces the answers into one bounded venue list.
type Orchestrator struct {
	cfg       config.SearchConfig
	searchers []providers.PlaceSearcher
	enricher  providers.Enricher
	ranker    providers.Ranker
}

// New creates an orchestrator. enricher and ranker may be nil; the
// corresponding stages are skipped.
func New(cfg config.SearchConfig, searchers []providers.PlaceSearcher, enricher providers.Enricher, ranker providers.Ranker) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		searchers: searchers,
		enricher:  enricher,
		ranker:    ranker,
	}
}

// Search runs one orchestration pass. The request must carry resolved
// coordinates; free-text geocoding happens before the orchestrator is
// invoked. All providers failing yields an empty result with a nil error.
func (o *Orchestrator) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	start := time.Now()
	defer func() {
		metrics.SearchPassDuration.Observe(time.Since(start).Seconds())
	}()

	queries := o.resolveQueries(req)
	radius := req.RadiusMeters
	if radius <= 0 {
		radius = o.cfg.DefaultRadiusMeters
	}

	candidates := o.dispatch(ctx, queries, *req.Coordinates, radius)
	candidates = deduplicate(candidates)
	candidates = o.filter(ctx, candidates)
	if len(candidates) > o.cfg.MaxResults {
		candidates = candidates[:o.cfg.MaxResults]
	}

	o.enrich(ctx, candidates)
	candidates = o.rank(ctx, req.Occasion, candidates)

	metrics.SearchVenuesReturned.Observe(float64(len(candidates)))
	logging.Ctx(ctx).Info().
		Int("queries", len(queries)).
		Int("venues", len(candidates)).
		Dur("elapsed", time.Since(start)).
		Msg("search pass complete")

	return &models.SearchResult{
		Venues:      candidates,
		UsedQueries: queries,
	}, nil
}

// resolveQueries returns the caller's queries capped at the fan-out bound,
// falling back to the occasion itself when none were given.
func (o *Orchestrator) resolveQueries(req *models.SearchRequest) []string {
	queries := req.Queries
	if len(queries) == 0 {
		queries = []string{req.Occasion}
	}
	if len(queries) > o.cfg.MaxQueries {
		queries = queries[:o.cfg.MaxQueries]
	}
	return queries
}

// dispatch issues every (provider, query) pair and collects whatever
// succeeds. Parallel-friendly providers fan out concurrently; throttled
// providers run a serialized loop with a pause between queries. A failed
// query contributes zero candidates and is never fatal.
func (o *Orchestrator) dispatch(ctx context.Context, queries []string, location models.Coordinates, radius int) []models.VenueCandidate {
	var mu sync.Mutex
	// Non-nil even when every query fails, so an empty pass serializes as
	// an empty list rather than null.
	candidates := make([]models.VenueCandidate, 0)
	collect := func(venues []models.VenueCandidate) {
		mu.Lock()
		candidates = append(candidates, venues...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, searcher := range o.searchers {
		if !searcher.IsAvailable() {
			continue
		}

		if searcher.SerializeQueries() {
			g.Go(func() error {
				o.runSerialized(gctx, searcher, queries, location, radius, collect)
				return nil
			})
			continue
		}

		for _, query := range queries {
			g.Go(func() error {
				if venues, ok := o.runQuery(gctx, searcher, query, location, radius); ok {
					collect(venues)
				}
				return nil
			})
		}
	}

	// Workers only report failures through metrics and logs.
	_ = g.Wait()
	return candidates
}

// runSerialized issues the queries one at a time against a throttled
// provider, pausing between them.
func (o *Orchestrator) runSerialized(ctx context.Context, searcher providers.PlaceSearcher, queries []string, location models.Coordinates, radius int, collect func([]models.VenueCandidate)) {
	for i, query := range queries {
		if i > 0 && o.cfg.InterQueryDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.cfg.InterQueryDelay):
			}
		}
		if venues, ok := o.runQuery(ctx, searcher, query, location, radius); ok {
			collect(venues)
		}
	}
}

func (o *Orchestrator) runQuery(ctx context.Context, searcher providers.PlaceSearcher, query string, location models.Coordinates, radius int) ([]models.VenueCandidate, bool) {
	venues, err := searcher.SearchPlaces(ctx, query, location, radius)
	if err != nil {
		metrics.SearchQueryFailures.Inc()
		logging.Ctx(ctx).Warn().Err(err).
			Str("provider", searcher.Name()).
			Str("query", query).
			Msg("search query failed")
		return nil, false
	}
	return venues, true
}

// deduplicate merges candidates first-seen-wins, by provider identity and by
// the cross-provider composite key. No fuzzy matching: near-duplicates with
// different rounded coordinates or names stay distinct.
func deduplicate(candidates []models.VenueCandidate) []models.VenueCandidate {
	seen := make(map[string]bool, len(candidates)*2)
	out := candidates[:0]
	for _, c := range candidates {
		composite := c.CompositeKey()
		if seen[c.Identity] || seen[composite] {
			continue
		}
		seen[c.Identity] = true
		seen[composite] = true
		out = append(out, c)
	}
	return out
}

// filter keeps candidates with at least one quality signal, unless doing so
// would shrink the set below the configured floor, in which case the whole
// filter is skipped.
func (o *Orchestrator) filter(ctx context.Context, candidates []models.VenueCandidate) []models.VenueCandidate {
	filtered := make([]models.VenueCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.HasQualitySignal() {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) < o.cfg.FilterFloor {
		logging.Ctx(ctx).Debug().
			Int("unfiltered", len(candidates)).
			Int("filtered", len(filtered)).
			Msg("quality filter skipped below floor")
		return candidates
	}
	return filtered
}

// enrich attaches descriptions to the final candidates in place.
// Best-effort: a failed or empty lookup leaves the description blank.
func (o *Orchestrator) enrich(ctx context.Context, candidates []models.VenueCandidate) {
	if o.enricher == nil || !o.enricher.IsAvailable() {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range candidates {
		g.Go(func() error {
			desc, err := o.enricher.Describe(gctx, candidates[i].Name)
			if err != nil {
				logging.Ctx(ctx).Debug().Err(err).Str("venue", candidates[i].Name).Msg("enrichment failed")
				return nil
			}
			candidates[i].Description = desc
			return nil
		})
	}
	_ = g.Wait()
}

// rank asks the inference provider to order the final list. Failure keeps
// the collected order.
func (o *Orchestrator) rank(ctx context.Context, occasion string, candidates []models.VenueCandidate) []models.VenueCandidate {
	if o.ranker == nil || !o.ranker.IsAvailable() || len(candidates) < 2 {
		return candidates
	}

	ranked, err := o.ranker.Rank(ctx, occasion, candidates)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("ranking failed, keeping collected order")
		return candidates
	}
	return ranked
}
