package search

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/moodqueue/moodqueue/pkg/config"
	"github.com/moodqueue/moodqueue/pkg/models"
)

// Catalog performs a single track search against the music catalog.
type Catalog interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]models.CandidateTrack, error)
}

// Acquirer issues catalog searches for a batch of queries, paced to respect
// the catalog's rate limits, and deduplicates the combined result pool.
type Acquirer struct {
	catalog       Catalog
	limiter       *rate.Limiter
	perQueryLimit int
	log           *zap.Logger
}

func NewAcquirer(catalog Catalog, cfg *config.Config, log *zap.Logger) *Acquirer {
	return &Acquirer{
		catalog:       catalog,
		limiter:       rate.NewLimiter(rate.Every(cfg.SearchDelay), 1),
		perQueryLimit: cfg.PerQueryLimit,
		log:           log,
	}
}

// SearchAll runs one search per usable query, sequentially. A single query
// failing is recorded as no results for that query and does not abort the
// rest. Returns per-query results plus the flattened pool deduplicated by
// track identifier, in discovery order.
func (a *Acquirer) SearchAll(ctx context.Context, queries []string) (map[string][]models.CandidateTrack, []models.CandidateTrack) {
	results := make(map[string][]models.CandidateTrack, len(queries))
	pool := make([]models.CandidateTrack, 0, len(queries)*a.perQueryLimit)
	seen := make(map[string]bool)

	for _, query := range queries {
		query = strings.TrimSpace(query)
		if !usableQuery(query) {
			continue
		}
		if _, done := results[query]; done {
			continue
		}

		if err := a.limiter.Wait(ctx); err != nil {
			a.log.Warn("search pacing interrupted", zap.Error(err))
			break
		}

		tracks, err := a.catalog.SearchTracks(ctx, query, a.perQueryLimit)
		if err != nil {
			a.log.Warn("catalog search failed", zap.String("query", query), zap.Error(err))
			results[query] = nil
			continue
		}

		results[query] = tracks
		for _, track := range tracks {
			if track.ID == "" || seen[track.ID] {
				continue
			}
			seen[track.ID] = true
			pool = append(pool, track)
		}
	}

	a.log.Info("candidate acquisition finished",
		zap.Int("queries", len(results)),
		zap.Int("unique_candidates", len(pool)))

	return results, pool
}

// usableQuery filters out empty and placeholder queries before searching.
func usableQuery(query string) bool {
	if query == "" {
		return false
	}
	switch strings.ToLower(query) {
	case "...", "n/a", "none", "unknown", "tbd":
		return false
	}
	return true
}
