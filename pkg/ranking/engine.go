package ranking

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/config"
	"github.com/moodqueue/moodqueue/pkg/models"
)

// Engine merges the model's ranked selection with catalog metadata, computes
// the composite match score, and guarantees playlist length via backfill.
type Engine struct {
	scoring config.Scoring
	log     *zap.Logger
}

func NewEngine(scoring config.Scoring, log *zap.Logger) *Engine {
	return &Engine{
		scoring: scoring,
		log:     log,
	}
}

// Merge produces the final ordered track list. ranked is the model's
// selection (identifiers already validated against the pool by the adapter,
// re-checked here), drafts supply the per-position search query and emotion
// targets, pool is the deduplicated candidate set in discovery order.
// The result has exactly target entries whenever the pool is large enough;
// a smaller pool yields a shorter list, which is not an error.
func (e *Engine) Merge(ranked, drafts []models.TrackRecommendation, pool []models.CandidateTrack, recentPlays []models.PlayedItem, target int) []models.TrackRecommendation {
	byID := make(map[string]models.CandidateTrack, len(pool))
	for _, candidate := range pool {
		byID[candidate.ID] = candidate
	}

	out := make([]models.TrackRecommendation, 0, target)
	used := make(map[string]bool, target)

	for _, rec := range ranked {
		if len(out) >= target {
			break
		}
		candidate, ok := byID[rec.TrackID]
		if !ok || used[rec.TrackID] {
			continue
		}
		used[rec.TrackID] = true

		if i := len(out); i < len(drafts) {
			rec.SearchQuery = drafts[i].SearchQuery
			rec.TargetEnergy = drafts[i].TargetEnergy
			rec.TargetValence = drafts[i].TargetValence
		}
		rec.TrackName = candidate.Name
		rec.ArtistNames = candidate.Artists
		rec.Position = len(out) + 1
		rec.OverallMatch = e.overall(rec.TasteAlignment.Score, rec.MoodFit.Score, candidate, recentPlays)
		out = append(out, rec)
	}

	rankedCount := len(out)
	out = e.backfill(out, pool, used, recentPlays, target)
	if len(out) > rankedCount {
		e.log.Info("backfilled playlist to target length",
			zap.Int("ranked", rankedCount),
			zap.Int("backfilled", len(out)-rankedCount))
	}

	return e.Validate(out)
}

// backfill fills the remaining slots from the candidate pool in discovery
// order, with conservative default sub-scores.
func (e *Engine) backfill(out []models.TrackRecommendation, pool []models.CandidateTrack, used map[string]bool, recentPlays []models.PlayedItem, target int) []models.TrackRecommendation {
	for _, candidate := range pool {
		if len(out) >= target {
			break
		}
		if candidate.ID == "" || used[candidate.ID] {
			continue
		}
		used[candidate.ID] = true

		taste := e.scoring.BackfillTasteScore
		mood := e.scoring.BackfillMoodScore
		out = append(out, models.TrackRecommendation{
			TrackID:     candidate.ID,
			TrackName:   candidate.Name,
			ArtistNames: candidate.Artists,
			Reason:      "Rounds out the playlist with a matching pick from the catalog search.",
			Position:    len(out) + 1,
			ReasoningBullets: []string{
				"Surfaced by the mood-driven catalog search.",
				"Keeps the playlist at its requested length.",
			},
			TasteAlignment: models.TasteAlignment{Score: taste, Explanation: "Not individually ranked; scored conservatively."},
			MoodFit:        models.MoodFit{Score: mood, Explanation: "Not individually ranked; scored conservatively."},
			DiscoveryLevel: models.DiscoveryDiscovery,
			OverallMatch:   e.overall(taste, mood, candidate, recentPlays),
		})
	}
	return out
}

// overall computes the weighted composite match score, rounded to a whole
// number in [0,100].
func (e *Engine) overall(taste, mood float64, candidate models.CandidateTrack, recentPlays []models.PlayedItem) float64 {
	wt, wm, wp, wf := e.scoring.Weights()

	// A zero popularity is indistinguishable from the field being absent in
	// the normalized candidate, so both read as unknown.
	popularity := e.scoring.DefaultPopularity
	if candidate.Popularity > 0 {
		popularity = float64(candidate.Popularity)
	}

	return math.Round(taste*wt + mood*wm + popularity*wp + playFrequency(candidate, recentPlays)*wf)
}

// playFrequency scores how recently-played a candidate is: 100 when the
// track itself appears in the recent-play window, 60 when one of its
// artists does, 0 otherwise. Matching is case-insensitive substring.
func playFrequency(candidate models.CandidateTrack, recentPlays []models.PlayedItem) float64 {
	if len(recentPlays) == 0 {
		return 0
	}

	name := strings.ToLower(candidate.Name)
	for _, play := range recentPlays {
		if name != "" && strings.Contains(strings.ToLower(play.TrackName), name) {
			return 100
		}
	}

	for _, play := range recentPlays {
		playArtist := strings.ToLower(play.ArtistName)
		if playArtist == "" {
			continue
		}
		for _, artist := range candidate.Artists {
			if strings.Contains(strings.ToLower(artist), playArtist) || strings.Contains(playArtist, strings.ToLower(artist)) {
				return 60
			}
		}
	}
	return 0
}

// Validate re-clamps both sub-scores and recomputes a missing or non-finite
// overall match as the plain average of taste and mood. Runs on every list
// before it leaves the engine.
func (e *Engine) Validate(recs []models.TrackRecommendation) []models.TrackRecommendation {
	for i := range recs {
		recs[i].TasteAlignment.Score = models.ClampScore(recs[i].TasteAlignment.Score, e.scoring.BackfillTasteScore)
		recs[i].MoodFit.Score = models.ClampScore(recs[i].MoodFit.Score, e.scoring.BackfillMoodScore)
		if !models.IsValidScore(recs[i].OverallMatch) {
			recs[i].OverallMatch = math.Round((recs[i].TasteAlignment.Score + recs[i].MoodFit.Score) / 2)
		}
	}
	return recs
}
