package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moodqueue/moodqueue/pkg/config"
	"github.com/moodqueue/moodqueue/pkg/models"
)

// extractJSON strips Markdown code fences and any surrounding prose, leaving
// the outermost JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw, "\n"); idx >= 0 {
			raw = raw[idx+1:]
		}
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

type emotionWire struct {
	Valence *float64 `json:"valence"`
	Energy  *float64 `json:"energy"`
}

type moodWire struct {
	StartPoint       emotionWire `json:"startPoint"`
	EndPoint         emotionWire `json:"endPoint"`
	Mood             string      `json:"mood"`
	Reasoning        string      `json:"reasoning"`
	SuggestedGenres  []string    `json:"suggestedGenres"`
	PlaylistName     string      `json:"playlistName"`
	NeedsFollowUp    bool        `json:"needsFollowUp"`
	FollowUpQuestion string      `json:"followUpQuestion"`
}

// FallbackMood is the static mood used when the model's answer cannot be
// parsed: neutral midpoint with a clarifying follow-up.
func FallbackMood() models.MoodAnalysis {
	return models.MoodAnalysis{
		StartPoint:       models.EmotionPoint{Valence: 0, Energy: 0.5},
		EndPoint:         models.EmotionPoint{Valence: 0, Energy: 0.5},
		Mood:             "neutral",
		Reasoning:        "The request could not be interpreted, defaulting to a neutral mood.",
		SuggestedGenres:  []string{"pop"},
		PlaylistName:     "Your Mix",
		NeedsFollowUp:    true,
		FollowUpQuestion: "Could you tell me a bit more about the mood or activity you have in mind?",
	}
}

func parseMood(raw string) (models.MoodAnalysis, bool) {
	var wire moodWire
	if err := json.Unmarshal([]byte(extractJSON(raw)), &wire); err != nil {
		return FallbackMood(), false
	}
	if wire.Mood == "" && wire.Reasoning == "" && len(wire.SuggestedGenres) == 0 {
		return FallbackMood(), false
	}

	mood := models.MoodAnalysis{
		StartPoint: models.EmotionPoint{
			Valence: models.ClampSigned(deref(wire.StartPoint.Valence, 0), 0),
			Energy:  models.Clamp01(deref(wire.StartPoint.Energy, 0.5), 0.5),
		},
		EndPoint: models.EmotionPoint{
			Valence: models.ClampSigned(deref(wire.EndPoint.Valence, 0), 0),
			Energy:  models.Clamp01(deref(wire.EndPoint.Energy, 0.5), 0.5),
		},
		Mood:             fallbackString(wire.Mood, "neutral"),
		Reasoning:        wire.Reasoning,
		SuggestedGenres:  wire.SuggestedGenres,
		PlaylistName:     fallbackString(wire.PlaylistName, "Your Mix"),
		NeedsFollowUp:    wire.NeedsFollowUp,
		FollowUpQuestion: wire.FollowUpQuestion,
	}
	if len(mood.SuggestedGenres) == 0 {
		mood.SuggestedGenres = []string{"pop"}
	}
	if mood.NeedsFollowUp && mood.FollowUpQuestion == "" {
		mood.FollowUpQuestion = "Could you tell me a bit more about the mood or activity you have in mind?"
	}
	return mood, true
}

type rangeWire struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type planWire struct {
	TargetEnergy     *float64  `json:"targetEnergy"`
	TargetValence    *float64  `json:"targetValence"`
	EnergyRange      rangeWire `json:"energyRange"`
	ValenceRange     rangeWire `json:"valenceRange"`
	AnchorArtists    []string  `json:"anchorArtists"`
	AnchorGenres     []string  `json:"anchorGenres"`
	AvoidGenres      []string  `json:"avoidGenres"`
	DiscoveryBalance struct {
		FamiliarPercent  *int `json:"familiarPercent"`
		DiscoveryPercent *int `json:"discoveryPercent"`
	} `json:"discoveryBalance"`
	RankingPriorities []string `json:"rankingPriorities"`
}

const matchExplicitPriority = "match the explicit request exactly"

// FallbackPlan is the static plan used when the model's answer cannot be
// parsed: broad ranges centered on the mood's end point, 60/40 balance.
func FallbackPlan(mood models.MoodAnalysis) models.MusicPlan {
	return models.MusicPlan{
		TargetEnergy:      mood.EndPoint.Energy,
		TargetValence:     mood.EndPoint.Valence,
		EnergyRange:       models.FloatRange{Min: 0.2, Max: 0.8},
		ValenceRange:      models.FloatRange{Min: -0.4, Max: 0.6},
		AnchorArtists:     []string{},
		AnchorGenres:      []string{},
		AvoidGenres:       []string{},
		DiscoveryBalance:  models.DiscoveryBalance{FamiliarPercent: 60, DiscoveryPercent: 40},
		RankingPriorities: []string{matchExplicitPriority},
	}
}

func parsePlan(raw string, mood models.MoodAnalysis) (models.MusicPlan, bool) {
	var wire planWire
	if err := json.Unmarshal([]byte(extractJSON(raw)), &wire); err != nil {
		return FallbackPlan(mood), false
	}

	plan := models.MusicPlan{
		TargetEnergy:      models.Clamp01(deref(wire.TargetEnergy, mood.EndPoint.Energy), mood.EndPoint.Energy),
		TargetValence:     models.ClampSigned(deref(wire.TargetValence, mood.EndPoint.Valence), mood.EndPoint.Valence),
		EnergyRange:       toRange(wire.EnergyRange, models.FloatRange{Min: 0.2, Max: 0.8}),
		ValenceRange:      toRange(wire.ValenceRange, models.FloatRange{Min: -0.4, Max: 0.6}),
		AnchorArtists:     emptyIfNil(wire.AnchorArtists),
		AnchorGenres:      emptyIfNil(wire.AnchorGenres),
		AvoidGenres:       emptyIfNil(wire.AvoidGenres),
		RankingPriorities: wire.RankingPriorities,
	}

	plan.DiscoveryBalance = normalizeBalance(wire.DiscoveryBalance.FamiliarPercent, wire.DiscoveryBalance.DiscoveryPercent)

	if len(plan.RankingPriorities) == 0 || !strings.EqualFold(plan.RankingPriorities[0], matchExplicitPriority) {
		plan.RankingPriorities = append([]string{matchExplicitPriority}, plan.RankingPriorities...)
	}
	return plan, true
}

// normalizeBalance guarantees familiar + discovery == 100. Missing or
// invalid splits fall back to 60/40.
func normalizeBalance(familiar, discovery *int) models.DiscoveryBalance {
	if familiar != nil && *familiar >= 0 && *familiar <= 100 {
		return models.DiscoveryBalance{FamiliarPercent: *familiar, DiscoveryPercent: 100 - *familiar}
	}
	if discovery != nil && *discovery >= 0 && *discovery <= 100 {
		return models.DiscoveryBalance{FamiliarPercent: 100 - *discovery, DiscoveryPercent: *discovery}
	}
	return models.DiscoveryBalance{FamiliarPercent: 60, DiscoveryPercent: 40}
}

type queryDraftWire struct {
	SearchQuery      string   `json:"searchQuery"`
	Reason           string   `json:"reason"`
	TargetEnergy     *float64 `json:"targetEnergy"`
	TargetValence    *float64 `json:"targetValence"`
	ReasoningBullets []string `json:"reasoningBullets"`
	TasteScore       *float64 `json:"tasteScore"`
	MoodScore        *float64 `json:"moodScore"`
	DiscoveryLevel   string   `json:"discoveryLevel"`
}

type queriesWire struct {
	Tracks []queryDraftWire `json:"tracks"`
}

func parseQueryDrafts(raw string, scoring config.Scoring) ([]models.TrackRecommendation, bool) {
	var wire queriesWire
	if err := json.Unmarshal([]byte(extractJSON(raw)), &wire); err != nil {
		return nil, false
	}

	drafts := make([]models.TrackRecommendation, 0, len(wire.Tracks))
	for _, track := range wire.Tracks {
		query := strings.TrimSpace(track.SearchQuery)
		if query == "" {
			continue
		}
		drafts = append(drafts, models.TrackRecommendation{
			SearchQuery:      query,
			Reason:           track.Reason,
			TargetEnergy:     models.Clamp01(deref(track.TargetEnergy, 0.5), 0.5),
			TargetValence:    models.ClampSigned(deref(track.TargetValence, 0), 0),
			Position:         len(drafts) + 1,
			ReasoningBullets: normalizeBullets(track.ReasoningBullets, track.Reason),
			TasteAlignment: models.TasteAlignment{
				Score:       models.ClampScore(deref(track.TasteScore, scoring.DefaultTasteScore), scoring.DefaultTasteScore),
				Explanation: track.Reason,
			},
			MoodFit: models.MoodFit{
				Score:       models.ClampScore(deref(track.MoodScore, scoring.DefaultMoodScore), scoring.DefaultMoodScore),
				Explanation: track.Reason,
			},
			DiscoveryLevel: normalizeDiscoveryLevel(track.DiscoveryLevel),
		})
	}
	return drafts, true
}

// padQueryDrafts guarantees exactly count drafts by trimming long responses
// and padding short ones with deterministic genre/mood queries.
func padQueryDrafts(drafts []models.TrackRecommendation, mood models.MoodAnalysis, count int, scoring config.Scoring) []models.TrackRecommendation {
	if len(drafts) > count {
		drafts = drafts[:count]
	}

	genres := mood.SuggestedGenres
	if len(genres) == 0 {
		genres = []string{"pop"}
	}
	for i := len(drafts); len(drafts) < count; i++ {
		genre := genres[i%len(genres)]
		drafts = append(drafts, models.TrackRecommendation{
			SearchQuery:   fmt.Sprintf("%s %s music", genre, mood.Mood),
			Reason:        fmt.Sprintf("Fits the %s mood through the %s genre.", mood.Mood, genre),
			TargetEnergy:  mood.EndPoint.Energy,
			TargetValence: mood.EndPoint.Valence,
			Position:      len(drafts) + 1,
			ReasoningBullets: []string{
				fmt.Sprintf("Matches the requested %s mood.", mood.Mood),
				fmt.Sprintf("Drawn from the suggested %s genre.", genre),
			},
			TasteAlignment: models.TasteAlignment{Score: scoring.DefaultTasteScore, Explanation: "Generic pick for this mood."},
			MoodFit:        models.MoodFit{Score: scoring.DefaultMoodScore, Explanation: "Generic pick for this mood."},
			DiscoveryLevel: models.DiscoveryBalanced,
		})
	}

	for i := range drafts {
		drafts[i].Position = i + 1
	}
	return drafts
}

type tasteAlignmentWire struct {
	Score          *float64 `json:"score"`
	MatchedArtists []string `json:"matchedArtists"`
	MatchedGenres  []string `json:"matchedGenres"`
	Explanation    string   `json:"explanation"`
}

type moodFitWire struct {
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
}

type rankedTrackWire struct {
	TrackID          string             `json:"trackId"`
	Reason           string             `json:"reason"`
	ReasoningBullets []string           `json:"reasoningBullets"`
	TasteAlignment   tasteAlignmentWire `json:"tasteAlignment"`
	MoodFit          moodFitWire        `json:"moodFit"`
	DiscoveryLevel   string             `json:"discoveryLevel"`
}

type rankedWire struct {
	Tracks []rankedTrackWire `json:"tracks"`
}

// parseRanked keeps at most count entries whose identifier is present in the
// known candidate set. The second return is the number of dropped entries.
func parseRanked(raw string, known map[string]bool, count int, scoring config.Scoring) ([]models.TrackRecommendation, int, bool) {
	var wire rankedWire
	if err := json.Unmarshal([]byte(extractJSON(raw)), &wire); err != nil {
		return nil, 0, false
	}

	ranked := make([]models.TrackRecommendation, 0, count)
	seen := make(map[string]bool, count)
	dropped := 0
	for _, track := range wire.Tracks {
		if len(ranked) >= count {
			break
		}
		if !known[track.TrackID] || seen[track.TrackID] {
			dropped++
			continue
		}
		seen[track.TrackID] = true
		ranked = append(ranked, models.TrackRecommendation{
			TrackID:          track.TrackID,
			Reason:           track.Reason,
			Position:         len(ranked) + 1,
			ReasoningBullets: normalizeBullets(track.ReasoningBullets, track.Reason),
			TasteAlignment: models.TasteAlignment{
				Score:          models.ClampScore(deref(track.TasteAlignment.Score, scoring.DefaultTasteScore), scoring.DefaultTasteScore),
				MatchedArtists: track.TasteAlignment.MatchedArtists,
				MatchedGenres:  track.TasteAlignment.MatchedGenres,
				Explanation:    track.TasteAlignment.Explanation,
			},
			MoodFit: models.MoodFit{
				Score:       models.ClampScore(deref(track.MoodFit.Score, scoring.DefaultMoodScore), scoring.DefaultMoodScore),
				Explanation: track.MoodFit.Explanation,
			},
			DiscoveryLevel: normalizeDiscoveryLevel(track.DiscoveryLevel),
		})
	}
	return ranked, dropped, true
}

// normalizeBullets keeps between 2 and 4 reasoning bullets, synthesizing
// from the reason string when the model supplies too few.
func normalizeBullets(bullets []string, reason string) []string {
	cleaned := make([]string, 0, 4)
	for _, bullet := range bullets {
		bullet = strings.TrimSpace(bullet)
		if bullet == "" {
			continue
		}
		cleaned = append(cleaned, bullet)
		if len(cleaned) == 4 {
			break
		}
	}

	if len(cleaned) < 2 {
		if reason != "" {
			cleaned = append(cleaned, reason)
		}
		for len(cleaned) < 2 {
			cleaned = append(cleaned, "Fits the overall direction of the playlist.")
		}
	}
	return cleaned
}

func normalizeDiscoveryLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case models.DiscoveryFamiliar:
		return models.DiscoveryFamiliar
	case models.DiscoveryDiscovery, "discover", "novel":
		return models.DiscoveryDiscovery
	default:
		return models.DiscoveryBalanced
	}
}

func toRange(wire rangeWire, def models.FloatRange) models.FloatRange {
	if wire.Min == nil || wire.Max == nil || *wire.Min > *wire.Max {
		return def
	}
	return models.FloatRange{Min: *wire.Min, Max: *wire.Max}
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func fallbackString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
