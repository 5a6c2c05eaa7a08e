package models

import "time"

// EmotionPoint is a position on the valence/energy plane.
// Valence runs from -1 (melancholic) to 1 (joyful), energy from 0 (calm) to 1 (intense).
type EmotionPoint struct {
	Valence float64 `json:"valence"`
	Energy  float64 `json:"energy"`
}

// MoodAnalysis is the LLM's reading of the user's prompt. Immutable once produced.
type MoodAnalysis struct {
	StartPoint       EmotionPoint `json:"start_point"`
	EndPoint         EmotionPoint `json:"end_point"`
	Mood             string       `json:"mood"`
	Reasoning        string       `json:"reasoning"`
	SuggestedGenres  []string     `json:"suggested_genres"`
	PlaylistName     string       `json:"playlist_name"`
	NeedsFollowUp    bool         `json:"needs_follow_up"`
	FollowUpQuestion string       `json:"follow_up_question"`
}

// FloatRange is an inclusive numeric range.
type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DiscoveryBalance splits the playlist between familiar and novel material.
// FamiliarPercent + DiscoveryPercent is always 100.
type DiscoveryBalance struct {
	FamiliarPercent  int `json:"familiar_percent"`
	DiscoveryPercent int `json:"discovery_percent"`
}

// MusicPlan is the LLM-derived constraint set that steers candidate ranking.
type MusicPlan struct {
	TargetEnergy      float64          `json:"target_energy"`
	TargetValence     float64          `json:"target_valence"`
	EnergyRange       FloatRange       `json:"energy_range"`
	ValenceRange      FloatRange       `json:"valence_range"`
	AnchorArtists     []string         `json:"anchor_artists"`
	AnchorGenres      []string         `json:"anchor_genres"`
	AvoidGenres       []string         `json:"avoid_genres"`
	DiscoveryBalance  DiscoveryBalance `json:"discovery_balance"`
	RankingPriorities []string         `json:"ranking_priorities"`
}

// CandidateTrack is a normalized catalog search result.
type CandidateTrack struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	Popularity int      `json:"popularity"`
}

// TasteAlignment explains how a track relates to the listener's history.
type TasteAlignment struct {
	Score          float64  `json:"score"`
	MatchedArtists []string `json:"matched_artists,omitempty"`
	MatchedGenres  []string `json:"matched_genres,omitempty"`
	Explanation    string   `json:"explanation"`
}

// MoodFit explains how a track serves the requested mood.
type MoodFit struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// TrackRecommendation is one entry of the final playlist. Every emitted
// recommendation carries finite taste, mood and overall scores in [0,100].
type TrackRecommendation struct {
	SearchQuery      string         `json:"search_query"`
	Reason           string         `json:"reason"`
	TargetEnergy     float64        `json:"target_energy"`
	TargetValence    float64        `json:"target_valence"`
	Position         int            `json:"position"`
	TrackID          string         `json:"track_id,omitempty"`
	TrackName        string         `json:"track_name,omitempty"`
	ArtistNames      []string       `json:"artist_names,omitempty"`
	ReasoningBullets []string       `json:"reasoning_bullets"`
	TasteAlignment   TasteAlignment `json:"taste_alignment"`
	MoodFit          MoodFit        `json:"mood_fit"`
	DiscoveryLevel   string         `json:"discovery_level"`
	OverallMatch     float64        `json:"overall_match"`
}

// ArtistSummary is a compact view of a listened-to artist.
type ArtistSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

// TrackSummary is a compact view of a listened-to track.
type TrackSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	Popularity  int    `json:"popularity"`
	ReleaseYear int    `json:"release_year,omitempty"`
}

// PlayedItem is one entry of the recent-play window.
type PlayedItem struct {
	TrackName  string    `json:"track_name"`
	ArtistName string    `json:"artist_name"`
	PlayedAt   time.Time `json:"played_at"`
}

// FeatureAverages are heuristic audio-feature estimates inferred from genre
// tags, not from audio analysis. All values are in [0,1].
type FeatureAverages struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
}

// TempoRange is a coarse BPM band.
type TempoRange struct {
	MinBPM int `json:"min_bpm"`
	MaxBPM int `json:"max_bpm"`
}

// TasteProfile aggregates a listener's history. Rebuilt fresh for every
// generation, never mutated in place.
type TasteProfile struct {
	TopArtists      []ArtistSummary     `json:"top_artists"`
	AnchorArtists   []string            `json:"anchor_artists"`
	TopTracks       []TrackSummary      `json:"top_tracks"`
	TopGenres       []string            `json:"top_genres"`
	Features        FeatureAverages     `json:"features"`
	PreferredDecade string              `json:"preferred_decade,omitempty"`
	Tempo           TempoRange          `json:"tempo"`
	RecentPlays     []PlayedItem        `json:"recent_plays"`
	DaypartGenres   map[string][]string `json:"daypart_genres,omitempty"`
	Confidence      float64             `json:"confidence"`
}

// Discovery levels for Preferences.DiscoveryLevel.
const (
	DiscoveryFamiliar  = "familiar"
	DiscoveryBalanced  = "balanced"
	DiscoveryDiscovery = "discovery"
)

// Preferences is the learned generation state. The only entity that survives
// across requests; persisted with a TTL.
type Preferences struct {
	Vibes             []string      `json:"vibes"`
	FavoriteGenres    []string      `json:"favorite_genres"`
	EnergyPreference  float64       `json:"energy_preference"`  // [0,1]
	ValencePreference float64       `json:"valence_preference"` // [-1,1]
	DiscoveryLevel    string        `json:"discovery_level"`
	PlaylistLength    int           `json:"playlist_length"`
	AllowExplicit     bool          `json:"allow_explicit"`
	TotalGenerations  int           `json:"total_generations"`
	LastPrompt        string        `json:"last_prompt,omitempty"`
	LastMood          *MoodAnalysis `json:"last_mood,omitempty"`
	LastGeneratedAt   int64         `json:"last_generated_at,omitempty"`
}

// ChatMessage is one turn of the conversation passed to the LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ListeningContext is the ambient situation attached to every LLM call.
type ListeningContext struct {
	TimeOfDay    string   `json:"time_of_day"`
	DayOfWeek    string   `json:"day_of_week"`
	Weather      string   `json:"weather,omitempty"`
	RecentTracks []string `json:"recent_tracks,omitempty"`
	TopArtists   []string `json:"top_artists,omitempty"`
	TopGenres    []string `json:"top_genres,omitempty"`
}

// GenerationResult is the outcome of one full pipeline run.
type GenerationResult struct {
	ID              string                `json:"id"`
	Prompt          string                `json:"prompt"`
	PlaylistName    string                `json:"playlist_name"`
	Mood            MoodAnalysis          `json:"mood"`
	Plan            MusicPlan             `json:"plan"`
	Tracks          []TrackRecommendation `json:"tracks"`
	TasteConfidence float64               `json:"taste_confidence"`
	GeneratedAt     time.Time             `json:"generated_at"`
}
