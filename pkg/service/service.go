package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/config"
	"github.com/moodqueue/moodqueue/pkg/models"
	"github.com/moodqueue/moodqueue/pkg/prefs"
)

// The only two failure shapes the orchestrator exposes. Every finer-grained
// upstream failure is either absorbed by a fallback or collapsed into
// ErrGenerationFailed.
var (
	ErrGenerationFailed     = errors.New("failed to generate playlist, please try again")
	ErrNoPreviousGeneration = errors.New("no previous generation: generate a playlist first")
)

type LLM interface {
	AnalyzeMood(ctx context.Context, prompt string, history []models.ChatMessage, lctx models.ListeningContext, profile models.TasteProfile) (models.MoodAnalysis, error)
	DerivePlan(ctx context.Context, mood models.MoodAnalysis, lctx models.ListeningContext, profile models.TasteProfile) (models.MusicPlan, error)
	DraftQueries(ctx context.Context, mood models.MoodAnalysis, lctx models.ListeningContext, count int) ([]models.TrackRecommendation, error)
	RankCandidates(ctx context.Context, candidates []models.CandidateTrack, plan models.MusicPlan, mood models.MoodAnalysis, lctx models.ListeningContext, profile models.TasteProfile, count int) ([]models.TrackRecommendation, error)
}

type Searcher interface {
	SearchAll(ctx context.Context, queries []string) (map[string][]models.CandidateTrack, []models.CandidateTrack)
}

type TasteSource interface {
	Fetch(ctx context.Context) models.TasteProfile
}

type ContextBuilder interface {
	Build(ctx context.Context, recentTracks, topArtists, topGenres []string) models.ListeningContext
}

type PreferenceStore interface {
	Load(ctx context.Context) models.Preferences
	Save(ctx context.Context, update prefs.Update) (models.Preferences, error)
	Reset(ctx context.Context) error
}

type Ranker interface {
	Merge(ranked, drafts []models.TrackRecommendation, pool []models.CandidateTrack, recentPlays []models.PlayedItem, target int) []models.TrackRecommendation
}

// Service sequences the full generation pipeline and closes the
// preference-learning loop on success.
type Service struct {
	prefs    PreferenceStore
	taste    TasteSource
	contextb ContextBuilder
	llm      LLM
	search   Searcher
	ranker   Ranker
	cfg      *config.Config
	log      *zap.Logger
	now      func() time.Time
}

func NewService(prefStore PreferenceStore, taste TasteSource, contextb ContextBuilder, llm LLM, search Searcher, ranker Ranker, cfg *config.Config, log *zap.Logger) *Service {
	return &Service{
		prefs:    prefStore,
		taste:    taste,
		contextb: contextb,
		llm:      llm,
		search:   search,
		ranker:   ranker,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Generate runs the whole pipeline in strict sequence. Any unrecoverable
// stage failure fails the entire call; partial results are never returned.
func (s *Service) Generate(ctx context.Context, prompt string, history []models.ChatMessage, usePreferences bool) (*models.GenerationResult, error) {
	generationID := uuid.Must(uuid.NewV4()).String()
	log := s.log.With(zap.String("generation_id", generationID))
	log.Info("starting playlist generation", zap.String("prompt", prompt))

	preferences := s.prefs.Load(ctx)
	target := s.targetLength(preferences.PlaylistLength)

	profile := s.taste.Fetch(ctx)
	lctx := s.contextb.Build(ctx, recentTrackNames(profile.RecentPlays), profile.AnchorArtists, profile.TopGenres)

	mood, err := s.llm.AnalyzeMood(ctx, prompt, history, lctx, profile)
	if err != nil {
		log.Error("mood analysis failed", zap.Error(err))
		return nil, ErrGenerationFailed
	}

	plan, err := s.llm.DerivePlan(ctx, mood, lctx, profile)
	if err != nil {
		log.Error("plan derivation failed", zap.Error(err))
		return nil, ErrGenerationFailed
	}

	drafts, err := s.llm.DraftQueries(ctx, mood, lctx, target)
	if err != nil {
		log.Error("query drafting failed", zap.Error(err))
		return nil, ErrGenerationFailed
	}

	queries := make([]string, 0, len(drafts))
	for _, draft := range drafts {
		queries = append(queries, draft.SearchQuery)
	}

	results, pool := s.search.SearchAll(ctx, queries)
	log.Info("catalog search finished", zap.Int("queries", len(results)), zap.Int("candidates", len(pool)))

	ranked, err := s.llm.RankCandidates(ctx, pool, plan, mood, lctx, profile, target)
	if err != nil {
		log.Error("candidate ranking failed", zap.Error(err))
		return nil, ErrGenerationFailed
	}

	tracks := s.ranker.Merge(ranked, drafts, pool, profile.RecentPlays, target)

	s.persistOutcome(ctx, preferences, prompt, mood, usePreferences, log)

	result := &models.GenerationResult{
		ID:              generationID,
		Prompt:          prompt,
		PlaylistName:    playlistName(mood),
		Mood:            mood,
		Plan:            plan,
		Tracks:          tracks,
		TasteConfidence: profile.Confidence,
		GeneratedAt:     s.now(),
	}

	log.Info("playlist generation finished",
		zap.Int("tracks", len(tracks)),
		zap.String("playlist_name", result.PlaylistName))
	return result, nil
}

// Regenerate re-invokes Generate with the last stored prompt.
func (s *Service) Regenerate(ctx context.Context, history []models.ChatMessage) (*models.GenerationResult, error) {
	preferences := s.prefs.Load(ctx)
	if strings.TrimSpace(preferences.LastPrompt) == "" {
		return nil, ErrNoPreviousGeneration
	}
	return s.Generate(ctx, preferences.LastPrompt, history, true)
}

// persistOutcome stores the successful generation and, when learning is
// enabled, blends the new mood into the learned preference scalars
// (0.7 retained / 0.3 new). A store failure is logged, not surfaced: the
// generated playlist is still valid.
func (s *Service) persistOutcome(ctx context.Context, preferences models.Preferences, prompt string, mood models.MoodAnalysis, usePreferences bool, log *zap.Logger) {
	moodCopy := mood
	now := s.now().Unix()
	update := prefs.Update{
		LastPrompt:      &prompt,
		LastMood:        &moodCopy,
		LastGeneratedAt: &now,
	}

	if usePreferences {
		energy := 0.7*preferences.EnergyPreference + 0.3*mood.EndPoint.Energy
		valence := 0.7*preferences.ValencePreference + 0.3*mood.EndPoint.Valence
		genres := append(append([]string{}, mood.SuggestedGenres...), preferences.FavoriteGenres...)
		vibes := append(append([]string{}, preferences.Vibes...), mood.Mood)
		total := preferences.TotalGenerations + 1

		update.EnergyPreference = &energy
		update.ValencePreference = &valence
		update.FavoriteGenres = &genres
		update.Vibes = &vibes
		update.TotalGenerations = &total
	}

	if _, err := s.prefs.Save(ctx, update); err != nil {
		log.Warn("failed to persist generation outcome", zap.Error(err))
	}
}

// targetLength bounds the requested playlist length by the configured
// default and maximum.
func (s *Service) targetLength(requested int) int {
	if requested < 1 {
		return s.cfg.PlaylistLength
	}
	if requested > s.cfg.MaxPlaylistSize {
		return s.cfg.MaxPlaylistSize
	}
	return requested
}

func recentTrackNames(plays []models.PlayedItem) []string {
	names := make([]string, 0, len(plays))
	for _, play := range plays {
		names = append(names, fmt.Sprintf("%s - %s", play.ArtistName, play.TrackName))
	}
	return names
}

// playlistName prefers the model's name and falls back to a quadrant-based
// name from the mood's end point.
func playlistName(mood models.MoodAnalysis) string {
	if name := strings.TrimSpace(mood.PlaylistName); name != "" {
		return name
	}

	highEnergy := mood.EndPoint.Energy > 0.6
	highValence := mood.EndPoint.Valence > 0
	switch {
	case highEnergy && highValence:
		return "Upbeat Party"
	case highEnergy && !highValence:
		return "Intense & Dark"
	case !highEnergy && highValence:
		return "Chill & Happy"
	default:
		return "Reflective & Melancholy"
	}
}
