package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/config"
	"github.com/moodqueue/moodqueue/pkg/models"
)

// Adapter holds the four prompt/response contracts against the language
// model. Each call is stateless request/response: a transport failure
// propagates as an error, a malformed response never does; every contract
// resolves parse failures to its own static fallback.
type Adapter struct {
	chat ChatClient
	cfg  *config.Config
	log  *zap.Logger
}

func NewAdapter(chat ChatClient, cfg *config.Config, log *zap.Logger) *Adapter {
	return &Adapter{
		chat: chat,
		cfg:  cfg,
		log:  log,
	}
}

// AnalyzeMood maps the listener's free-text request onto the valence/energy
// plane. Explicitly named genres/artists take precedence over taste.
func (a *Adapter) AnalyzeMood(ctx context.Context, prompt string, history []models.ChatMessage, lctx models.ListeningContext, profile models.TasteProfile) (models.MoodAnalysis, error) {
	raw, err := a.complete(ctx, moodPrompt(prompt, history, lctx, profile))
	if err != nil {
		return models.MoodAnalysis{}, err
	}

	mood, ok := parseMood(raw)
	if !ok {
		a.log.Warn("mood response unparsable, using fallback")
	}
	return mood, nil
}

// DerivePlan turns a mood analysis into selection constraints. The
// familiar/discovery split of the returned plan always sums to 100.
func (a *Adapter) DerivePlan(ctx context.Context, mood models.MoodAnalysis, lctx models.ListeningContext, profile models.TasteProfile) (models.MusicPlan, error) {
	raw, err := a.complete(ctx, planPrompt(mood, lctx, profile))
	if err != nil {
		return models.MusicPlan{}, err
	}

	plan, ok := parsePlan(raw, mood)
	if !ok {
		a.log.Warn("plan response unparsable, using fallback")
	}
	return plan, nil
}

// DraftQueries asks for count catalog search queries, each paired with a
// draft recommendation. The result always has exactly count entries: short
// or unparsable responses are padded with deterministic drafts.
func (a *Adapter) DraftQueries(ctx context.Context, mood models.MoodAnalysis, lctx models.ListeningContext, count int) ([]models.TrackRecommendation, error) {
	raw, err := a.complete(ctx, queriesPrompt(mood, lctx, count))
	if err != nil {
		return nil, err
	}

	drafts, ok := parseQueryDrafts(raw, a.cfg.Scoring)
	if !ok {
		a.log.Warn("query response unparsable, using fallback queries")
	}
	return padQueryDrafts(drafts, mood, count, a.cfg.Scoring), nil
}

// RankCandidates asks the model to reorder and explain the candidate set.
// Entries whose identifier is not in the candidate set are dropped silently;
// returning fewer than count entries is expected and left to the caller.
func (a *Adapter) RankCandidates(ctx context.Context, candidates []models.CandidateTrack, plan models.MusicPlan, mood models.MoodAnalysis, lctx models.ListeningContext, profile models.TasteProfile, count int) ([]models.TrackRecommendation, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	raw, err := a.complete(ctx, rankPrompt(candidates, plan, mood, lctx, profile, count))
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		known[candidate.ID] = true
	}

	ranked, dropped, ok := parseRanked(raw, known, count, a.cfg.Scoring)
	if !ok {
		a.log.Warn("ranking response unparsable, relying on backfill")
	}
	if dropped > 0 {
		a.log.Warn("ranking returned unknown track identifiers", zap.Int("dropped", dropped))
	}
	return ranked, nil
}

func (a *Adapter) complete(ctx context.Context, prompt string) (string, error) {
	return a.chat.Complete(ctx, []models.ChatMessage{{Role: "user", Content: prompt}})
}
