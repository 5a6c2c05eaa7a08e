package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/config"
	"github.com/moodqueue/moodqueue/pkg/db"
	"github.com/moodqueue/moodqueue/pkg/models"
)

const prefsKey = "generation-preferences"

// KV is the persistence primitive the store is built on.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Update is a partial preferences change. Nil fields are left untouched;
// set fields are merged onto the current value and the whole record is
// rewritten with a refreshed TTL.
type Update struct {
	Vibes             *[]string
	FavoriteGenres    *[]string
	EnergyPreference  *float64
	ValencePreference *float64
	DiscoveryLevel    *string
	PlaylistLength    *int
	AllowExplicit     *bool
	TotalGenerations  *int
	LastPrompt        *string
	LastMood          *models.MoodAnalysis
	LastGeneratedAt   *int64
}

// Store loads and saves learned generation preferences.
type Store struct {
	kv  KV
	cfg *config.Config
	log *zap.Logger
}

func NewStore(kv KV, cfg *config.Config, log *zap.Logger) *Store {
	return &Store{
		kv:  kv,
		cfg: cfg,
		log: log,
	}
}

// Defaults returns the pristine preferences used when nothing is cached.
func (s *Store) Defaults() models.Preferences {
	return models.Preferences{
		Vibes:             []string{},
		FavoriteGenres:    []string{},
		EnergyPreference:  0.5,
		ValencePreference: 0,
		DiscoveryLevel:    models.DiscoveryBalanced,
		PlaylistLength:    s.cfg.PlaylistLength,
		AllowExplicit:     true,
	}
}

// Load returns the cached preferences merged over defaults. A missing,
// expired or unparsable cache yields pure defaults; Load never fails.
func (s *Store) Load(ctx context.Context) models.Preferences {
	prefs := s.Defaults()

	raw, err := s.kv.Get(ctx, prefsKey)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Warn("failed to read preferences, using defaults", zap.Error(err))
		}
		return prefs
	}

	if err := json.Unmarshal(raw, &prefs); err != nil {
		// Corrupt cache reads as a cache miss.
		s.log.Warn("cached preferences unparsable, using defaults", zap.Error(err))
		return s.Defaults()
	}

	return s.sanitize(prefs)
}

// Save merges a partial update onto the current preferences and rewrites the
// full record with a refreshed TTL. Returns the value that was written.
func (s *Store) Save(ctx context.Context, update Update) (models.Preferences, error) {
	prefs := s.Load(ctx)

	if update.Vibes != nil {
		prefs.Vibes = *update.Vibes
	}
	if update.FavoriteGenres != nil {
		prefs.FavoriteGenres = *update.FavoriteGenres
	}
	if update.EnergyPreference != nil {
		prefs.EnergyPreference = *update.EnergyPreference
	}
	if update.ValencePreference != nil {
		prefs.ValencePreference = *update.ValencePreference
	}
	if update.DiscoveryLevel != nil {
		prefs.DiscoveryLevel = *update.DiscoveryLevel
	}
	if update.PlaylistLength != nil {
		prefs.PlaylistLength = *update.PlaylistLength
	}
	if update.AllowExplicit != nil {
		prefs.AllowExplicit = *update.AllowExplicit
	}
	if update.TotalGenerations != nil {
		prefs.TotalGenerations = *update.TotalGenerations
	}
	if update.LastPrompt != nil {
		prefs.LastPrompt = *update.LastPrompt
	}
	if update.LastMood != nil {
		mood := *update.LastMood
		prefs.LastMood = &mood
	}
	if update.LastGeneratedAt != nil {
		prefs.LastGeneratedAt = *update.LastGeneratedAt
	}

	prefs = s.sanitize(prefs)

	raw, err := json.Marshal(prefs)
	if err != nil {
		return prefs, err
	}

	if err := s.kv.Set(ctx, prefsKey, raw, s.cfg.PreferencesTTL); err != nil {
		return prefs, err
	}

	return prefs, nil
}

// Reset deletes the cached value entirely, forcing pure defaults on the
// next Load.
func (s *Store) Reset(ctx context.Context) error {
	return s.kv.Delete(ctx, prefsKey)
}

// sanitize enforces the preference invariants: bounded lists, scalar ranges
// and a sane playlist length.
func (s *Store) sanitize(prefs models.Preferences) models.Preferences {
	prefs.EnergyPreference = models.Clamp01(prefs.EnergyPreference, 0.5)
	prefs.ValencePreference = models.ClampSigned(prefs.ValencePreference, 0)

	switch prefs.DiscoveryLevel {
	case models.DiscoveryFamiliar, models.DiscoveryBalanced, models.DiscoveryDiscovery:
	default:
		prefs.DiscoveryLevel = models.DiscoveryBalanced
	}

	if prefs.PlaylistLength < 1 {
		prefs.PlaylistLength = s.cfg.PlaylistLength
	}
	if prefs.PlaylistLength > s.cfg.MaxPlaylistSize {
		prefs.PlaylistLength = s.cfg.MaxPlaylistSize
	}

	prefs.Vibes = keepMostRecent(prefs.Vibes, s.cfg.MaxVibes)
	prefs.FavoriteGenres = dedupeKeepFirst(prefs.FavoriteGenres, s.cfg.MaxGenres)

	return prefs
}

// keepMostRecent trims a list to its last n entries.
func keepMostRecent(list []string, n int) []string {
	if n <= 0 || len(list) <= n {
		return list
	}
	return list[len(list)-n:]
}

// dedupeKeepFirst removes case-insensitive duplicates keeping first
// occurrence (most-recent-first ordering) and caps the list at n entries.
func dedupeKeepFirst(list []string, n int) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out
}
