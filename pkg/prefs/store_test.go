package prefs

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/config"
	"github.com/moodqueue/moodqueue/pkg/db"
	"github.com/moodqueue/moodqueue/pkg/models"
)

// fakeKV is an in-memory KV with TTL semantics driven by a fake clock.
type fakeKV struct {
	values  map[string][]byte
	expires map[string]time.Time
	now     time.Time

	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		values:  make(map[string][]byte),
		expires: make(map[string]time.Time),
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return nil, db.ErrNotFound
	}
	if expiry, ok := f.expires[key]; ok && !f.now.Before(expiry) {
		return nil, db.ErrNotFound
	}
	return value, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	if ttl > 0 {
		f.expires[key] = f.now.Add(ttl)
	}
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.values, key)
	delete(f.expires, key)
	return nil
}

func newTestStore(kv KV) *Store {
	return NewStore(kv, config.Default(), zap.NewNop())
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	store := newTestStore(newFakeKV())

	preferences := store.Load(context.Background())

	if preferences.EnergyPreference != 0.5 {
		t.Errorf("default energy = %v, want 0.5", preferences.EnergyPreference)
	}
	if preferences.ValencePreference != 0 {
		t.Errorf("default valence = %v, want 0", preferences.ValencePreference)
	}
	if preferences.DiscoveryLevel != models.DiscoveryBalanced {
		t.Errorf("default discovery level = %q, want %q", preferences.DiscoveryLevel, models.DiscoveryBalanced)
	}
	if preferences.PlaylistLength != 10 {
		t.Errorf("default playlist length = %d, want 10", preferences.PlaylistLength)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := newTestStore(newFakeKV())
	ctx := context.Background()

	energy := 0.8
	prompt := "late night chill"
	if _, err := store.Save(ctx, Update{EnergyPreference: &energy, LastPrompt: &prompt}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	preferences := store.Load(ctx)
	if preferences.EnergyPreference != 0.8 {
		t.Errorf("energy = %v, want 0.8", preferences.EnergyPreference)
	}
	if preferences.LastPrompt != prompt {
		t.Errorf("last prompt = %q, want %q", preferences.LastPrompt, prompt)
	}
	// Untouched fields keep their defaults.
	if preferences.PlaylistLength != 10 {
		t.Errorf("playlist length = %d, want default 10", preferences.PlaylistLength)
	}
}

func TestLoadAfterTTLExpiryReturnsDefaults(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv)
	ctx := context.Background()

	energy := 0.9
	if _, err := store.Save(ctx, Update{EnergyPreference: &energy}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Advance the simulated clock past the 30-day TTL.
	kv.now = kv.now.Add(31 * 24 * time.Hour)

	preferences := store.Load(ctx)
	if preferences.EnergyPreference != 0.5 {
		t.Errorf("energy after expiry = %v, want default 0.5", preferences.EnergyPreference)
	}
}

func TestLoadCorruptCacheFallsBackToDefaults(t *testing.T) {
	kv := newFakeKV()
	kv.values[prefsKey] = []byte("{not json")
	store := newTestStore(kv)

	preferences := store.Load(context.Background())
	if preferences.EnergyPreference != 0.5 || preferences.PlaylistLength != 10 {
		t.Errorf("corrupt cache should read as defaults, got %+v", preferences)
	}
}

func TestLoadReadErrorFallsBackToDefaults(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = context.DeadlineExceeded
	store := newTestStore(kv)

	preferences := store.Load(context.Background())
	if preferences.PlaylistLength != 10 {
		t.Errorf("read error should yield defaults, got %+v", preferences)
	}
}

func TestResetForcesDefaults(t *testing.T) {
	store := newTestStore(newFakeKV())
	ctx := context.Background()

	length := 25
	if _, err := store.Save(ctx, Update{PlaylistLength: &length}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	preferences := store.Load(ctx)
	if preferences.PlaylistLength != 10 {
		t.Errorf("playlist length after reset = %d, want default 10", preferences.PlaylistLength)
	}
}

func TestSanitizeBoundsAndCaps(t *testing.T) {
	store := newTestStore(newFakeKV())
	ctx := context.Background()

	vibes := make([]string, 0, 14)
	for _, vibe := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n"} {
		vibes = append(vibes, vibe+" vibe")
	}
	genres := []string{"Techno", "techno", "House", "house", "ambient"}
	energy := 2.5
	valence := -4.0
	length := 500

	saved, err := store.Save(ctx, Update{
		Vibes:             &vibes,
		FavoriteGenres:    &genres,
		EnergyPreference:  &energy,
		ValencePreference: &valence,
		PlaylistLength:    &length,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if len(saved.Vibes) != 10 {
		t.Errorf("vibes capped at %d, want 10", len(saved.Vibes))
	}
	if saved.Vibes[len(saved.Vibes)-1] != "n vibe" {
		t.Errorf("vibes should keep most recent entries, last = %q", saved.Vibes[len(saved.Vibes)-1])
	}
	if len(saved.FavoriteGenres) != 3 {
		t.Errorf("genres deduplicated to %d, want 3", len(saved.FavoriteGenres))
	}
	if saved.EnergyPreference != 1 {
		t.Errorf("energy clamped to %v, want 1", saved.EnergyPreference)
	}
	if saved.ValencePreference != -1 {
		t.Errorf("valence clamped to %v, want -1", saved.ValencePreference)
	}
	if saved.PlaylistLength != 30 {
		t.Errorf("playlist length clamped to %d, want 30", saved.PlaylistLength)
	}
}
