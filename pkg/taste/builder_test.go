package taste

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/models"
)

type fakeSource struct {
	artists map[string][]models.ArtistSummary
	tracks  map[string][]models.TrackSummary
	plays   []models.PlayedItem

	artistsErr error
	tracksErr  error
	playsErr   error
}

func (f *fakeSource) TopArtists(_ context.Context, timeRange string, _ int) ([]models.ArtistSummary, error) {
	if f.artistsErr != nil {
		return nil, f.artistsErr
	}
	return f.artists[timeRange], nil
}

func (f *fakeSource) TopTracks(_ context.Context, timeRange string, _ int) ([]models.TrackSummary, error) {
	if f.tracksErr != nil {
		return nil, f.tracksErr
	}
	return f.tracks[timeRange], nil
}

func (f *fakeSource) RecentlyPlayed(context.Context, int) ([]models.PlayedItem, error) {
	if f.playsErr != nil {
		return nil, f.playsErr
	}
	return f.plays, nil
}

func TestFetchTotalFailureYieldsEmptyProfile(t *testing.T) {
	source := &fakeSource{
		artistsErr: errors.New("unavailable"),
		tracksErr:  errors.New("unavailable"),
		playsErr:   errors.New("unavailable"),
	}
	builder := NewBuilder(source, zap.NewNop())

	profile := builder.Fetch(context.Background())

	if profile.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", profile.Confidence)
	}
	if profile.Features.Energy != 0.5 || profile.Features.Valence != 0.5 || profile.Features.Danceability != 0.5 {
		t.Errorf("feature midpoints = %+v, want 0.5 defaults", profile.Features)
	}
	if profile.Features.Acousticness != 0.3 {
		t.Errorf("acousticness = %v, want 0.3", profile.Features.Acousticness)
	}
	if profile.Tempo.MinBPM != 90 || profile.Tempo.MaxBPM != 140 {
		t.Errorf("tempo = %+v, want 90-140", profile.Tempo)
	}
}

func TestFetchPartialFailureDegradesOnlyThatInput(t *testing.T) {
	source := &fakeSource{
		artists: map[string][]models.ArtistSummary{
			RangeRecent: {{ID: "a1", Name: "Four Tet", Genres: []string{"electronica"}}},
		},
		tracksErr: errors.New("unavailable"),
		playsErr:  errors.New("unavailable"),
	}
	builder := NewBuilder(source, zap.NewNop())

	profile := builder.Fetch(context.Background())

	if len(profile.TopArtists) != 1 {
		t.Fatalf("artists = %d, want 1", len(profile.TopArtists))
	}
	if len(profile.TopTracks) != 0 {
		t.Errorf("tracks = %d, want 0", len(profile.TopTracks))
	}
	if profile.Confidence <= 0 || profile.Confidence >= 1 {
		t.Errorf("confidence = %v, want in (0,1)", profile.Confidence)
	}
}

func TestFetchMergesWindowsRecentFirst(t *testing.T) {
	source := &fakeSource{
		artists: map[string][]models.ArtistSummary{
			RangeRecent:   {{ID: "a1", Name: "Recent One"}, {ID: "a2", Name: "Both Windows"}},
			RangeLongTerm: {{ID: "a2", Name: "Both Windows"}, {ID: "a3", Name: "Long One"}},
		},
	}
	builder := NewBuilder(source, zap.NewNop())

	profile := builder.Fetch(context.Background())

	if len(profile.TopArtists) != 3 {
		t.Fatalf("merged artists = %d, want 3", len(profile.TopArtists))
	}
	if profile.TopArtists[0].ID != "a1" || profile.TopArtists[1].ID != "a2" || profile.TopArtists[2].ID != "a3" {
		t.Errorf("merge order wrong: %+v", profile.TopArtists)
	}
	if len(profile.AnchorArtists) != 3 {
		t.Errorf("anchors = %v, want 3 names", profile.AnchorArtists)
	}
}

func TestFetchFullDataConfidence(t *testing.T) {
	artists := make([]models.ArtistSummary, 0, 10)
	genreNames := []string{"techno", "house", "edm", "ambient", "folk", "disco", "funk", "pop", "jazz", "metal"}
	for i := 0; i < 10; i++ {
		artists = append(artists, models.ArtistSummary{
			ID:     "a" + string(rune('0'+i)),
			Name:   "Artist",
			Genres: []string{genreNames[i]},
		})
	}
	tracks := make([]models.TrackSummary, 0, 10)
	for i := 0; i < 10; i++ {
		tracks = append(tracks, models.TrackSummary{ID: "t" + string(rune('0'+i)), Name: "Track", ReleaseYear: 1995})
	}
	plays := make([]models.PlayedItem, 0, 20)
	for i := 0; i < 20; i++ {
		plays = append(plays, models.PlayedItem{TrackName: "Track", ArtistName: "Artist", PlayedAt: time.Now()})
	}

	source := &fakeSource{
		artists: map[string][]models.ArtistSummary{RangeRecent: artists},
		tracks:  map[string][]models.TrackSummary{RangeRecent: tracks},
		plays:   plays,
	}
	builder := NewBuilder(source, zap.NewNop())

	profile := builder.Fetch(context.Background())

	if math.Abs(profile.Confidence-1) > 1e-9 {
		t.Errorf("confidence = %v, want 1", profile.Confidence)
	}
	if profile.PreferredDecade != "1990s" {
		t.Errorf("preferred decade = %q, want 1990s", profile.PreferredDecade)
	}
}

func TestInferFeaturesEnergeticGenres(t *testing.T) {
	features := inferFeatures([]string{"melodic techno", "edm", "tech house"})

	if features.Energy <= 0.5 {
		t.Errorf("energy = %v, want above midpoint for energetic genres", features.Energy)
	}
	if features.Acousticness != 0.3 {
		t.Errorf("acousticness = %v, want untouched 0.3", features.Acousticness)
	}
}

func TestInferFeaturesCalmAcousticGenres(t *testing.T) {
	features := inferFeatures([]string{"ambient", "acoustic folk", "indie folk"})

	if features.Energy >= 0.5 {
		t.Errorf("energy = %v, want below midpoint for calm genres", features.Energy)
	}
	if features.Acousticness <= 0.3 {
		t.Errorf("acousticness = %v, want above 0.3", features.Acousticness)
	}
}

func TestInferFeaturesClamped(t *testing.T) {
	genres := []string{"edm", "techno", "house", "metal", "punk", "trap", "hardcore", "electro", "dance pop", "drum and bass"}
	features := inferFeatures(genres)

	if features.Energy > 1 {
		t.Errorf("energy = %v, want clamped to 1", features.Energy)
	}
}

func TestInferTempo(t *testing.T) {
	tests := []struct {
		name     string
		genres   []string
		expected models.TempoRange
	}{
		{
			name:     "fast genres",
			genres:   []string{"techno", "hardcore"},
			expected: models.TempoRange{MinBPM: 120, MaxBPM: 180},
		},
		{
			name:     "slow genres",
			genres:   []string{"ambient", "jazz"},
			expected: models.TempoRange{MinBPM: 60, MaxBPM: 110},
		},
		{
			name:     "mixed signals keep default",
			genres:   []string{"techno", "ambient"},
			expected: models.TempoRange{MinBPM: 90, MaxBPM: 140},
		},
		{
			name:     "no signals keep default",
			genres:   []string{"pop"},
			expected: models.TempoRange{MinBPM: 90, MaxBPM: 140},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferTempo(tt.genres); got != tt.expected {
				t.Errorf("inferTempo(%v) = %+v, want %+v", tt.genres, got, tt.expected)
			}
		})
	}
}

func TestTopGenresRankedByFrequency(t *testing.T) {
	artists := []models.ArtistSummary{
		{ID: "a1", Genres: []string{"techno", "house"}},
		{ID: "a2", Genres: []string{"techno"}},
		{ID: "a3", Genres: []string{"Techno", "ambient"}},
	}

	genres := topGenres(artists, 10)
	if len(genres) == 0 || genres[0] != "techno" {
		t.Errorf("top genre = %v, want techno first", genres)
	}
}
