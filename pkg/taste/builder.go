package taste

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/models"
	"github.com/moodqueue/moodqueue/pkg/situation"
)

// History time ranges. Values mirror the catalog service's own range names.
const (
	RangeRecent   = "short_term" // ~4 weeks
	RangeLongTerm = "long_term"
)

const (
	rawArtistCap    = 10
	anchorCap       = 5
	rawTrackCap     = 10
	topGenreCap     = 10
	recentPlayCap   = 20
	daypartGenreCap = 5
)

// HistorySource reads a listener's history from the catalog service. Each
// method is independently optional: a failure degrades that input to empty
// rather than aborting the whole profile.
type HistorySource interface {
	TopArtists(ctx context.Context, timeRange string, limit int) ([]models.ArtistSummary, error)
	TopTracks(ctx context.Context, timeRange string, limit int) ([]models.TrackSummary, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]models.PlayedItem, error)
}

// Builder aggregates listening history into a TasteProfile.
type Builder struct {
	source HistorySource
	log    *zap.Logger
}

func NewBuilder(source HistorySource, log *zap.Logger) *Builder {
	return &Builder{
		source: source,
		log:    log,
	}
}

// EmptyProfile is the canonical profile when no history is available:
// neutral feature midpoints, default tempo band, confidence 0.
func EmptyProfile() models.TasteProfile {
	return models.TasteProfile{
		TopArtists:    []models.ArtistSummary{},
		AnchorArtists: []string{},
		TopTracks:     []models.TrackSummary{},
		TopGenres:     []string{},
		Features: models.FeatureAverages{
			Energy:       0.5,
			Valence:      0.5,
			Danceability: 0.5,
			Acousticness: 0.3,
		},
		Tempo:       models.TempoRange{MinBPM: 90, MaxBPM: 140},
		RecentPlays: []models.PlayedItem{},
	}
}

// Fetch builds a fresh profile from the listener's history. The five
// upstream reads run concurrently; any of them failing only empties that
// input. A total failure yields EmptyProfile.
func (b *Builder) Fetch(ctx context.Context) models.TasteProfile {
	var (
		wg            sync.WaitGroup
		recentArtists []models.ArtistSummary
		longArtists   []models.ArtistSummary
		recentTracks  []models.TrackSummary
		longTracks    []models.TrackSummary
		recentPlays   []models.PlayedItem
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		recentArtists = b.fetchArtists(ctx, RangeRecent)
	}()
	go func() {
		defer wg.Done()
		longArtists = b.fetchArtists(ctx, RangeLongTerm)
	}()
	go func() {
		defer wg.Done()
		recentTracks = b.fetchTracks(ctx, RangeRecent)
	}()
	go func() {
		defer wg.Done()
		longTracks = b.fetchTracks(ctx, RangeLongTerm)
	}()
	go func() {
		defer wg.Done()
		plays, err := b.source.RecentlyPlayed(ctx, recentPlayCap)
		if err != nil {
			b.log.Warn("failed to fetch recent plays", zap.Error(err))
			return
		}
		recentPlays = plays
	}()
	wg.Wait()

	artists := mergeArtists(recentArtists, longArtists, rawArtistCap)
	tracks := mergeTracks(recentTracks, longTracks, rawTrackCap)
	if len(recentPlays) > recentPlayCap {
		recentPlays = recentPlays[:recentPlayCap]
	}

	profile := EmptyProfile()
	profile.TopArtists = artists
	profile.TopTracks = tracks
	profile.RecentPlays = recentPlays

	for i, artist := range artists {
		if i >= anchorCap {
			break
		}
		profile.AnchorArtists = append(profile.AnchorArtists, artist.Name)
	}

	profile.TopGenres = topGenres(artists, topGenreCap)
	profile.Features = inferFeatures(profile.TopGenres)
	profile.PreferredDecade = modalDecade(tracks)
	profile.Tempo = inferTempo(profile.TopGenres)
	profile.DaypartGenres = daypartGenres(recentPlays, artists)
	profile.Confidence = confidence(len(artists), len(tracks), len(recentPlays), len(profile.TopGenres))

	b.log.Debug("built taste profile",
		zap.Int("artists", len(artists)),
		zap.Int("tracks", len(tracks)),
		zap.Int("recent_plays", len(recentPlays)),
		zap.Float64("confidence", profile.Confidence))

	return profile
}

func (b *Builder) fetchArtists(ctx context.Context, timeRange string) []models.ArtistSummary {
	artists, err := b.source.TopArtists(ctx, timeRange, rawArtistCap)
	if err != nil {
		b.log.Warn("failed to fetch top artists", zap.String("time_range", timeRange), zap.Error(err))
		return nil
	}
	return artists
}

func (b *Builder) fetchTracks(ctx context.Context, timeRange string) []models.TrackSummary {
	tracks, err := b.source.TopTracks(ctx, timeRange, rawTrackCap)
	if err != nil {
		b.log.Warn("failed to fetch top tracks", zap.String("time_range", timeRange), zap.Error(err))
		return nil
	}
	return tracks
}

// mergeArtists unions the two windows by identifier, recent window first.
func mergeArtists(recent, long []models.ArtistSummary, limit int) []models.ArtistSummary {
	seen := make(map[string]bool, len(recent)+len(long))
	merged := make([]models.ArtistSummary, 0, limit)
	for _, list := range [][]models.ArtistSummary{recent, long} {
		for _, artist := range list {
			if artist.ID == "" || seen[artist.ID] {
				continue
			}
			seen[artist.ID] = true
			merged = append(merged, artist)
			if len(merged) >= limit {
				return merged
			}
		}
	}
	return merged
}

func mergeTracks(recent, long []models.TrackSummary, limit int) []models.TrackSummary {
	seen := make(map[string]bool, len(recent)+len(long))
	merged := make([]models.TrackSummary, 0, limit)
	for _, list := range [][]models.TrackSummary{recent, long} {
		for _, track := range list {
			if track.ID == "" || seen[track.ID] {
				continue
			}
			seen[track.ID] = true
			merged = append(merged, track)
			if len(merged) >= limit {
				return merged
			}
		}
	}
	return merged
}

// topGenres ranks genre tags by frequency across the deduplicated artist set.
func topGenres(artists []models.ArtistSummary, limit int) []string {
	counts := make(map[string]int)
	for _, artist := range artists {
		for _, genre := range artist.Genres {
			genre = strings.ToLower(strings.TrimSpace(genre))
			if genre == "" {
				continue
			}
			counts[genre]++
		}
	}

	genres := make([]string, 0, len(counts))
	for genre := range counts {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})

	if len(genres) > limit {
		genres = genres[:limit]
	}
	return genres
}

// modalDecade picks the most common release decade among the top tracks.
func modalDecade(tracks []models.TrackSummary) string {
	counts := make(map[int]int)
	for _, track := range tracks {
		if track.ReleaseYear < 1900 {
			continue
		}
		counts[track.ReleaseYear/10*10]++
	}

	best, bestCount := 0, 0
	for decade, count := range counts {
		if count > bestCount || (count == bestCount && decade > best) {
			best, bestCount = decade, count
		}
	}
	if best == 0 {
		return ""
	}
	return strconv.Itoa(best) + "s"
}

// confidence weights data completeness: artists and tracks 0.3 each, recent
// plays and genres 0.2 each, all capped and summed into [0,1].
func confidence(artists, tracks, plays, genres int) float64 {
	score := 0.3*capRatio(artists, anchorCap) +
		0.3*capRatio(tracks, anchorCap) +
		0.2*capRatio(plays, recentPlayCap) +
		0.2*capRatio(genres, topGenreCap)
	if score > 1 {
		return 1
	}
	return score
}

func capRatio(n, max int) float64 {
	if n >= max {
		return 1
	}
	if n <= 0 {
		return 0
	}
	return float64(n) / float64(max)
}

// daypartGenres buckets the genres of recently played artists by the time of
// day they were played.
func daypartGenres(plays []models.PlayedItem, artists []models.ArtistSummary) map[string][]string {
	if len(plays) == 0 {
		return nil
	}

	genresByArtist := make(map[string][]string, len(artists))
	for _, artist := range artists {
		genresByArtist[strings.ToLower(artist.Name)] = artist.Genres
	}

	buckets := make(map[string][]string)
	seen := make(map[string]bool)
	for _, play := range plays {
		genres, ok := genresByArtist[strings.ToLower(play.ArtistName)]
		if !ok {
			continue
		}
		daypart := situation.TimeOfDay(play.PlayedAt.Hour())
		for _, genre := range genres {
			genre = strings.ToLower(genre)
			key := daypart + "|" + genre
			if seen[key] || len(buckets[daypart]) >= daypartGenreCap {
				continue
			}
			seen[key] = true
			buckets[daypart] = append(buckets[daypart], genre)
		}
	}

	if len(buckets) == 0 {
		return nil
	}
	return buckets
}
