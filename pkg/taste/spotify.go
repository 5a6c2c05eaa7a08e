package taste

import (
	"context"
	"strconv"
	"strings"

	spotifyapi "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/models"
)

// SpotifySource reads listening history through a user-authorized Spotify
// client. Requires the user-top-read and user-read-recently-played scopes.
type SpotifySource struct {
	client *spotifyapi.Client
	log    *zap.Logger
}

func NewSpotifySource(client *spotifyapi.Client, log *zap.Logger) *SpotifySource {
	return &SpotifySource{
		client: client,
		log:    log,
	}
}

func (s *SpotifySource) TopArtists(ctx context.Context, timeRange string, limit int) ([]models.ArtistSummary, error) {
	page, err := s.client.CurrentUsersTopArtists(ctx,
		spotifyapi.Limit(limit),
		spotifyapi.Timerange(toRange(timeRange)))
	if err != nil {
		return nil, err
	}

	artists := make([]models.ArtistSummary, 0, len(page.Artists))
	for _, artist := range page.Artists {
		artists = append(artists, models.ArtistSummary{
			ID:         string(artist.ID),
			Name:       artist.Name,
			Genres:     artist.Genres,
			Popularity: int(artist.Popularity),
		})
	}
	return artists, nil
}

func (s *SpotifySource) TopTracks(ctx context.Context, timeRange string, limit int) ([]models.TrackSummary, error) {
	page, err := s.client.CurrentUsersTopTracks(ctx,
		spotifyapi.Limit(limit),
		spotifyapi.Timerange(toRange(timeRange)))
	if err != nil {
		return nil, err
	}

	tracks := make([]models.TrackSummary, 0, len(page.Tracks))
	for _, track := range page.Tracks {
		summary := models.TrackSummary{
			ID:          string(track.ID),
			Name:        track.Name,
			Album:       track.Album.Name,
			Popularity:  int(track.Popularity),
			ReleaseYear: releaseYear(track.Album.ReleaseDate),
		}
		if len(track.Artists) > 0 {
			summary.Artist = track.Artists[0].Name
		}
		tracks = append(tracks, summary)
	}
	return tracks, nil
}

func (s *SpotifySource) RecentlyPlayed(ctx context.Context, limit int) ([]models.PlayedItem, error) {
	items, err := s.client.PlayerRecentlyPlayedOpt(ctx, &spotifyapi.RecentlyPlayedOptions{Limit: spotifyapi.Numeric(limit)})
	if err != nil {
		return nil, err
	}

	plays := make([]models.PlayedItem, 0, len(items))
	for _, item := range items {
		play := models.PlayedItem{
			TrackName: item.Track.Name,
			PlayedAt:  item.PlayedAt,
		}
		if len(item.Track.Artists) > 0 {
			play.ArtistName = item.Track.Artists[0].Name
		}
		plays = append(plays, play)
	}
	return plays, nil
}

func toRange(timeRange string) spotifyapi.Range {
	switch timeRange {
	case RangeLongTerm:
		return spotifyapi.LongTermRange
	default:
		return spotifyapi.ShortTermRange
	}
}

// releaseYear parses the leading year of a release date like "1994-03-27".
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(strings.TrimSpace(releaseDate[:4]))
	if err != nil {
		return 0
	}
	return year
}
