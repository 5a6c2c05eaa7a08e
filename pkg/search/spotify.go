package search

import (
	"context"
	"fmt"

	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/moodqueue/moodqueue/pkg/models"
)

// SpotifyCatalog is the production Catalog over the Spotify search API using
// client-credentials auth (search needs no user authorization).
type SpotifyCatalog struct {
	client *spotifyapi.Client
	log    *zap.Logger
}

func NewSpotifyCatalog(ctx context.Context, clientID, clientSecret string, log *zap.Logger) (*SpotifyCatalog, error) {
	auth := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := auth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with spotify: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &SpotifyCatalog{
		client: spotifyapi.New(httpClient),
		log:    log,
	}, nil
}

// NewSpotifyCatalogFromClient wraps an already-authorized client.
func NewSpotifyCatalogFromClient(client *spotifyapi.Client, log *zap.Logger) *SpotifyCatalog {
	return &SpotifyCatalog{
		client: client,
		log:    log,
	}
}

func (c *SpotifyCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.CandidateTrack, error) {
	result, err := c.client.Search(ctx, query, spotifyapi.SearchTypeTrack, spotifyapi.Limit(limit))
	if err != nil {
		return nil, err
	}
	if result.Tracks == nil {
		return nil, nil
	}

	tracks := make([]models.CandidateTrack, 0, len(result.Tracks.Tracks))
	for _, track := range result.Tracks.Tracks {
		candidate := models.CandidateTrack{
			ID:         string(track.ID),
			Name:       track.Name,
			Album:      track.Album.Name,
			Popularity: int(track.Popularity),
		}
		for _, artist := range track.Artists {
			candidate.Artists = append(candidate.Artists, artist.Name)
		}
		tracks = append(tracks, candidate)
	}
	return tracks, nil
}
