package situation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/moodqueue/moodqueue/pkg/models"
)

// WeatherProvider looks up the current weather. Implementations are
// best-effort; callers treat any failure as "no weather".
type WeatherProvider interface {
	Current(ctx context.Context) (Weather, error)
}

// Weather is a human-readable weather snapshot.
type Weather struct {
	Description string
	TempC       float64
}

// Builder assembles the ambient listening context attached to every LLM call.
type Builder struct {
	weather WeatherProvider
	log     *zap.Logger
	now     func() time.Time
}

// NewBuilder creates a context builder. weather may be nil when no provider
// is configured.
func NewBuilder(weather WeatherProvider, log *zap.Logger) *Builder {
	return &Builder{
		weather: weather,
		log:     log,
		now:     time.Now,
	}
}

// Build computes the time-of-day bucket and weekday, and attempts a
// best-effort weather lookup. Deterministic given the same clock and
// weather response; a weather failure never fails the build.
func (b *Builder) Build(ctx context.Context, recentTracks, topArtists, topGenres []string) models.ListeningContext {
	now := b.now()

	lctx := models.ListeningContext{
		TimeOfDay:    TimeOfDay(now.Hour()),
		DayOfWeek:    now.Weekday().String(),
		RecentTracks: recentTracks,
		TopArtists:   topArtists,
		TopGenres:    topGenres,
	}

	if b.weather != nil {
		weather, err := b.weather.Current(ctx)
		if err != nil {
			b.log.Debug("weather lookup failed, continuing without weather", zap.Error(err))
		} else {
			lctx.Weather = weather.Description
		}
	}

	return lctx
}

// TimeOfDay buckets an hour of day: [5,12) morning, [12,17) afternoon,
// [17,21) evening, else night.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}
