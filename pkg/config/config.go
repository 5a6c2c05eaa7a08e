package config

import (
	"math"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Scoring holds the tuning constants of the composite match score. The
// individual values are product-tuned defaults; the only hard requirement is
// that the four weights sum to 1.0 (see Weights).
type Scoring struct {
	TasteWeight         float64 `envconfig:"SCORE_TASTE_WEIGHT" default:"0.30"`
	MoodWeight          float64 `envconfig:"SCORE_MOOD_WEIGHT" default:"0.30"`
	PopularityWeight    float64 `envconfig:"SCORE_POPULARITY_WEIGHT" default:"0.25"`
	PlayFrequencyWeight float64 `envconfig:"SCORE_PLAY_FREQUENCY_WEIGHT" default:"0.15"`

	DefaultTasteScore  float64 `envconfig:"SCORE_DEFAULT_TASTE" default:"75"`
	DefaultMoodScore   float64 `envconfig:"SCORE_DEFAULT_MOOD" default:"80"`
	BackfillTasteScore float64 `envconfig:"SCORE_BACKFILL_TASTE" default:"70"`
	BackfillMoodScore  float64 `envconfig:"SCORE_BACKFILL_MOOD" default:"75"`

	DefaultPopularity float64 `envconfig:"SCORE_DEFAULT_POPULARITY" default:"50"`
}

// Weights returns the four scoring weights normalized to sum to 1.0.
// A degenerate all-zero configuration falls back to the defaults.
func (s Scoring) Weights() (taste, mood, popularity, playFreq float64) {
	sum := s.TasteWeight + s.MoodWeight + s.PopularityWeight + s.PlayFrequencyWeight
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0.30, 0.30, 0.25, 0.15
	}
	return s.TasteWeight / sum, s.MoodWeight / sum, s.PopularityWeight / sum, s.PlayFrequencyWeight / sum
}

type Config struct {
	OpenAIAPIKey   string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel    string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	LLMTimeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	LLMMaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"2000"`
	LLMTemperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.7"`

	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`

	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"moodqueue"`

	// Preferences persistence.
	PreferencesTTL time.Duration `envconfig:"PREFERENCES_TTL" default:"720h"` // 30 days
	MaxVibes       int           `envconfig:"MAX_VIBES" default:"10"`
	MaxGenres      int           `envconfig:"MAX_GENRES" default:"15"`

	// Catalog search pacing and sizing.
	SearchDelay     time.Duration `envconfig:"SEARCH_DELAY" default:"150ms"`
	PerQueryLimit   int           `envconfig:"PER_QUERY_LIMIT" default:"5"`
	PlaylistLength  int           `envconfig:"PLAYLIST_LENGTH" default:"10"`
	MaxPlaylistSize int           `envconfig:"MAX_PLAYLIST_SIZE" default:"30"`

	// Weather lookup (best-effort; zero coordinates disable the call).
	WeatherLatitude  float64 `envconfig:"WEATHER_LATITUDE"`
	WeatherLongitude float64 `envconfig:"WEATHER_LONGITUDE"`

	Scoring Scoring
}

func NewConfig() (*Config, error) {
	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a Config populated with the compiled-in defaults only,
// ignoring the environment. Used by tests and embedding callers.
func Default() *Config {
	return &Config{
		OpenAIModel:     "gpt-4o-mini",
		LLMTimeout:      30 * time.Second,
		LLMMaxTokens:    2000,
		LLMTemperature:  0.7,
		DatabaseName:    "moodqueue",
		PreferencesTTL:  720 * time.Hour,
		MaxVibes:        10,
		MaxGenres:       15,
		SearchDelay:     150 * time.Millisecond,
		PerQueryLimit:   5,
		PlaylistLength:  10,
		MaxPlaylistSize: 30,
		Scoring: Scoring{
			TasteWeight:         0.30,
			MoodWeight:          0.30,
			PopularityWeight:    0.25,
			PlayFrequencyWeight: 0.15,
			DefaultTasteScore:   75,
			DefaultMoodScore:    80,
			BackfillTasteScore:  70,
			BackfillMoodScore:   75,
			DefaultPopularity:   50,
		},
	}
}
