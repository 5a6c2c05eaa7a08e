package taste

import (
	"strings"

	"github.com/moodqueue/moodqueue/pkg/models"
)

// Genre keyword sets driving the audio-feature heuristics. These are not
// audio analysis: a genre tag containing any keyword nudges the estimate by
// a fixed step from the neutral midpoint.
var (
	energeticKeywords = []string{"edm", "metal", "techno", "punk", "house", "dance", "electro", "trap", "drum and bass", "hardcore"}
	calmKeywords      = []string{"ambient", "acoustic", "folk", "chill", "classical", "lo-fi", "sleep", "piano"}
	positiveKeywords  = []string{"pop", "disco", "funk", "happy", "tropical", "reggae", "ska"}
	negativeKeywords  = []string{"sad", "emo", "doom", "blues", "darkwave", "grunge"}
	danceKeywords     = []string{"dance", "edm", "house", "disco", "funk", "latin", "pop", "techno"}
	acousticKeywords  = []string{"acoustic", "folk", "singer-songwriter", "classical", "country", "unplugged", "bluegrass"}

	fastKeywords = []string{"techno", "drum and bass", "punk", "metal", "house", "hardcore", "edm"}
	slowKeywords = []string{"ambient", "chill", "classical", "jazz", "lo-fi", "sleep", "ballad"}
)

const featureStep = 0.08

// inferFeatures estimates the four audio-feature averages from genre tag
// substrings, starting at the neutral midpoints and clamping to [0,1].
func inferFeatures(genres []string) models.FeatureAverages {
	energy, valence, dance, acoustic := 0.5, 0.5, 0.5, 0.3

	for _, genre := range genres {
		genre = strings.ToLower(genre)
		if matchesAny(genre, energeticKeywords) {
			energy += featureStep
		}
		if matchesAny(genre, calmKeywords) {
			energy -= featureStep
		}
		if matchesAny(genre, positiveKeywords) {
			valence += featureStep
		}
		if matchesAny(genre, negativeKeywords) {
			valence -= featureStep
		}
		if matchesAny(genre, danceKeywords) {
			dance += featureStep
		}
		if matchesAny(genre, acousticKeywords) {
			acoustic += featureStep
		}
	}

	return models.FeatureAverages{
		Energy:       clamp01(energy),
		Valence:      clamp01(valence),
		Danceability: clamp01(dance),
		Acousticness: clamp01(acoustic),
	}
}

// inferTempo derives a coarse BPM band from fast/slow genre keyword
// presence. Mixed or absent signals keep the default 90-140 band.
func inferTempo(genres []string) models.TempoRange {
	var fast, slow bool
	for _, genre := range genres {
		genre = strings.ToLower(genre)
		if matchesAny(genre, fastKeywords) {
			fast = true
		}
		if matchesAny(genre, slowKeywords) {
			slow = true
		}
	}

	switch {
	case fast && !slow:
		return models.TempoRange{MinBPM: 120, MaxBPM: 180}
	case slow && !fast:
		return models.TempoRange{MinBPM: 60, MaxBPM: 110}
	default:
		return models.TempoRange{MinBPM: 90, MaxBPM: 140}
	}
}

func matchesAny(genre string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(genre, keyword) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
