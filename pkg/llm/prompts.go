package llm

import (
	"fmt"
	"strings"

	"github.com/moodqueue/moodqueue/pkg/models"
)

func moodPrompt(prompt string, history []models.ChatMessage, lctx models.ListeningContext, profile models.TasteProfile) string {
	return fmt.Sprintf(`You are a music mood analyst. Read the listener's request and map it onto the valence/energy plane.

Listener request: %q
%s%s%s
Rules:
- Genres, languages or artists the listener names explicitly take absolute precedence over their taste profile. Taste only steers choices WITHIN an explicitly requested category, never overrides it.
- valence is -1 (melancholic) to 1 (joyful); energy is 0 (calm) to 1 (intense).
- startPoint is where the listener is now, endPoint is where the music should take them.
- Set needsFollowUp true only when the request is too vague to act on.

Return JSON:
{"startPoint":{"valence":0.0,"energy":0.5},"endPoint":{"valence":0.0,"energy":0.5},"mood":"...","reasoning":"...","suggestedGenres":["..."],"playlistName":"...","needsFollowUp":false,"followUpQuestion":""}
Only return the JSON, no other text.`, prompt, transcript(history), contextSummary(lctx), tasteSummary(profile))
}

func planPrompt(mood models.MoodAnalysis, lctx models.ListeningContext, profile models.TasteProfile) string {
	return fmt.Sprintf(`You are a music programming director. Turn a mood analysis into concrete selection constraints.

Mood: %s
Mood reasoning: %s
Target end point: valence %.2f, energy %.2f
Suggested genres: %s
%s%s
Rules:
- familiarPercent and discoveryPercent must sum to exactly 100.
- The first ranking priority is always "match the explicit request exactly".
- anchorArtists/anchorGenres are strong positive signals; avoidGenres are hard exclusions.

Return JSON:
{"targetEnergy":0.5,"targetValence":0.0,"energyRange":{"min":0.2,"max":0.8},"valenceRange":{"min":-0.4,"max":0.6},"anchorArtists":["..."],"anchorGenres":["..."],"avoidGenres":["..."],"discoveryBalance":{"familiarPercent":60,"discoveryPercent":40},"rankingPriorities":["match the explicit request exactly"]}
Only return the JSON, no other text.`,
		mood.Mood, mood.Reasoning, mood.EndPoint.Valence, mood.EndPoint.Energy,
		strings.Join(mood.SuggestedGenres, ", "), contextSummary(lctx), tasteSummary(profile))
}

func queriesPrompt(mood models.MoodAnalysis, lctx models.ListeningContext, count int) string {
	return fmt.Sprintf(`You are a music curator building a %d-track playlist for this mood:

Mood: %s
Reasoning: %s
Suggested genres: %s
Journey: valence %.2f -> %.2f, energy %.2f -> %.2f
%s
Produce exactly %d catalog search queries, one per playlist slot, ordered to carry the emotional journey. Each query should name a real track and artist, or a precise genre phrase.

Return JSON:
{"tracks":[{"searchQuery":"artist track","reason":"...","targetEnergy":0.5,"targetValence":0.0,"reasoningBullets":["...","..."],"tasteScore":75,"moodScore":80,"discoveryLevel":"balanced"}]}
Scores are 0-100. Only return the JSON, no other text.`,
		count, mood.Mood, mood.Reasoning, strings.Join(mood.SuggestedGenres, ", "),
		mood.StartPoint.Valence, mood.EndPoint.Valence, mood.StartPoint.Energy, mood.EndPoint.Energy,
		contextSummary(lctx), count)
}

func rankPrompt(candidates []models.CandidateTrack, plan models.MusicPlan, mood models.MoodAnalysis, lctx models.ListeningContext, profile models.TasteProfile, count int) string {
	return fmt.Sprintf(`You are ranking catalog tracks for a playlist. Pick and order the best %d tracks for this mood and plan.

Mood: %s
Plan: target energy %.2f (range %.2f-%.2f), target valence %.2f (range %.2f-%.2f)
Anchor artists: %s
Anchor genres: %s
Avoid genres: %s
Discovery balance: %d%% familiar / %d%% discovery
Ranking priorities: %s
%s%s
Candidates (id | name | artists | popularity):
%s

Rules:
- Use ONLY trackId values from the candidate list above. Never invent identifiers.
- Selecting fewer than %d tracks is allowed when the candidates are weak.
- 2-4 reasoningBullets per track.

Return JSON:
{"tracks":[{"trackId":"...","reason":"...","reasoningBullets":["...","..."],"tasteAlignment":{"score":75,"matchedArtists":["..."],"matchedGenres":["..."],"explanation":"..."},"moodFit":{"score":80,"explanation":"..."},"discoveryLevel":"balanced"}]}
Scores are 0-100. Only return the JSON, no other text.`,
		count, mood.Mood,
		plan.TargetEnergy, plan.EnergyRange.Min, plan.EnergyRange.Max,
		plan.TargetValence, plan.ValenceRange.Min, plan.ValenceRange.Max,
		strings.Join(plan.AnchorArtists, ", "), strings.Join(plan.AnchorGenres, ", "),
		strings.Join(plan.AvoidGenres, ", "),
		plan.DiscoveryBalance.FamiliarPercent, plan.DiscoveryBalance.DiscoveryPercent,
		strings.Join(plan.RankingPriorities, "; "),
		contextSummary(lctx), tasteSummary(profile),
		candidateList(candidates), count)
}

func transcript(history []models.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\nConversation so far:\n")
	for _, message := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", message.Role, message.Content))
	}
	return sb.String()
}

func contextSummary(lctx models.ListeningContext) string {
	var sb strings.Builder
	sb.WriteString("\nContext: ")
	sb.WriteString(lctx.TimeOfDay)
	if lctx.DayOfWeek != "" {
		sb.WriteString(", " + lctx.DayOfWeek)
	}
	if lctx.Weather != "" {
		sb.WriteString(", " + lctx.Weather)
	}
	sb.WriteString("\n")
	if len(lctx.RecentTracks) > 0 {
		sb.WriteString("Recently played: " + strings.Join(lctx.RecentTracks, "; ") + "\n")
	}
	return sb.String()
}

func tasteSummary(profile models.TasteProfile) string {
	if profile.Confidence == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Listener taste (confidence %.2f):\n", profile.Confidence))
	if len(profile.AnchorArtists) > 0 {
		sb.WriteString("  favorite artists: " + strings.Join(profile.AnchorArtists, ", ") + "\n")
	}
	if len(profile.TopGenres) > 0 {
		sb.WriteString("  favorite genres: " + strings.Join(profile.TopGenres, ", ") + "\n")
	}
	if profile.PreferredDecade != "" {
		sb.WriteString("  preferred decade: " + profile.PreferredDecade + "\n")
	}
	sb.WriteString(fmt.Sprintf("  typical energy %.2f, positivity %.2f, acousticness %.2f\n",
		profile.Features.Energy, profile.Features.Valence, profile.Features.Acousticness))
	return sb.String()
}

func candidateList(candidates []models.CandidateTrack) string {
	var sb strings.Builder
	for _, candidate := range candidates {
		sb.WriteString(fmt.Sprintf("%s | %s | %s | %d\n",
			candidate.ID, candidate.Name, strings.Join(candidate.Artists, ", "), candidate.Popularity))
	}
	return sb.String()
}
