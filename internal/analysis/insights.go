package analysis

import (
	"math"
	"strings"
)

const (
	defaultParticipationScore = 8
	maxParticipationScore     = 10
	defaultSpeakingRate       = 150
	highEngagementRate        = 160
	mediumEngagementRate      = 120
)

// Insights are participation and pacing metrics for a transcript.
type Insights struct {
	ParticipationScore int    `json:"participationScore"`
	EngagementLevel    string `json:"engagementLevel"`
	MeetingEfficiency  string `json:"meetingEfficiency"`
	FollowUpNeeded     bool   `json:"followUpNeeded"`
	WordCount          int    `json:"wordCount"`
	SpeakingRate       int    `json:"speakingRate"`
	ParticipantCount   int    `json:"participantCount"`
}

// ComputeInsights derives pacing metrics. A non-positive duration means the
// duration is unknown.
func ComputeInsights(transcript string, participants []string, durationSeconds float64) Insights {
	count := len(participants)
	score := defaultParticipationScore
	if count > 0 {
		score = min(maxParticipationScore, count*2)
	}

	wc := wordCount(transcript)
	rate := defaultSpeakingRate
	if durationSeconds > 0 {
		rate = int(math.Round(float64(wc) / (durationSeconds / 60)))
	}

	engagement := LevelLow
	switch {
	case rate > highEngagementRate:
		engagement = LevelHigh
	case rate > mediumEngagementRate:
		engagement = LevelMedium
	}

	lower := strings.ToLower(transcript)
	efficiency := LevelMedium
	if containsAny(lower, "action", "next steps") {
		efficiency = LevelHigh
	}

	return Insights{
		ParticipationScore: score,
		EngagementLevel:    engagement,
		MeetingEfficiency:  efficiency,
		FollowUpNeeded:     containsAny(lower, "follow up", "next meeting"),
		WordCount:          wc,
		SpeakingRate:       rate,
		ParticipantCount:   count,
	}
}
