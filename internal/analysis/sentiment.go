package analysis

import (
	"math"
	"strings"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"

	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

var positiveWords = wordSet(
	"good", "great", "excellent", "success", "successful", "happy", "excited", "progress",
	"achieved", "completed", "improved", "positive", "enthusiastic", "agree", "well",
)

var negativeWords = wordSet(
	"bad", "problem", "issue", "concern", "delay", "delayed", "blocked", "blocker", "fail",
	"failed", "difficult", "risk", "worried", "negative", "behind",
)

func wordSet(list ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, w := range list {
		set[w] = struct{}{}
	}
	return set
}

// Sentiment is the lexicon-based tone estimate for a transcript.
type Sentiment struct {
	Overall            string  `json:"overall"`
	Confidence         float64 `json:"confidence"`
	PositiveIndicators int     `json:"positiveIndicators"`
	NegativeIndicators int     `json:"negativeIndicators"`
	EnergyLevel        string  `json:"energyLevel"`
}

// ScoreSentiment counts whole-word matches against the positive and negative
// lexicons.
func ScoreSentiment(transcript string) Sentiment {
	var pos, neg int
	for _, w := range words(transcript) {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	overall := SentimentNeutral
	switch {
	case pos > neg:
		overall = SentimentPositive
	case neg > pos:
		overall = SentimentNegative
	}

	diff := pos - neg
	if diff < 0 {
		diff = -diff
	}
	confidence := math.Min(0.95, 0.6+0.1*float64(diff))
	confidence = math.Round(confidence*100) / 100

	energy := LevelMedium
	if containsAny(strings.ToLower(transcript), "excited", "enthusiastic") {
		energy = LevelHigh
	}

	return Sentiment{
		Overall:            overall,
		Confidence:         confidence,
		PositiveIndicators: pos,
		NegativeIndicators: neg,
		EnergyLevel:        energy,
	}
}
