package analysis

import (
	"reflect"
	"strings"
	"testing"
)

const standupTranscript = "We decided to ship Friday. John will follow up with QA."

func TestAnalyzeDecisionAndAttributedAction(t *testing.T) {
	result := Analyze(standupTranscript, []string{"John Smith", "Sarah Lee"}, 0)

	if want := []string{"We decided to ship Friday."}; !reflect.DeepEqual(result.Decisions, want) {
		t.Fatalf("decisions = %q, want %q", result.Decisions, want)
	}
	if want := []string{"John: John will follow up with QA."}; !reflect.DeepEqual(result.ActionItems, want) {
		t.Fatalf("action items = %q, want %q", result.ActionItems, want)
	}
	if want := []string{"General Discussion", "Team Updates"}; !reflect.DeepEqual(result.KeyTopics, want) {
		t.Fatalf("topics = %q, want %q", result.KeyTopics, want)
	}
	want := Insights{
		ParticipationScore: 4,
		EngagementLevel:    LevelMedium,
		MeetingEfficiency:  LevelMedium,
		FollowUpNeeded:     true,
		WordCount:          11,
		SpeakingRate:       150,
		ParticipantCount:   2,
	}
	if result.Insights != want {
		t.Fatalf("insights = %+v, want %+v", result.Insights, want)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	transcript := strings.Join([]string{
		"Good morning everyone, the project timeline looks good and the milestone is on track.",
		"Sarah will complete the database migration before the deployment window opens.",
		"We agreed to move the budget review to next week.",
		"There is a risk that testing is delayed by the bug backlog.",
	}, "\n")
	participants := []string{"Sarah Connor", "Mike Ross"}

	first := Analyze(transcript, participants, 95)
	for i := 0; i < 5; i++ {
		if got := Analyze(transcript, participants, 95); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, got, first)
		}
	}
}

func TestSummaryTemplate(t *testing.T) {
	long := []string{
		"First we walked through the release checklist and assigned every open item.",
		"Second we reviewed the incident from Tuesday and the follow-up changes to alerting.",
		"Third we looked at hiring plans for the next quarter and the onboarding backlog.",
		"Fourth we spent the remaining time on customer feedback from the beta program.",
	}
	got := Summary(strings.Join(append(long, "Short line."), "\n"))

	want := "Meeting Summary:\n" +
		"This 1-minute meeting was transcribed and analyzed automatically.\n" +
		"\nKey Discussion Points:\n" +
		"• " + long[0] + "\n" +
		"• " + long[1] + "\n" +
		"• " + long[2] + "\n" +
		"\nKey Outcomes:\n" +
		"• Discussion points and decisions were captured\n" +
		"• Action items were identified for follow-up\n" +
		"\nOverall Assessment:\n" +
		"Review the action items and decisions below to confirm owners and next steps."
	if got != want {
		t.Fatalf("summary mismatch:\n%s\n---\n%s", got, want)
	}
}

func TestSummaryWithoutLongLines(t *testing.T) {
	got := Summary("Quick sync. All good.")
	if got == "" {
		t.Fatal("summary must never be empty")
	}
	if strings.Contains(got, "Key Discussion Points") {
		t.Fatalf("expected no discussion points section:\n%s", got)
	}
	if !strings.Contains(got, "This 1-minute meeting") {
		t.Fatalf("expected estimated length in summary:\n%s", got)
	}

	if got := Summary(strings.Repeat("word ", 151)); !strings.Contains(got, "This 2-minute meeting") {
		t.Fatalf("expected 2 minutes for 151 words:\n%s", got)
	}
	empty := Summary("")
	if !strings.Contains(empty, "Overall Assessment") {
		t.Fatalf("empty transcript should still render boilerplate:\n%s", empty)
	}
	if first := strings.SplitN(empty, "\n", 3)[1]; first != "This 1-minute meeting was transcribed and analyzed automatically." {
		t.Fatalf("empty transcript length line = %q", first)
	}
}

func TestActionItems(t *testing.T) {
	tests := []struct {
		name         string
		transcript   string
		participants []string
		want         []string
	}{
		{
			name:       "fallback when no action language",
			transcript: "We talked about the weather. It was nice.",
			want:       fallbackActionItems,
		},
		{
			name:       "short lines are ignored",
			transcript: "I will.\nOk then.",
			want:       fallbackActionItems,
		},
		{
			name:         "speaker name is title cased",
			transcript:   "alice should send the report today",
			participants: []string{"alice", "bob"},
			want:         []string{"Alice: alice should send the report today"},
		},
		{
			name:         "unknown speaker defaults to team",
			transcript:   "Somebody must deliver the slides.",
			participants: []string{"Bob"},
			want:         []string{"Team: Somebody must deliver the slides."},
		},
		{
			name:         "name match is whole word",
			transcript:   "Allison will draft the agenda.",
			participants: []string{"Al Jones"},
			want:         []string{"Team: Allison will draft the agenda."},
		},
		{
			name: "capped at five",
			transcript: strings.Repeat("Someone will handle the next task.\n", 7),
			want: []string{
				"Team: Someone will handle the next task.",
				"Team: Someone will handle the next task.",
				"Team: Someone will handle the next task.",
				"Team: Someone will handle the next task.",
				"Team: Someone will handle the next task.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActionItems(tt.transcript, tt.participants)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ActionItems() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionItemFallbackIsNotShared(t *testing.T) {
	items := ActionItems("nothing here", nil)
	items[0] = "mutated"
	if ActionItems("nothing here", nil)[0] == "mutated" {
		t.Fatal("fallback items must be copied")
	}
}

func TestKeyTopics(t *testing.T) {
	tests := []struct {
		transcript string
		want       []string
	}{
		{"The project timeline and the budget cost review.", []string{"Project Management", "Budget & Finance"}},
		{"Hiring and onboarding dominate; the marketing campaign waits.", []string{"Marketing & Sales", "Human Resources"}},
		{"Only one keyword: project.", []string{"General Discussion", "Team Updates"}},
		{"", []string{"General Discussion", "Team Updates"}},
	}
	for _, tt := range tests {
		if got := KeyTopics(tt.transcript); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("KeyTopics(%q) = %q, want %q", tt.transcript, got, tt.want)
		}
	}
}

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       Sentiment
	}{
		{
			name:       "positive with energy",
			transcript: "Great progress, but the deploy is delayed. Everyone is excited.",
			want:       Sentiment{Overall: SentimentPositive, Confidence: 0.8, PositiveIndicators: 3, NegativeIndicators: 1, EnergyLevel: LevelHigh},
		},
		{
			name:       "negative",
			transcript: "The release is blocked and we are behind.",
			want:       Sentiment{Overall: SentimentNegative, Confidence: 0.8, PositiveIndicators: 0, NegativeIndicators: 2, EnergyLevel: LevelMedium},
		},
		{
			name:       "tie is neutral",
			transcript: "Good news and bad news.",
			want:       Sentiment{Overall: SentimentNeutral, Confidence: 0.6, PositiveIndicators: 1, NegativeIndicators: 1, EnergyLevel: LevelMedium},
		},
		{
			name:       "confidence is capped",
			transcript: "good great excellent success happy",
			want:       Sentiment{Overall: SentimentPositive, Confidence: 0.95, PositiveIndicators: 5, NegativeIndicators: 0, EnergyLevel: LevelMedium},
		},
		{
			name:       "whole words only",
			transcript: "Goodbye, wellness, and issues.",
			want:       Sentiment{Overall: SentimentNeutral, Confidence: 0.6, EnergyLevel: LevelMedium},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreSentiment(tt.transcript); got != tt.want {
				t.Fatalf("ScoreSentiment() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecisions(t *testing.T) {
	transcript := strings.Join([]string{
		"We agreed on the API shape.",
		"Resolved.",
		"The board approved the budget.",
		"We concluded the vendor review.",
		"Finally we determined the launch date.",
	}, "\n")
	want := []string{
		"We agreed on the API shape.",
		"The board approved the budget.",
		"We concluded the vendor review.",
	}
	if got := Decisions(transcript); !reflect.DeepEqual(got, want) {
		t.Fatalf("Decisions() = %q, want %q", got, want)
	}
	if got := Decisions("We talked it through at length."); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil decisions, got %#v", got)
	}
}

func TestComputeInsights(t *testing.T) {
	tests := []struct {
		name         string
		transcript   string
		participants []string
		duration     float64
		wantScore    int
		wantRate     int
		wantLevel    string
	}{
		{"unknown participants and duration", "hello there", nil, 0, 8, 150, LevelMedium},
		{"fast speakers", strings.Repeat("word ", 330), []string{"a", "b", "c", "d", "e", "f"}, 120, 10, 165, LevelHigh},
		{"medium pace", strings.Repeat("word ", 300), []string{"a"}, 120, 2, 150, LevelMedium},
		{"slow pace", strings.Repeat("word ", 200), []string{"a", "b"}, 120, 4, 100, LevelLow},
		{"exact threshold is not high", strings.Repeat("word ", 160), nil, 60, 8, 160, LevelMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeInsights(tt.transcript, tt.participants, tt.duration)
			if got.ParticipationScore != tt.wantScore || got.SpeakingRate != tt.wantRate || got.EngagementLevel != tt.wantLevel {
				t.Fatalf("ComputeInsights() = %+v", got)
			}
			if got.ParticipantCount != len(tt.participants) {
				t.Fatalf("participant count = %d", got.ParticipantCount)
			}
		})
	}

	flags := ComputeInsights("Next steps: schedule the next meeting.", nil, 0)
	if flags.MeetingEfficiency != LevelHigh || !flags.FollowUpNeeded {
		t.Fatalf("expected high efficiency and follow-up, got %+v", flags)
	}
}

func TestLinesSplitsSentences(t *testing.T) {
	got := lines("First point. Second point!\n\n  Third v1.2 release?  \nno terminator")
	want := []string{"First point.", "Second point!", "Third v1.2 release?", "no terminator"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines() = %q, want %q", got, want)
	}
}
