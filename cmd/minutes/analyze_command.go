package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/analysis"
	"minutes/internal/api"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var participants []string
	var durationSeconds float64

	cmd := &cobra.Command{
		Use:         "analyze <transcript-file|->",
		Short:       "Run meeting analysis on a transcript without the daemon",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, name, err := readTranscript(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			cleaned := make([]string, 0, len(participants))
			for _, p := range participants {
				if p = strings.TrimSpace(p); p != "" {
					cleaned = append(cleaned, p)
				}
			}

			result := analysis.Analyze(transcript, cleaned, durationSeconds)
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			renderRecord(newView(cmd.OutOrStdout()), analysisRecord(name, cleaned, durationSeconds, result))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&participants, "participants", "p", nil, "Comma-separated participant names")
	cmd.Flags().Float64VarP(&durationSeconds, "duration", "d", 0, "Meeting duration in seconds (0 when unknown)")
	return cmd
}

func readTranscript(stdin io.Reader, arg string) (string, string, error) {
	if strings.TrimSpace(arg) == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read transcript from stdin: %w", err)
		}
		return string(raw), "stdin", nil
	}
	raw, err := os.ReadFile(arg)
	if err != nil {
		return "", "", fmt.Errorf("read transcript: %w", err)
	}
	return string(raw), filepath.Base(arg), nil
}

// analysisRecord shapes an offline result like a stored record so the
// show renderer can print it.
func analysisRecord(name string, participants []string, durationSeconds float64, result analysis.Result) api.Record {
	return api.Record{
		ID:              name,
		Status:          "completed",
		Progress:        100,
		SourceName:      name,
		DurationSeconds: durationSeconds,
		Participants:    participants,
		SummaryText:     result.SummaryText,
		ActionItems:     result.ActionItems,
		KeyTopics:       result.KeyTopics,
		Decisions:       result.Decisions,
		AnalysisStatus:  "completed",
		Sentiment: &api.Sentiment{
			Overall:            result.Sentiment.Overall,
			Confidence:         result.Sentiment.Confidence,
			PositiveIndicators: result.Sentiment.PositiveIndicators,
			NegativeIndicators: result.Sentiment.NegativeIndicators,
			EnergyLevel:        result.Sentiment.EnergyLevel,
		},
		Insights: &api.Insights{
			ParticipationScore: result.Insights.ParticipationScore,
			EngagementLevel:    result.Insights.EngagementLevel,
			MeetingEfficiency:  result.Insights.MeetingEfficiency,
			FollowUpNeeded:     result.Insights.FollowUpNeeded,
			WordCount:          result.Insights.WordCount,
			SpeakingRate:       result.Insights.SpeakingRate,
			ParticipantCount:   result.Insights.ParticipantCount,
		},
	}
}
