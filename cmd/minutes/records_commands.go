package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/api"
	"minutes/internal/language"
	"minutes/internal/recordaccess"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a transcription record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.openRecords(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			id := strings.TrimSpace(args[0])
			rec, err := session.Access.Get(cmd.Context(), ctx.group(), id)
			if errors.Is(err, recordaccess.ErrNotFound) {
				return fmt.Errorf("transcription %s not found in group %s", id, ctx.resolvedGroup())
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, rec)
			}
			renderRecord(newView(cmd.OutOrStdout()), rec)
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent transcription records",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.openRecords(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			records, err := session.Access.List(cmd.Context(), ctx.group(), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No records in group %s\n", ctx.resolvedGroup())
				return nil
			}
			fmt.Fprint(out, renderRecordTable(records))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum records to list (defaults to store.list_limit)")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show every revision of a transcription record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.openRecords(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			id := strings.TrimSpace(args[0])
			revisions, err := session.Access.History(cmd.Context(), ctx.group(), id)
			if errors.Is(err, recordaccess.ErrNotFound) {
				return fmt.Errorf("transcription %s not found in group %s", id, ctx.resolvedGroup())
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, revisions)
			}
			rows := make([][]string, 0, len(revisions))
			for _, rev := range revisions {
				rows = append(rows, []string{
					strconv.FormatInt(rev.Version, 10),
					rev.Status,
					strconv.Itoa(rev.Progress) + "%",
					rev.EngineStatus,
					strings.Join(rev.Changed, ", "),
					formatTimestamp(rev.RecordedAt),
				})
			}
			newView(cmd.OutOrStdout()).table(
				[]string{"Version", "Status", "Progress", "Engine", "Changed", "Recorded"},
				rows, 0, 2,
			)
			return nil
		},
	}
}

func renderRecordTable(records []api.Record) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			rec.GroupID,
			rec.Status,
			strconv.Itoa(rec.Progress) + "%",
			truncate(rec.SourceName, 40),
			formatTimestamp(rec.UpdatedAt),
		})
	}
	return renderTable([]string{"ID", "Group", "Status", "Progress", "Source", "Updated"}, rows, 3)
}

func formatLanguage(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", language.DisplayName(code), code)
}

func renderRecord(v *view, rec api.Record) {
	v.heading("Transcription " + rec.ID)
	v.status("Status", recordTone(rec.Status), fmt.Sprintf("%s (%d%%)", rec.Status, rec.Progress))
	v.field("Group", rec.GroupID)
	v.field("Source", rec.SourceName)
	v.field("Language", formatLanguage(rec.Language))
	v.field("Transcription", rec.TranscriptionStatus)
	v.field("Analysis", rec.AnalysisStatus)
	v.field("Engine", strings.TrimSpace(rec.EngineStatus+" "+rec.EngineModel))
	v.field("Duration", formatSeconds(rec.DurationSeconds))
	v.field("Processing time", formatMillis(rec.ProcessingTimeMs))
	v.field("Participants", strings.Join(rec.Participants, ", "))
	v.field("Version", strconv.FormatInt(rec.Version, 10))
	v.field("Created", formatTimestamp(rec.CreatedAt))
	v.field("Updated", formatTimestamp(rec.UpdatedAt))
	if rec.Error != "" {
		v.status("Error", toneError, rec.Error)
	}

	if rec.SummaryText != "" {
		v.section("Summary")
		v.println(rec.SummaryText)
	}
	v.bullets("Action Items", rec.ActionItems)
	v.bullets("Key Topics", rec.KeyTopics)
	v.bullets("Decisions", rec.Decisions)

	if s := rec.Sentiment; s != nil {
		v.section("Sentiment")
		v.field("Overall", fmt.Sprintf("%s (confidence %.2f)", s.Overall, s.Confidence))
		v.field("Indicators", fmt.Sprintf("+%d / -%d", s.PositiveIndicators, s.NegativeIndicators))
		v.field("Energy", s.EnergyLevel)
	}
	if in := rec.Insights; in != nil {
		v.section("Insights")
		v.field("Participation", fmt.Sprintf("%d (%d participants)", in.ParticipationScore, in.ParticipantCount))
		v.field("Engagement", in.EngagementLevel)
		v.field("Efficiency", in.MeetingEfficiency)
		v.field("Follow-up needed", yesNo(in.FollowUpNeeded))
		v.field("Words", fmt.Sprintf("%d (%d wpm)", in.WordCount, in.SpeakingRate))
	}
}

func formatTimestamp(value string) string {
	t := api.ParseTime(value)
	if t.IsZero() {
		return value
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%.0fs", seconds)
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return fmt.Sprintf("%dms", ms)
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-1]) + "…"
}
