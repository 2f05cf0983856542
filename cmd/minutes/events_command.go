package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/api"
	"minutes/internal/events"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var since uint64
	var limit int
	var record string
	var topic string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print pipeline events from the daemon journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic != "" {
				if _, ok := events.ParseTopic(topic); !ok {
					return fmt.Errorf("unknown topic %q", topic)
				}
			}
			return ctx.withClient(func(client *api.Client) error {
				query := api.EventQuery{
					Since:    since,
					Limit:    limit,
					GroupID:  ctx.group(),
					RecordID: strings.TrimSpace(record),
					Topic:    topic,
				}
				out := cmd.OutOrStdout()
				printed := false
				for {
					resp, err := client.Events(cmd.Context(), query)
					if err != nil {
						if cmd.Context().Err() != nil {
							return nil
						}
						return err
					}
					for _, evt := range resp.Events {
						if ctx.jsonOutput() {
							if err := writeJSONLine(cmd, evt); err != nil {
								return err
							}
						} else {
							fmt.Fprintln(out, formatEvent(evt))
						}
						printed = true
					}
					if !follow {
						if !printed && !ctx.jsonOutput() {
							fmt.Fprintln(out, "No events available")
						}
						return nil
					}
					query.Since = resp.Next
					query.Follow = true
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep waiting for new events")
	cmd.Flags().Uint64Var(&since, "since", 0, "Only events after this sequence number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum events per page")
	cmd.Flags().StringVar(&record, "record", "", "Only events for this record id")
	cmd.Flags().StringVar(&topic, "topic", "", "Only events of this topic")
	return cmd
}

func formatEvent(evt events.Event) string {
	line := fmt.Sprintf("%s #%d %-24s %s/%s",
		evt.Timestamp.Local().Format("2006-01-02 15:04:05"), evt.Seq, evt.Topic, evt.GroupID, evt.ID)
	if detail := describePayload(evt.Payload); detail != "" {
		line += " – " + detail
	}
	return line
}

func describePayload(payload events.Payload) string {
	switch p := payload.(type) {
	case events.WorkAccepted:
		return fmt.Sprintf("%s (language %s, model %s)", p.SourceName, p.Language, p.ModelHint)
	case events.TranscriptionCompleted:
		return fmt.Sprintf("%s: %.0fs, %d participants", p.SourceName, p.DurationSeconds, len(p.Participants))
	case events.TranscriptionFailed:
		return fmt.Sprintf("%s: %s", p.SourceName, p.Error)
	case events.SummaryCompleted:
		return fmt.Sprintf("%s: %d action items, topics %s", p.SourceName, len(p.ActionItems), strings.Join(p.KeyTopics, ", "))
	case events.ActionItemsExtracted:
		return fmt.Sprintf("%s: %d action items", p.SourceName, len(p.ActionItems))
	default:
		return ""
	}
}
