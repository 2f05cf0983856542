package main

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/api"
	"minutes/internal/logstream"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var component string
	var record string
	var level string
	var correlationID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// A nil client reports the API as unavailable and falls back to the file.
			client, err := api.NewClient(cfg.API.Bind, cfg.API.Token)
			if err != nil && !errors.Is(err, api.ErrUnavailable) {
				return err
			}

			out := cmd.OutOrStdout()
			printed, err := logstream.Stream(cmd.Context(), client, logstream.Options{
				Lines:  lines,
				Follow: follow,
				Filters: logstream.Filters{
					Component:     component,
					GroupID:       ctx.group(),
					RecordID:      record,
					CorrelationID: correlationID,
					Level:         level,
				},
				LogPath: cfg.CurrentLogPath(),
			},
				func(evt api.LogEvent) { fmt.Fprintln(out, formatLogEvent(evt)) },
				func(line string) { fmt.Fprintln(out, line) },
			)
			if err != nil {
				if cmd.Context().Err() != nil {
					return nil
				}
				if errors.Is(err, logstream.ErrFiltersRequireAPI) {
					return fmt.Errorf("%w; start it with `minutes start` or drop the filters", err)
				}
				if api.IsUnavailable(err) || errors.Is(err, fs.ErrNotExist) {
					return wrapAPIError(api.ErrUnavailable, cfg.API.Bind)
				}
				return err
			}
			if !printed && !follow {
				fmt.Fprintln(out, "No log entries available")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent lines to show")
	cmd.Flags().StringVar(&component, "component", "", "Only lines from this component")
	cmd.Flags().StringVar(&record, "record", "", "Only lines about this record id")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Only lines from one stage run")
	return cmd
}

func formatLogEvent(evt api.LogEvent) string {
	ts := evt.Timestamp
	if parsed := api.ParseTime(evt.Timestamp); !parsed.IsZero() {
		ts = parsed.Local().Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(strings.TrimSpace(evt.Level))
	if level == "" {
		level = "INFO"
	}
	parts := []string{ts, level}
	if component := strings.TrimSpace(evt.Component); component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	line := strings.Join(parts, " ")
	if subject := composeSubject(evt.GroupID, evt.RecordID, evt.Stage); subject != "" {
		line += " " + subject
	}
	if message := strings.TrimSpace(evt.Message); message != "" {
		line += " – " + message
	}
	if len(evt.Fields) == 0 {
		return line
	}
	var b strings.Builder
	b.WriteString(line)
	for _, key := range slices.Sorted(maps.Keys(evt.Fields)) {
		value := strings.TrimSpace(evt.Fields[key])
		if value == "" {
			continue
		}
		b.WriteString("\n    - ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}

func composeSubject(groupID, recordID, stage string) string {
	recordID = strings.TrimSpace(recordID)
	stage = strings.TrimSpace(stage)
	subject := recordID
	if subject != "" && groupID != "" {
		subject = groupID + "/" + recordID
	}
	switch {
	case subject != "" && stage != "":
		return fmt.Sprintf("%s (%s)", subject, stage)
	case subject != "":
		return subject
	case stage != "":
		return fmt.Sprintf("(%s)", stage)
	default:
		return ""
	}
}
