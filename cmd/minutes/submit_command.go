package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"minutes/internal/api"
)

// waitPollInterval is how often --wait re-reads the submitted record.
const waitPollInterval = 500 * time.Millisecond

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var language string
	var model string
	var options map[string]string
	var wait bool
	var waitTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "submit <source>",
		Short: "Submit a recording for transcription and analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.SubmitRequest{
				SourceName:    strings.TrimSpace(args[0]),
				Language:      strings.TrimSpace(language),
				ModelHint:     strings.TrimSpace(model),
				EngineOptions: options,
				GroupID:       ctx.group(),
			}
			return ctx.withClient(func(client *api.Client) error {
				ack, err := client.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				if !wait {
					if ctx.jsonOutput() {
						return writeJSON(cmd, ack)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Accepted %s (group %s, status %s)\n", ack.ID, ack.GroupID, ack.Status)
					return nil
				}

				waitCtx, cancel := context.WithTimeout(cmd.Context(), waitTimeout)
				defer cancel()
				rec, err := waitForRecord(waitCtx, client, ack.GroupID, ack.ID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rec)
				}
				renderRecord(newView(cmd.OutOrStdout()), rec)
				if rec.Status == "failed" {
					return fmt.Errorf("transcription %s failed", rec.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Spoken language code (defaults to pipeline.default_language)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Engine model hint (tiny, base, small, medium, large)")
	cmd.Flags().StringToStringVarP(&options, "option", "o", nil, "Engine option as key=value (repeatable)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait until transcription and analysis finish")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 30*time.Minute, "Maximum time to wait with --wait")
	return cmd
}

// waitForRecord polls until the record is failed, or completed with its
// analysis settled.
func waitForRecord(ctx context.Context, client *api.Client, groupID, id string) (api.Record, error) {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		rec, err := client.Get(ctx, groupID, id)
		if err != nil && !api.IsNotFound(err) {
			return api.Record{}, err
		}
		if err == nil && recordSettled(rec) {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return rec, fmt.Errorf("timed out waiting for %s (last status %s)", id, rec.Status)
			}
			return rec, ctx.Err()
		case <-ticker.C:
		}
	}
}

func recordSettled(rec api.Record) bool {
	switch rec.Status {
	case "failed":
		return true
	case "completed":
		return rec.AnalysisStatus == "completed" || rec.AnalysisStatus == "failed"
	default:
		return false
	}
}
