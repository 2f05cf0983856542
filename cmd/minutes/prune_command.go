package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"minutes/internal/store"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete completed and failed records older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be a positive duration (for example 720h)")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open record store: %w", err)
			}
			defer st.Close()

			cutoff := time.Now().Add(-olderThan)
			removed, err := st.Prune(cmd.Context(), cutoff)
			if err != nil {
				return fmt.Errorf("prune records: %w", err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"removed": removed, "cutoff": cutoff.UTC().Format(time.RFC3339)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s) last updated before %s\n", removed, cutoff.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age cutoff, for example 720h")
	_ = cmd.MarkFlagRequired("older-than")
	return cmd
}
