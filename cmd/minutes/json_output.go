package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// writeJSON prints v as an indented document.
func writeJSON(cmd *cobra.Command, v any) error {
	return encodeJSON(cmd.OutOrStdout(), v, "  ")
}

// writeJSONLine prints v compactly on one line, for streamed output.
func writeJSONLine(cmd *cobra.Command, v any) error {
	return encodeJSON(cmd.OutOrStdout(), v, "")
}

func encodeJSON(w io.Writer, v any, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}
