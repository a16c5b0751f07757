package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/teamboard/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// printMarkdown renders md with glamour when stdout is a terminal and writes
// it verbatim otherwise, so piping keeps plain Markdown.
func printMarkdown(cmd *cobra.Command, md string) error {
	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok && tui.IsTerminal(f) {
		render, err := tui.NewRenderer(tui.Width(f))
		if err == nil {
			if rendered, err := render(md); err == nil {
				md = rendered
			}
		}
	}
	_, err := io.WriteString(out, md)
	return err
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addFormatFlag(cmd *cobra.Command, formats ...string) {
	cmd.Flags().StringP("format", "f", formats[0], fmt.Sprintf("Output format: %v", formats))
}

func format(cmd *cobra.Command, allowed ...string) (string, error) {
	f, _ := cmd.Flags().GetString("format")
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (supported: %v)", f, allowed)
}
