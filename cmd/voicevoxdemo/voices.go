package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cocotone/voicevox-juce-demo/internal/engine"
)

func newVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the available voices by synthesis mode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			eng := newEngine(cfg)
			defer eng.Close()

			cat, err := eng.Catalog()
			if err != nil {
				return err
			}

			printCatalog(cmd.OutOrStdout(), cat)
			return nil
		},
	}

	return cmd
}

func printCatalog(w io.Writer, cat engine.Catalog) {
	printEntries(w, "Talk voices:", cat.Talk)
	printEntries(w, "Humming voices:", cat.Humming)
}

func printEntries(w io.Writer, heading string, entries []engine.VoiceEntry) {
	_, _ = fmt.Fprintln(w, heading)
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "  (none)")
		return
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "  %4d  %s\n", e.StyleID, e.Label)
	}
}
