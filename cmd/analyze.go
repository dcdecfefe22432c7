package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me-e6/pengine/internal/config"
	"github.com/me-e6/pengine/internal/query"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <question>",
	Short: "Show how a question is understood, without answering it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Analysis needs no provider, so an invalid config is not fatal here.
		var locations []string
		if cfg, err := config.Load(cfgFile); err == nil {
			locations = cfg.Reasoning.Locations
		}
		d := query.NewAnalyzer(locations...).Analyze(strings.Join(args, " "))
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding analysis: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		if suggestions := query.Suggestions(d.DomainHint); len(suggestions) > 0 && verbose {
			fmt.Fprintln(cmd.OutOrStdout(), "\nTry also:")
			for _, s := range suggestions {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", s)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
