package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/db"
	"github.com/me-e6/pengine/internal/history"
	"github.com/me-e6/pengine/internal/query"
	"github.com/me-e6/pengine/internal/reasoning"
	"github.com/me-e6/pengine/internal/render"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question about the ingested datasets",
	Long: `Runs the full reasoning pipeline for one question and prints the answer
as markdown. Use --json for the complete reasoning result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("mode", "", "force the output mode (story or data)")
	askCmd.Flags().String("domain", "", "override the detected domain")
	askCmd.Flags().Bool("json", false, "print the reasoning result and render spec as JSON")
	askCmd.Flags().Bool("save", false, "record the answer in the query history")
	askCmd.Flags().String("html", "", "also write the answer as an HTML fragment to this file")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, _ := cmd.Flags().GetString("mode")
	domain, _ := cmd.Flags().GetString("domain")
	asJSON, _ := cmd.Flags().GetBool("json")
	save, _ := cmd.Flags().GetBool("save")
	htmlPath, _ := cmd.Flags().GetString("html")

	if mode != "" && !query.OutputMode(mode).Valid() {
		return fmt.Errorf("invalid --mode %q: must be story or data", mode)
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	res, err := a.engine.Reason(ctx, reasoning.Request{
		Query:          strings.Join(args, " "),
		ForceMode:      query.OutputMode(mode),
		DomainOverride: domain,
	})
	if err != nil {
		return err
	}

	savedID := ""
	if save {
		database, err := db.Open(historyDBPath(a.cfg))
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer database.Close()
		if savedID, err = history.NewStore(database).Save(ctx, res); err != nil {
			return fmt.Errorf("saving answer: %w", err)
		}
		a.logger.Debug("answer saved", zap.String("history_id", savedID))
	}

	spec := render.FromResult(res)

	if htmlPath != "" {
		html, err := spec.HTML()
		if err != nil {
			return fmt.Errorf("rendering HTML: %w", err)
		}
		if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", htmlPath, err)
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(map[string]any{
			"id":     savedID,
			"result": res,
			"render": spec,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprint(out, spec.Markdown())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Output mode: %s | Template: %s | Confidence: %.2f\n",
		res.OutputMode, res.RecommendedTemplate, res.Confidence)
	if savedID != "" {
		fmt.Fprintf(out, "Saved as: %s\n", savedID)
	}
	if verbose {
		for _, note := range res.Notes {
			fmt.Fprintf(out, "  - %s\n", note)
		}
	}
	return nil
}
