package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/me-e6/pengine/internal/ingest"
	"github.com/me-e6/pengine/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load dataset files into the knowledge store",
	Long: `Scans a directory (datasets.dir by default) for YAML and JSON dataset
files, embeds new or changed ones into the knowledge store and persists it.
Files whose content did not change since the last run are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("force", false, "re-ingest every file, even unchanged ones")
	ingestCmd.Flags().Int("concurrency", 0, "max files parsed in parallel (overrides config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	force, _ := cmd.Flags().GetBool("force")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Datasets.MaxConcurrency
	}

	root := cfg.Datasets.Dir
	if len(args) == 1 {
		root = args[0]
	}

	store, err := openKnowledge(ctx, cfg)
	if err != nil {
		return err
	}
	state, err := ingest.LoadState(cfg.DataDir)
	if err != nil {
		return err
	}

	summary, err := ingest.Run(ctx, store, state, ingest.Options{
		Root:        root,
		Include:     cfg.Datasets.Include,
		Exclude:     cfg.Datasets.Exclude,
		Concurrency: concurrency,
		Force:       force,
		Tagger:      newQueryAnalyzer(cfg),
		Reporter:    progress.NewReporter(os.Stderr),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if summary.Loaded > 0 || summary.Removed > 0 {
		if err := store.Persist(ctx, vectorDir(cfg)); err != nil {
			return fmt.Errorf("persisting knowledge store: %w", err)
		}
	}
	if err := state.Save(cfg.DataDir); err != nil {
		return fmt.Errorf("saving ingest state: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ingested %d datasets from %d files (%d unchanged, %d removed) in %s\n",
		summary.Datasets, summary.Loaded, summary.Skipped, summary.Removed, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "Knowledge store: %d datasets in %s\n", store.Count(), vectorDir(cfg))
	for _, f := range summary.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed: %v\n", f)
	}
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d dataset files could not be loaded", len(summary.Failed))
	}
	return nil
}
