package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/config"
	"github.com/me-e6/pengine/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pengine",
	Short: "Turn questions about public data into narratives and visual specs",
	Long: `pengine answers natural-language questions about ingested datasets.
It analyses the question, retrieves the relevant tables from a semantic
knowledge store, mines statistical insights and decides whether the answer
reads best as a story or as a data view. Answers are available from the
command line, over HTTP and to AI agents via MCP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds the process logger from config. --verbose forces debug.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	opts := logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development}
	if verbose {
		opts.Level = "debug"
	}
	return logging.New(opts)
}
